package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/fuelsim/internal/fuelflow"
	"github.com/san-kum/fuelsim/internal/scheduler"
	"github.com/san-kum/fuelsim/internal/viz"
	"github.com/stretchr/testify/assert"
)

type fakeDriver struct {
	requests []bool
	ticks    int
	results  *scheduler.Results
}

func (d *fakeDriver) RequestUpdate(token string, wait bool) bool {
	d.requests = append(d.requests, wait)
	return true
}

func (d *fakeDriver) Tick()                       { d.ticks++ }
func (d *fakeDriver) Results() *scheduler.Results { return d.results }
func (d *fakeDriver) Running() bool               { return false }
func (d *fakeDriver) Runs() uint64                { return 1 }
func (d *fakeDriver) Failures() uint64            { return 0 }
func (d *fakeDriver) LastError() error            { return nil }

func newTestMonitor(t *testing.T, d *fakeDriver, consumers int) *Monitor {
	t.Helper()
	theme, err := viz.LookupTheme("minimal")
	if err != nil {
		t.Fatalf("LookupTheme: %v", err)
	}
	return NewMonitor(d, viz.NewRenderer(theme, 9.80665), "two-stage", consumers, time.Millisecond)
}

func sampleResults(id string, dv float64) *scheduler.Results {
	stats := []fuelflow.FuelStats{{StartMass: 100, EndMass: 50, DeltaTime: 10, DeltaV: dv}}
	return &scheduler.Results{RunID: id, Vessel: "two-stage", Vacuum: stats, Atmospheric: stats}
}

func TestMonitor_TickRequestsForEveryConsumer(t *testing.T) {
	d := &fakeDriver{}
	m := newTestMonitor(t, d, 3)

	_, cmd := m.Update(tickMsg(time.Now()))
	assert.NotNil(t, cmd)
	assert.Equal(t, []bool{false, false, false}, d.requests)
	assert.Equal(t, 1, d.ticks)
}

func TestMonitor_PauseStopsRequests(t *testing.T) {
	d := &fakeDriver{}
	m := newTestMonitor(t, d, 2)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	m.Update(tickMsg(time.Now()))
	assert.Empty(t, d.requests)
	assert.Equal(t, 1, d.ticks, "the scheduler still ticks while paused")
	assert.Contains(t, m.View(), "paused")
}

func TestMonitor_RequestWhilePaused(t *testing.T) {
	d := &fakeDriver{}
	m := newTestMonitor(t, d, 2)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Equal(t, []bool{false, false}, d.requests)
}

func TestMonitor_HistoryTracksNewRuns(t *testing.T) {
	d := &fakeDriver{results: sampleResults("a", 100)}
	m := newTestMonitor(t, d, 1)

	m.step()
	m.step()
	assert.Equal(t, []float64{100}, m.history, "the same run is recorded once")

	d.results = sampleResults("b", 120)
	m.step()
	assert.Equal(t, []float64{100, 120}, m.history)

	for i := 0; i < historyLen+5; i++ {
		d.results = sampleResults(string(rune('c'+i)), float64(i))
		m.step()
	}
	assert.Len(t, m.history, historyLen)
}

func TestMonitor_View(t *testing.T) {
	d := &fakeDriver{}
	m := newTestMonitor(t, d, 1)
	assert.Contains(t, m.View(), "waiting for first run")

	d.results = sampleResults("run-1", 1234.5)
	m.step()
	out := m.View()
	assert.Contains(t, out, "two-stage")
	assert.Contains(t, out, "vacuum")
	assert.Contains(t, out, "1234.5")

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Contains(t, m.View(), "atmospheric")
}

func TestMonitor_Quit(t *testing.T) {
	m := newTestMonitor(t, &fakeDriver{}, 1)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if assert.NotNil(t, cmd) {
		assert.Equal(t, tea.Quit(), cmd())
	}
}
