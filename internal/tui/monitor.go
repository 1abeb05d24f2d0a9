package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/fuelsim/internal/fuelflow"
	"github.com/san-kum/fuelsim/internal/scheduler"
	"github.com/san-kum/fuelsim/internal/viz"
)

// Driver is the part of the scheduler the monitor drives.
type Driver interface {
	RequestUpdate(token string, wait bool) bool
	Tick()
	Results() *scheduler.Results
	Running() bool
	Runs() uint64
	Failures() uint64
	LastError() error
}

type view int

const (
	viewVacuum view = iota
	viewAtmospheric
)

func (v view) String() string {
	if v == viewAtmospheric {
		return "atmospheric"
	}
	return "vacuum"
}

const historyLen = 48

type tickMsg time.Time

// Monitor is a bubbletea model that ticks a scheduler and shows the latest
// published results.
type Monitor struct {
	driver   Driver
	renderer *viz.Renderer
	vessel   string
	tokens   []string
	rate     time.Duration

	view    view
	paused  bool
	frame   int
	lastRun string
	history []float64
	width   int
}

func NewMonitor(d Driver, r *viz.Renderer, vessel string, consumers int, rate time.Duration) *Monitor {
	tokens := make([]string, consumers)
	for i := range tokens {
		tokens[i] = scheduler.NewToken()
	}
	return &Monitor{
		driver:   d,
		renderer: r,
		vessel:   vessel,
		tokens:   tokens,
		rate:     rate,
		history:  make([]float64, 0, historyLen),
		width:    80,
	}
}

func (m *Monitor) tick() tea.Cmd {
	return tea.Tick(m.rate, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Monitor) Init() tea.Cmd { return m.tick() }

func (m *Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "v":
			m.view = (m.view + 1) % 2
		case " ", "p":
			m.paused = !m.paused
		case "r":
			// request now, even while paused
			for _, token := range m.tokens {
				m.driver.RequestUpdate(token, false)
			}
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tickMsg:
		m.step()
		return m, m.tick()
	}
	return m, nil
}

// step is one tick of the host loop.
func (m *Monitor) step() {
	m.frame++
	if !m.paused {
		for _, token := range m.tokens {
			m.driver.RequestUpdate(token, false)
		}
	}
	m.driver.Tick()

	res := m.driver.Results()
	if res == nil || res.RunID == m.lastRun {
		return
	}
	m.lastRun = res.RunID
	m.history = append(m.history, fuelflow.TotalDeltaV(res.Vacuum))
	if len(m.history) > historyLen {
		m.history = m.history[len(m.history)-historyLen:]
	}
}

func (m *Monitor) View() string {
	s := m.renderer.Styles
	var b strings.Builder

	b.WriteString(s.Title.Render("fuelsim") + s.Subtle.Render("  "+m.vessel) + "\n")
	b.WriteString(s.Separator(min(m.width, 72)) + "\n")

	status := m.renderer.Status(m.frame, m.driver.Running(), m.driver.LastError())
	if m.paused {
		status = s.Idle.Render("‖ paused")
	}
	fmt.Fprintf(&b, "%s  runs %d  failures %d  consumers %d\n",
		status, m.driver.Runs(), m.driver.Failures(), len(m.tokens))

	res := m.driver.Results()
	if res == nil {
		b.WriteString(s.Subtle.Render("waiting for first run...") + "\n")
	} else {
		stats := res.Vacuum
		if m.view == viewAtmospheric {
			stats = res.Atmospheric
		}
		fmt.Fprintf(&b, "%s  %s  %s\n",
			m.renderer.Metric("vac Δv", fuelflow.TotalDeltaV(res.Vacuum), "m/s"),
			m.renderer.Metric("atm Δv", fuelflow.TotalDeltaV(res.Atmospheric), "m/s"),
			s.Sparkline(m.history, historyLen))
		b.WriteString(m.renderer.StageTable(m.view.String(), stats) + "\n")
		b.WriteString(s.Subtle.Render(fmt.Sprintf("run %s  took %s", res.RunID, res.Duration.Round(time.Microsecond))) + "\n")
	}

	b.WriteString(s.Subtle.Render("tab: switch profile  p: pause  r: request now  q: quit"))
	return b.String()
}

// Run shows the monitor until the user quits or ctx is done.
func Run(ctx context.Context, m *Monitor) error {
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
