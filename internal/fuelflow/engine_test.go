package fuelflow

import (
	"errors"
	"math"
	"testing"
)

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(1, math.Abs(b))
}

func TestCurve_Evaluate(t *testing.T) {
	c := NewCurve(Key{1, 250}, Key{0, 300}, Key{3, 100})

	tests := []struct {
		x, want float64
	}{
		{-1, 300},
		{0, 300},
		{0.5, 275},
		{1, 250},
		{2, 175},
		{3, 100},
		{10, 100},
	}
	for _, tt := range tests {
		if got := c.Evaluate(tt.x); !near(got, tt.want, 1e-12) {
			t.Errorf("Evaluate(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}

	if got := (Curve{}).Evaluate(1); got != 0 {
		t.Errorf("empty curve = %v, want 0", got)
	}
	if got := ConstantCurve(42).Evaluate(-100); got != 42 {
		t.Errorf("constant curve = %v, want 42", got)
	}
}

func TestEngine_SimpleThrust(t *testing.T) {
	e := NewSimpleEngine(FlowForThrust(20000, 300), FlowForThrust(5000, 300), ConstantCurve(300),
		Propellant{Resource: "LiquidFuel", Ratio: 1})

	tests := []struct {
		name     string
		throttle float64
		limiter  float64
		want     float64
	}{
		{"full", 1, 1, 20000},
		{"idle", 0, 1, 5000},
		{"half", 0.5, 1, 12500},
		{"limited", 1, 0.5, 12500},
		{"over throttle clamps", 2, 1, 20000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.ThrustLimiter = tt.limiter
			if got := e.CurrentThrust(Conditions{}, tt.throttle); !near(got, tt.want, 1e-9) {
				t.Errorf("CurrentThrust = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngine_ThrottleLocked(t *testing.T) {
	e := NewThrottleLockedEngine(FlowForThrust(100000, 200), ConstantCurve(200),
		Propellant{Resource: "SolidFuel", Ratio: 1})

	if !e.ThrottleLocked() {
		t.Fatal("expected throttle-locked engine")
	}
	for _, throttle := range []float64{0, 0.3, 1} {
		if got := e.CurrentThrust(Conditions{}, throttle); !near(got, 100000, 1e-9) {
			t.Errorf("throttle %v: thrust = %v, want 100000", throttle, got)
		}
	}
	if e.MinThrust(Conditions{}) != e.MaxThrust(Conditions{}) {
		t.Error("locked engine min and max thrust should match")
	}

	e.ThrustLimiter = 0.6
	if got := e.CurrentThrust(Conditions{}, 0); !near(got, 60000, 1e-9) {
		t.Errorf("limited thrust = %v, want 60000", got)
	}
}

func TestEngine_MultiMode(t *testing.T) {
	dry := EngineMode{Name: "dry", MaxFuelFlow: 10, IspCurve: ConstantCurve(3000),
		Propellants: []Propellant{{Resource: "Xenon", Ratio: 1}}}
	wet := EngineMode{Name: "wet", MaxFuelFlow: 20, IspCurve: ConstantCurve(350),
		Propellants: []Propellant{{Resource: "LiquidFuel", Ratio: 0.9}, {Resource: "Oxidizer", Ratio: 1.1}}}

	e := NewMultiModeEngine(1, dry, wet)
	if err := e.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := e.CurrentIsp(0); got != 350 {
		t.Errorf("active mode isp = %v, want 350", got)
	}
	if got := len(e.Propellants()); got != 2 {
		t.Errorf("active mode propellants = %d, want 2", got)
	}

	e.ActiveMode = 0
	if got := e.CurrentIsp(0); got != 3000 {
		t.Errorf("switched mode isp = %v, want 3000", got)
	}
	if got := e.MassFlow(Conditions{}, 1); got != 10 {
		t.Errorf("switched mode flow = %v, want 10", got)
	}
}

func TestEngine_IspOverPressure(t *testing.T) {
	e := NewSimpleEngine(1, 0, NewCurve(Key{0, 320}, Key{1, 270}), Propellant{Resource: "LiquidFuel", Ratio: 1})

	if got := e.CurrentIsp(0); got != 320 {
		t.Errorf("vacuum isp = %v, want 320", got)
	}
	if got := e.CurrentIsp(AtmToKPa); got != 270 {
		t.Errorf("sea level isp = %v, want 270", got)
	}
	if got := e.CurrentIsp(AtmToKPa / 2); !near(got, 295, 1e-12) {
		t.Errorf("half atm isp = %v, want 295", got)
	}
	if got := (Conditions{Pressure: AtmToKPa}).PressureAtm(); got != 1 {
		t.Errorf("PressureAtm = %v, want 1", got)
	}
}

func TestEngine_FlowModifiers(t *testing.T) {
	atm := NewCurve(Key{0, 1}, Key{1, 0.5})
	vel := NewCurve(Key{0, 1}, Key{2, 1.5})

	tests := []struct {
		name string
		mode EngineMode
		cond Conditions
		want float64
	}{
		{"zero multiplier means one", EngineMode{MaxFuelFlow: 10}, Conditions{}, 10},
		{"multiplier", EngineMode{MaxFuelFlow: 10, FlowMultiplier: 2}, Conditions{}, 20},
		{"density curve", EngineMode{MaxFuelFlow: 10, AtmCurve: &atm}, Conditions{Density: 1}, 5},
		{"mach curve", EngineMode{MaxFuelFlow: 10, VelCurve: &vel}, Conditions{Mach: 1}, 12.5},
		{"combined", EngineMode{MaxFuelFlow: 10, FlowMultiplier: 2, AtmCurve: &atm, VelCurve: &vel},
			Conditions{Density: 0.5, Mach: 2}, 10 * 2 * 0.75 * 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mode.IspCurve = ConstantCurve(300)
			tt.mode.Propellants = []Propellant{{Resource: "LiquidFuel", Ratio: 1}}
			e := &EngineModel{Kind: KindSimple, Modes: []EngineMode{tt.mode}, ThrustLimiter: 1}
			if got := e.MassFlow(tt.cond, 1); !near(got, tt.want, 1e-12) {
				t.Errorf("MassFlow = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngine_ThrustTransforms(t *testing.T) {
	e := NewSimpleEngine(FlowForThrust(1000, 300), 0, ConstantCurve(300), Propellant{Resource: "LiquidFuel", Ratio: 1})

	e.ThrustTransforms = []float64{0.5, 0.5}
	if got := e.MaxThrust(Conditions{}); !near(got, 1000, 1e-9) {
		t.Errorf("split nozzles thrust = %v, want 1000", got)
	}
	e.ThrustTransforms = []float64{0.25, 0.5}
	if got := e.MaxThrust(Conditions{}); !near(got, 750, 1e-9) {
		t.Errorf("canted nozzles thrust = %v, want 750", got)
	}
}

func TestEngine_Validate(t *testing.T) {
	valid := func() *EngineModel {
		return NewSimpleEngine(10, 1, ConstantCurve(300), Propellant{Resource: "LiquidFuel", Ratio: 1})
	}

	tests := []struct {
		name   string
		mutate func(e *EngineModel)
	}{
		{"no modes", func(e *EngineModel) { e.Modes = nil }},
		{"simple with two modes", func(e *EngineModel) { e.Modes = append(e.Modes, e.Modes[0]) }},
		{"active mode out of range", func(e *EngineModel) { e.Kind = KindMultiMode; e.ActiveMode = 3 }},
		{"limiter above one", func(e *EngineModel) { e.ThrustLimiter = 1.5 }},
		{"negative transform", func(e *EngineModel) { e.ThrustTransforms = []float64{-1} }},
		{"negative flow", func(e *EngineModel) { e.Modes[0].MaxFuelFlow = -1 }},
		{"min above max", func(e *EngineModel) { e.Modes[0].MinFuelFlow = 20 }},
		{"negative multiplier", func(e *EngineModel) { e.Modes[0].FlowMultiplier = -2 }},
		{"missing isp", func(e *EngineModel) { e.Modes[0].IspCurve = Curve{} }},
		{"no propellants", func(e *EngineModel) { e.Modes[0].Propellants = nil }},
		{"zero ratio", func(e *EngineModel) { e.Modes[0].Propellants[0].Ratio = 0 }},
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid engine: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid()
			tt.mutate(e)
			err := e.Validate()
			if !errors.Is(err, ErrInvalidEngine) {
				t.Errorf("Validate() = %v, want ErrInvalidEngine", err)
			}
		})
	}
}

func TestEngine_Clone(t *testing.T) {
	atm := NewCurve(Key{0, 1})
	e := NewSimpleEngine(10, 0, ConstantCurve(300), Propellant{Resource: "LiquidFuel", Ratio: 1})
	e.Modes[0].AtmCurve = &atm
	e.ThrustTransforms = []float64{1}

	c := e.Clone()
	c.Modes[0].Propellants[0].Ratio = 5
	c.Modes[0].MaxFuelFlow = 99
	c.ThrustTransforms[0] = 0

	if e.Modes[0].Propellants[0].Ratio != 1 || e.Modes[0].MaxFuelFlow != 10 || e.ThrustTransforms[0] != 1 {
		t.Error("clone shares state with the original")
	}
	if c.Modes[0].AtmCurve == e.Modes[0].AtmCurve {
		t.Error("clone shares the density curve")
	}
	if (*EngineModel)(nil).Clone() != nil {
		t.Error("nil clone should be nil")
	}
}

func TestEngineKind_String(t *testing.T) {
	tests := map[EngineKind]string{
		KindSimple:         "simple",
		KindMultiMode:      "multimode",
		KindThrottleLocked: "throttle_locked",
		EngineKind(9):      "EngineKind(9)",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
