package fuelflow

import "sort"

// Key is one point of a [Curve].
type Key struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Curve is a piecewise-linear response curve. Evaluation clamps to the first
// and last keys outside the keyed range.
type Curve struct {
	keys []Key
}

func NewCurve(keys ...Key) Curve {
	sorted := make([]Key, len(keys))
	copy(sorted, keys)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })
	return Curve{keys: sorted}
}

// ConstantCurve returns a curve evaluating to v everywhere.
func ConstantCurve(v float64) Curve {
	return Curve{keys: []Key{{X: 0, Y: v}}}
}

func (c Curve) Keys() []Key {
	out := make([]Key, len(c.keys))
	copy(out, c.keys)
	return out
}

func (c Curve) Empty() bool { return len(c.keys) == 0 }

func (c Curve) Evaluate(x float64) float64 {
	n := len(c.keys)
	switch {
	case n == 0:
		return 0
	case x <= c.keys[0].X:
		return c.keys[0].Y
	case x >= c.keys[n-1].X:
		return c.keys[n-1].Y
	}
	i := sort.Search(n, func(i int) bool { return c.keys[i].X > x })
	k0, k1 := c.keys[i-1], c.keys[i]
	if k1.X == k0.X {
		return k1.Y
	}
	t := (x - k0.X) / (k1.X - k0.X)
	return k0.Y + t*(k1.Y-k0.Y)
}
