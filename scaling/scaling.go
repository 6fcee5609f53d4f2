package scaling

// Bins is the number of raw/scaled pairs in a scaling map.
const Bins = 5

// Map is a piecewise-linear lookup table converting raw sensor readings into
// physical units. Raw must be ascending.
type Map struct {
	Raw    [Bins]float64 `toml:"raw" yaml:"raw"`
	Scaled [Bins]float64 `toml:"scaled" yaml:"scaled"`
}

// Value converts raw into physical units, clamping to the first and last
// bins and interpolating between the bins that enclose raw.
func (m *Map) Value(raw float64) float64 {
	bin := Bins - 1
	for bin > 0 && raw < m.Raw[bin] {
		bin--
	}
	if bin == 0 && raw < m.Raw[0] {
		return m.Scaled[0]
	}
	if bin == Bins-1 {
		return m.Scaled[Bins-1]
	}
	next := bin + 1
	return Interpolate(raw, m.Raw[bin], m.Scaled[bin], m.Raw[next], m.Scaled[next])
}

// Interpolate returns the y for x on the line through (x1, y1) and (x2, y2).
// A zero width interval yields y1.
func Interpolate(x, x1, y1, x2, y2 float64) float64 {
	if x2 == x1 {
		return y1
	}
	return y1 + (x-x1)*(y2-y1)/(x2-x1)
}
