package overlay

import "github.com/nmapgithub/HELLSPHERE/internal/geodesy"

// heatmap multiplier channels decay like the weather cell channels do.
const multiplierChannels = 3

// BuildHeatmap converts a batch of site samples into heatmap points whose
// intensity is the site temperature min-max normalized across the batch.
// Sites with no temperature reading contribute intensity zero and are
// excluded from the normalization bounds. A degenerate batch (all equal,
// or fewer than two readings) yields zero intensities throughout.
func BuildHeatmap(samples []Sample) []HeatmapPoint {
	min, max := 0.0, 0.0
	seen := false
	for _, s := range samples {
		if s.Temperature == nil {
			continue
		}
		t := *s.Temperature
		if !seen {
			min, max = t, t
			seen = true
			continue
		}
		if t < min {
			min = t
		}
		if t > max {
			max = t
		}
	}

	points := make([]HeatmapPoint, 0, len(samples))
	for _, s := range samples {
		intensity := 0.0
		if s.Temperature != nil {
			intensity = geodesy.Normalize(*s.Temperature, min, max)
		}
		points = append(points, HeatmapPoint{
			ID:          s.ID,
			Name:        s.Name,
			Coords:      s.Coords,
			Intensity:   intensity,
			Multipliers: channelRamp(intensity),
		})
	}
	return points
}

// channelRamp spreads a base value across the overlay channels, each 20%
// weaker than the last, clamped to [0,1].
func channelRamp(base float64) []float64 {
	out := make([]float64, multiplierChannels)
	for i := range out {
		v := base * (1 - 0.2*float64(i))
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		out[i] = v
	}
	return out
}
