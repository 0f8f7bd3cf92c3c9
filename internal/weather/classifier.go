package weather

// Classification thresholds. These encode a fixed display policy, not tunable
// meteorology, so they are constants rather than configuration.
const (
	stormPrecipMin = 8.0
	stormWindMin   = 12.0
	rainPrecipMin  = 2.0
	windSpeedMin   = 12.0
	cloudCoverMin  = 45.0

	severityScale = 20.0
	clearSeverity = 0.25
)

// overlayChannels is the number of per-cell overlay multiplier channels.
const overlayChannels = 3

// Classify derives a Cell from a raw observation. Missing fields are treated
// as zero. Rules are evaluated in strict priority order: storm, rain, wind,
// cloudy, clear.
func Classify(obs Observation) Cell {
	precip := deref(obs.Precipitation)
	wind := deref(obs.WindSpeed)
	cloud := deref(obs.CloudCover)

	var (
		status   Status
		severity float64
	)
	switch {
	case precip >= stormPrecipMin && wind >= stormWindMin:
		status = StatusStorm
		severity = clamp01((precip + wind*0.4) / severityScale)
	case precip >= rainPrecipMin:
		status = StatusRain
		severity = clamp01(precip / severityScale)
	case wind >= windSpeedMin:
		status = StatusWind
		severity = clamp01(wind / severityScale)
	case cloud >= cloudCoverMin:
		status = StatusCloudy
		severity = clamp01(cloud / severityScale)
	default:
		status = StatusClear
		severity = clearSeverity
	}

	return Cell{
		ID:          obs.ID,
		Coords:      obs.Coords,
		Status:      status,
		Severity:    severity,
		Multipliers: multipliers(severity),
	}
}

// multipliers expands a severity into per-channel overlay weights, each
// clamped to [0,1].
func multipliers(severity float64) []float64 {
	m := make([]float64, overlayChannels)
	for i := range m {
		m[i] = clamp01(severity * (1.0 - 0.2*float64(i)))
	}
	return m
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
