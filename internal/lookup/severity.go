package lookup

// Severity tier thresholds and colors are a stable contract with the
// presentation layer; the boundaries are inclusive.
const (
	severityHighThreshold   = 7.0
	severityMediumThreshold = 4.0

	colorHigh   = "#ff4444"
	colorMedium = "#ffa500"
	colorLow    = "#ffd700"
)

// SeverityLabel buckets an effective severity score into the three
// display tiers.
func SeverityLabel(severity float64) string {
	switch {
	case severity >= severityHighThreshold:
		return "High"
	case severity >= severityMediumThreshold:
		return "Medium"
	default:
		return "Low"
	}
}

// SeverityColor returns the display color matching SeverityLabel.
func SeverityColor(severity float64) string {
	switch {
	case severity >= severityHighThreshold:
		return colorHigh
	case severity >= severityMediumThreshold:
		return colorMedium
	default:
		return colorLow
	}
}
