package publisher

// TimeToGoSeconds computes the remaining runway estimate: clamp(int((capacityAh *
// soc / 100) / |current| * 3600), 0, 999999), or 0 when current is
// negligible.
func TimeToGoSeconds(capacityAh float64, socPct uint8, currentA float64) int {
	abs := currentA
	if abs < 0 {
		abs = -abs
	}
	if abs <= 0.01 {
		return 0
	}

	seconds := int((capacityAh * float64(socPct) / 100.0) / abs * 3600.0)
	if seconds < 0 {
		return 0
	}
	if seconds > 999999 {
		return 999999
	}
	return seconds
}
