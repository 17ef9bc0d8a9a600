package market

// Mood buckets a 24h percentage change into the site's sentiment label.
// A nil change (upstream never reported one) is "Unknown", not "Calm".
func Mood(change24h *float64) string {
	if change24h == nil {
		return "Unknown"
	}
	switch v := *change24h; {
	case v >= 5:
		return "Hype"
	case v >= 1:
		return "Positive"
	case v <= -5:
		return "Fear"
	case v <= -1:
		return "Caution"
	default:
		return "Calm"
	}
}
