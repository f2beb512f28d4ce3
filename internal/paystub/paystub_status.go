package paystub

var statusRank = map[string]int{
	StatusGenerated: 1,
	StatusPDFReady:  2,
	StatusEmailed:   3,
	StatusViewed:    4,
}

func IsValidStatus(status string) bool {
	_, ok := statusRank[status]
	return ok || status == StatusError
}

// CanTransition reports whether a stub may move from one status to another.
// Statuses only move forward, any status may fall to error, and a stub in
// error stays there until it is regenerated.
func CanTransition(from, to string) bool {
	if to == StatusError {
		return true
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}
