package models

// Severity is the outcome level of a single check or of a whole table.
// The levels form a total order SKIP < PASS < WARNING < FAIL. A status is
// only ever raised through Escalate, never lowered.
type Severity int

const (
	SeveritySkip Severity = iota
	SeverityPass
	SeverityWarning
	SeverityFail
)

// Escalate returns the more severe of s and other.
func (s Severity) Escalate(other Severity) Severity {
	if other > s {
		return other
	}
	return s
}

func (s Severity) String() string {
	switch s {
	case SeveritySkip:
		return "SKIP"
	case SeverityPass:
		return "PASS"
	case SeverityWarning:
		return "WARNING"
	case SeverityFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText lets severities render as their names in JSON reports.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
