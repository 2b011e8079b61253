package complaint

import "strings"

const (
	StatusReceived   = "RECEIVED"
	StatusInProgress = "IN_PROGRESS"
	StatusResolved   = "RESOLVED"
)

var statuses = []string{StatusReceived, StatusInProgress, StatusResolved}

func Statuses() []string { return append([]string(nil), statuses...) }

// NormalizeStatus upper-cases s and reports whether it is a lifecycle status.
func NormalizeStatus(s string) (string, bool) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for _, st := range statuses {
		if st == up {
			return st, true
		}
	}
	return "", false
}

// Unassigned clears a department assignment.
const Unassigned = "unassigned"

type Department struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var departments = []Department{
	{Value: "roads", Label: "Roads & Infrastructure"},
	{Value: "sanitation", Label: "Sanitation"},
	{Value: "lighting", Label: "Public Lighting"},
	{Value: "water", Label: "Water & Utilities"},
	{Value: "parks", Label: "Parks & Recreation"},
	{Value: "other", Label: "Other"},
}

func Departments() []Department { return append([]Department(nil), departments...) }

// NormalizeDepartment returns the canonical department value. An empty string
// or "unassigned" yields ("", true), meaning the assignment is cleared.
func NormalizeDepartment(s string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" || v == Unassigned {
		return "", true
	}
	for _, d := range departments {
		if d.Value == v {
			return v, true
		}
	}
	return "", false
}

// StatusCounts mirrors the admin dashboard tiles.
type StatusCounts struct {
	Total      int64 `json:"total"`
	Received   int64 `json:"received"`
	InProgress int64 `json:"in_progress"`
	Resolved   int64 `json:"resolved"`
}
