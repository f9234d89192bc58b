package prepstatus

import (
	"strings"
)

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	parts := strings.Split(s.Name, "-")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

type Enum struct {
	Pending   Status
	Preparing Status
	Ready     Status
	Served    Status
}

var Statuses = Enum{
	Pending:   Status{Name: "pending"},
	Preparing: Status{Name: "preparing"},
	Ready:     Status{Name: "ready"},
	Served:    Status{Name: "served"},
}

var All = []Status{
	Statuses.Pending,
	Statuses.Preparing,
	Statuses.Ready,
	Statuses.Served,
}

// ByName returns the status for a given name, or nil if not found
func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}

// Next returns the forward transition for a status code. Ready and
// served have no forward transition.
func Next(code string) (string, bool) {
	switch code {
	case Statuses.Pending.Code():
		return Statuses.Preparing.Code(), true
	case Statuses.Preparing.Code():
		return Statuses.Ready.Code(), true
	default:
		return "", false
	}
}

// IsDone reports whether a status code counts as finished for alerting
// purposes. Done items are never flagged overdue.
func IsDone(code string) bool {
	return code == Statuses.Ready.Code() || code == Statuses.Served.Code()
}

// IsActive reports whether a status code keeps an item on the board
// (selectable and eligible for alerts).
func IsActive(code string) bool {
	return code == Statuses.Pending.Code() || code == Statuses.Preparing.Code()
}
