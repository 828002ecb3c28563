package models

import "fmt"

// Status is the reservation lifecycle state. The zero value is not valid;
// reservations are created in StatusPending or StatusSearching.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusSearching  Status = "SEARCHING"
	StatusAssigned   Status = "ASSIGNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// transitions is the table of legal lifecycle moves. The claim operation is
// the single SEARCHING -> ASSIGNED edge; everything after ASSIGNED belongs
// to the trip-progress flows.
var transitions = map[Status][]Status{
	StatusPending:    {StatusSearching, StatusCancelled},
	StatusSearching:  {StatusAssigned, StatusCancelled},
	StatusAssigned:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// Valid reports whether s is a member of the closed status set.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether the move s -> to is in the transition table.
func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions exist from s.
func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

func (s Status) String() string { return string(s) }

// ParseStatus validates a raw status string, typically one read back from
// the database.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown reservation status %q", raw)
	}
	return s, nil
}
