package models

import "testing"

func TestClaimIsTheOnlySearchingToAssignedEdge(t *testing.T) {
	if !StatusSearching.CanTransition(StatusAssigned) {
		t.Fatal("SEARCHING -> ASSIGNED must be legal")
	}
	for _, from := range []Status{StatusPending, StatusAssigned, StatusInProgress, StatusCompleted, StatusCancelled} {
		if from.CanTransition(StatusAssigned) {
			t.Fatalf("%s -> ASSIGNED must not be legal", from)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusCancelled} {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	if StatusSearching.Terminal() {
		t.Fatal("SEARCHING is not terminal")
	}
}

func TestParseStatus(t *testing.T) {
	if _, err := ParseStatus("SEARCHING"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseStatus("EN_ROUTE_TO_MARS"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
