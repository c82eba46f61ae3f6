package show

import (
	"reflect"
	"testing"
)

// TestShow_DateRange is inclusive of both ends and crosses month boundaries.
func TestShow_DateRange(t *testing.T) {
	s := Show{StartDate: "2024-02-28", EndDate: "2024-03-02"}
	want := []string{"2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02"}
	if got := s.DateRange(); !reflect.DeepEqual(got, want) {
		t.Errorf("DateRange() = %v, want %v", got, want)
	}
}

// TestShow_Validate rejects inverted ranges.
func TestShow_Validate(t *testing.T) {
	s := Show{Name: "Atlanta Apparel", StartDate: "2024-04-10", EndDate: "2024-04-08", Status: StatusActive}
	if err := s.Validate(); err == nil {
		t.Error("expected error for end before start")
	}
	s.EndDate = "2024-04-12"
	if err := s.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestShow_Contains checks bounds.
func TestShow_Contains(t *testing.T) {
	s := Show{StartDate: "2024-04-10", EndDate: "2024-04-12"}
	if !s.Contains("2024-04-10") || !s.Contains("2024-04-12") {
		t.Error("expected bounds to be contained")
	}
	if s.Contains("2024-04-13") || s.Contains("2024-04-09") {
		t.Error("expected dates outside range to be excluded")
	}
}
