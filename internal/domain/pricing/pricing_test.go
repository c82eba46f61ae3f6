package pricing

import (
	"reflect"
	"testing"
)

// TestComputeTotalStaffDays covers summing, zero days and the negative floor.
func TestComputeTotalStaffDays(t *testing.T) {
	tests := []struct {
		name string
		plan StaffingPlan
		want int
	}{
		{"empty", StaffingPlan{}, 0},
		{"nil", nil, 0},
		{"zero day ignored", StaffingPlan{"2024-03-01": 2, "2024-03-02": 0, "2024-03-03": 3}, 5},
		{"negative clamped", StaffingPlan{"2024-03-01": 4, "2024-03-02": -3}, 4},
		{"single", StaffingPlan{"2024-05-01": 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeTotalStaffDays(tt.plan); got != tt.want {
				t.Errorf("ComputeTotalStaffDays() = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestComputeBaseTotalCents verifies the integer product.
func TestComputeBaseTotalCents(t *testing.T) {
	if got := ComputeBaseTotalCents(4, 30000); got != 120000 {
		t.Errorf("ComputeBaseTotalCents(4, 30000) = %d, want 120000", got)
	}
	if got := ComputeBaseTotalCents(0, 30000); got != 0 {
		t.Errorf("ComputeBaseTotalCents(0, 30000) = %d, want 0", got)
	}
	if got := ComputeBaseTotalCents(-2, 30000); got != 0 {
		t.Errorf("ComputeBaseTotalCents(-2, 30000) = %d, want 0", got)
	}
}

// TestComputeAmountDueCents_NeverNegative checks the zero floor.
func TestComputeAmountDueCents_NeverNegative(t *testing.T) {
	tests := []struct {
		base, deposit, want int64
	}{
		{20000, 30000, 0},
		{120000, 10000, 110000},
		{10000, 10000, 0},
		{0, 10000, 0},
		{50000, 0, 50000},
	}
	for _, tt := range tests {
		if got := ComputeAmountDueCents(tt.base, tt.deposit); got != tt.want {
			t.Errorf("ComputeAmountDueCents(%d, %d) = %d, want %d", tt.base, tt.deposit, got, tt.want)
		}
	}
}

// TestQuote_FourStaffDays reproduces the $300/day with $100 deposit scenario.
func TestQuote_FourStaffDays(t *testing.T) {
	plan := StaffingPlan{"2024-03-01": 2, "2024-03-02": 2}
	b := Quote(plan, DefaultRatePerDayCents, DefaultDepositCents, "")

	if b.TotalStaffDays != 4 {
		t.Errorf("TotalStaffDays = %d, want 4", b.TotalStaffDays)
	}
	if b.BaseTotalCents != 120000 {
		t.Errorf("BaseTotalCents = %d, want 120000", b.BaseTotalCents)
	}
	if b.AmountDueCents != 110000 {
		t.Errorf("AmountDueCents = %d, want 110000", b.AmountDueCents)
	}
	if b.Currency != "usd" {
		t.Errorf("Currency = %q, want usd", b.Currency)
	}
}

// TestDatesNeeded_OrderedAndRoundTrips checks ordering and the inverse conversion.
func TestDatesNeeded_OrderedAndRoundTrips(t *testing.T) {
	plan := StaffingPlan{"2024-05-02": 2, "2024-05-01": 1, "2024-05-03": 0}

	got := DatesNeeded(plan)
	want := []DateNeed{
		{Date: "2024-05-01", StaffCount: 1},
		{Date: "2024-05-02", StaffCount: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DatesNeeded() = %+v, want %+v", got, want)
	}

	back := PlanFromDates(got)
	if ComputeTotalStaffDays(back) != 3 {
		t.Errorf("round trip total = %d, want 3", ComputeTotalStaffDays(back))
	}
	if back["2024-05-02"] != 2 {
		t.Errorf("round trip 2024-05-02 = %d, want 2", back["2024-05-02"])
	}
}

// TestParseStaffingPlan_Coercion covers the loose input rules.
func TestParseStaffingPlan_Coercion(t *testing.T) {
	raw := map[string]any{
		"2024-03-01": float64(2),
		"2024-03-02": "3",
		"2024-03-03": "abc",
		"2024-03-04": nil,
		"2024-03-05": float64(-4),
		"2024-03-06": 2.9,
		"not-a-date": float64(5),
	}
	got := ParseStaffingPlan(raw)
	want := StaffingPlan{"2024-03-01": 2, "2024-03-02": 3, "2024-03-06": 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseStaffingPlan() = %v, want %v", got, want)
	}
}

// TestParseStaffingPlanJSON_Malformed yields an empty plan rather than an error.
func TestParseStaffingPlanJSON_Malformed(t *testing.T) {
	if got := ParseStaffingPlanJSON("{not json"); len(got) != 0 {
		t.Errorf("expected empty plan, got %v", got)
	}
	if got := ParseStaffingPlanJSON(""); len(got) != 0 {
		t.Errorf("expected empty plan, got %v", got)
	}
}

// TestStaffingPlan_EncodeRoundTrip checks the metadata encoding drops empty days.
func TestStaffingPlan_EncodeRoundTrip(t *testing.T) {
	plan := StaffingPlan{"2024-05-01": 1, "2024-05-02": 0}
	encoded := plan.Encode()
	if encoded != `{"2024-05-01":1}` {
		t.Errorf("Encode() = %s", encoded)
	}
	back := ParseStaffingPlanJSON(encoded)
	if !reflect.DeepEqual(back, StaffingPlan{"2024-05-01": 1}) {
		t.Errorf("decoded = %v", back)
	}
}

// TestRates_WithDefaults fills missing values.
func TestRates_WithDefaults(t *testing.T) {
	r := Rates{}.WithDefaults()
	if r != DefaultRates() {
		t.Errorf("WithDefaults() = %+v, want %+v", r, DefaultRates())
	}
	custom := Rates{RatePerDayCents: 25000}.WithDefaults()
	if custom.RatePerDayCents != 25000 || custom.DepositCents != DefaultDepositCents {
		t.Errorf("WithDefaults() = %+v", custom)
	}
}
