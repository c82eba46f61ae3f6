package pricing

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used for staffing plan keys.
const DateLayout = "2006-01-02"

// Default monetary constants, in cents.
const (
	DefaultRatePerDayCents int64 = 30000 // $300.00 per staff-day
	DefaultDepositCents    int64 = 10000 // $100.00 booking deposit
	DefaultCurrency              = "usd"
)

// StaffingPlan maps an ISO date to the number of staff needed on that day.
// A date with a count of 0 is equivalent to the date being absent.
type StaffingPlan map[string]int

// DateNeed is one entry of a booking's persisted staffing schedule.
type DateNeed struct {
	Date       string `json:"date" bson:"date"`
	StaffCount int    `json:"staffCount" bson:"staffCount"`
}

// Rates holds the pricing constants in force for a booking.
type Rates struct {
	RatePerDayCents int64
	DepositCents    int64
}

// DefaultRates returns the standard agency rates.
func DefaultRates() Rates {
	return Rates{RatePerDayCents: DefaultRatePerDayCents, DepositCents: DefaultDepositCents}
}

// WithDefaults fills zero or negative fields with the standard rates.
// PRE: none
// POST: Returns rates with positive RatePerDayCents and DepositCents
func (r Rates) WithDefaults() Rates {
	if r.RatePerDayCents <= 0 {
		r.RatePerDayCents = DefaultRatePerDayCents
	}
	if r.DepositCents <= 0 {
		r.DepositCents = DefaultDepositCents
	}
	return r
}

// Breakdown is the billable summary of a staffing plan.
type Breakdown struct {
	TotalStaffDays  int    `json:"totalStaffDays"`
	RatePerDayCents int64  `json:"ratePerDayCents"`
	BaseTotalCents  int64  `json:"baseTotalCents"`
	DepositCents    int64  `json:"depositCents"`
	AmountDueCents  int64  `json:"amountDueCents"`
	Currency        string `json:"currency"`
}

// ComputeTotalStaffDays sums the staff counts across all dates.
// Negative counts are floored at zero.
// PRE: none
// POST: Returns a non-negative total
func ComputeTotalStaffDays(plan StaffingPlan) int {
	total := 0
	for _, count := range plan {
		if count > 0 {
			total += count
		}
	}
	return total
}

// ComputeBaseTotalCents returns the undiscounted cost of the staff-days.
// PRE: totalStaffDays >= 0, ratePerDayCents >= 0
// POST: Returns totalStaffDays * ratePerDayCents
func ComputeBaseTotalCents(totalStaffDays int, ratePerDayCents int64) int64 {
	if totalStaffDays <= 0 || ratePerDayCents <= 0 {
		return 0
	}
	return int64(totalStaffDays) * ratePerDayCents
}

// ComputeAmountDueCents returns the balance owed after the deposit.
// PRE: none
// POST: Returns max(baseTotalCents - depositCents, 0)
func ComputeAmountDueCents(baseTotalCents, depositCents int64) int64 {
	due := baseTotalCents - depositCents
	if due < 0 {
		return 0
	}
	return due
}

// Quote computes the full breakdown for a plan at the given rate and deposit.
// PRE: none
// POST: AmountDueCents is never negative
func Quote(plan StaffingPlan, ratePerDayCents, depositCents int64, currency string) Breakdown {
	days := ComputeTotalStaffDays(plan)
	base := ComputeBaseTotalCents(days, ratePerDayCents)
	if currency == "" {
		currency = DefaultCurrency
	}
	return Breakdown{
		TotalStaffDays:  days,
		RatePerDayCents: ratePerDayCents,
		BaseTotalCents:  base,
		DepositCents:    depositCents,
		AmountDueCents:  ComputeAmountDueCents(base, depositCents),
		Currency:        currency,
	}
}

// DatesNeeded converts a plan into an ordered schedule, ascending by date.
// Zero and negative days are omitted.
func DatesNeeded(plan StaffingPlan) []DateNeed {
	dates := make([]string, 0, len(plan))
	for date, count := range plan {
		if count > 0 {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)

	needs := make([]DateNeed, 0, len(dates))
	for _, d := range dates {
		needs = append(needs, DateNeed{Date: d, StaffCount: plan[d]})
	}
	return needs
}

// PlanFromDates rebuilds a plan from a persisted schedule.
// Duplicate dates are summed; negative counts are dropped.
func PlanFromDates(needs []DateNeed) StaffingPlan {
	plan := make(StaffingPlan, len(needs))
	for _, n := range needs {
		if n.StaffCount > 0 {
			plan[n.Date] += n.StaffCount
		}
	}
	return plan
}

// ParseStaffingPlan coerces loosely typed input into a plan.
// Numbers are truncated, numeric strings are parsed, anything else counts as 0.
// Keys that are not ISO dates are dropped.
// PRE: none
// POST: Returned plan contains only valid dates with positive counts
func ParseStaffingPlan(raw map[string]any) StaffingPlan {
	plan := make(StaffingPlan, len(raw))
	for key, v := range raw {
		date := strings.TrimSpace(key)
		if _, err := time.Parse(DateLayout, date); err != nil {
			continue
		}
		if n := coerceCount(v); n > 0 {
			plan[date] = n
		}
	}
	return plan
}

// ParseStaffingPlanJSON decodes a JSON object such as the checkout metadata's staffByDate.
// Malformed JSON yields an empty plan.
func ParseStaffingPlanJSON(data string) StaffingPlan {
	if strings.TrimSpace(data) == "" {
		return StaffingPlan{}
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return StaffingPlan{}
	}
	return ParseStaffingPlan(raw)
}

// Encode returns the plan as a JSON object, omitting empty days.
func (p StaffingPlan) Encode() string {
	clean := make(map[string]int, len(p))
	for d, c := range p {
		if c > 0 {
			clean[d] = c
		}
	}
	b, _ := json.Marshal(clean)
	return string(b)
}

func coerceCount(v any) int {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
			return 0
		}
		if n > math.MaxInt32 {
			return math.MaxInt32
		}
		return int(n)
	case int:
		if n < 0 {
			return 0
		}
		return n
	case int64:
		if n < 0 {
			return 0
		}
		return int(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return coerceCount(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return coerceCount(f)
	default:
		return 0
	}
}
