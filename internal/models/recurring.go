package models

import (
	"fmt"
	"time"
)

// RecurrenceType is the cadence of a recurring definition
type RecurrenceType string

const (
	Daily   RecurrenceType = "DAILY"
	Weekly  RecurrenceType = "WEEKLY"
	Monthly RecurrenceType = "MONTHLY"
	Yearly  RecurrenceType = "YEARLY"
)

// RecurrencePattern describes when a recurring definition produces occurrences.
// Optional anchors are pointers so "unset" is distinguishable from zero.
type RecurrencePattern struct {
	Type        RecurrenceType `json:"type"`
	Frequency   int            `json:"frequency"`               // step count, > 0
	DayOfMonth  *int           `json:"day_of_month,omitempty"`  // 1-31
	DayOfWeek   *int           `json:"day_of_week,omitempty"`   // 0 = Sunday
	MonthOfYear *int           `json:"month_of_year,omitempty"` // 1-12
}

// Validate checks pattern fields against their allowed ranges
func (p *RecurrencePattern) Validate() error {
	switch p.Type {
	case Daily, Weekly, Monthly, Yearly:
	default:
		return fmt.Errorf("unknown recurrence type %q", p.Type)
	}
	if p.Frequency <= 0 {
		return fmt.Errorf("frequency must be positive, got %d", p.Frequency)
	}
	if p.DayOfMonth != nil && (*p.DayOfMonth < 1 || *p.DayOfMonth > 31) {
		return fmt.Errorf("day_of_month out of range: %d", *p.DayOfMonth)
	}
	if p.DayOfWeek != nil && (*p.DayOfWeek < 0 || *p.DayOfWeek > 6) {
		return fmt.Errorf("day_of_week out of range: %d", *p.DayOfWeek)
	}
	if p.MonthOfYear != nil && (*p.MonthOfYear < 1 || *p.MonthOfYear > 12) {
		return fmt.Errorf("month_of_year out of range: %d", *p.MonthOfYear)
	}
	return nil
}

// RecurringDefinition links a template transaction to a recurrence schedule.
// NextProcessDate only ever moves forward; LastProcessed trails it by exactly
// one occurrence once the definition has been processed at least once.
type RecurringDefinition struct {
	ID      string            `json:"id"`
	Kind    TransactionType   `json:"kind"`
	Pattern RecurrencePattern `json:"pattern"`

	// Template fields copied onto each realized transaction
	Amount        float64 `json:"amount"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	PaymentMethod string  `json:"payment_method,omitempty"`
	Notes         string  `json:"notes,omitempty"`

	StartDate       time.Time  `json:"start_date"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	LastProcessed   *time.Time `json:"last_processed,omitempty"`
	NextProcessDate time.Time  `json:"next_process_date"`
}

// Active reports whether the definition is still eligible for processing:
// it has no end date, or the end date has not yet passed.
func (d *RecurringDefinition) Active(now time.Time) bool {
	return d.EndDate == nil || d.EndDate.After(now)
}

// Realize builds the concrete transaction for the definition's current
// NextProcessDate. The caller assigns the ID.
func (d *RecurringDefinition) Realize() Transaction {
	return Transaction{
		Date:            d.NextProcessDate,
		Amount:          d.Amount,
		Description:     d.Description,
		Category:        d.Category,
		PaymentMethod:   d.PaymentMethod,
		Notes:           d.Notes,
		TransactionType: d.Kind,
		RecurringID:     d.ID,
	}
}
