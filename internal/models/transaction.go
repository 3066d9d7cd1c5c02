package models

import (
	"sort"
	"strings"
	"time"
)

// TransactionType indicates whether a transaction is an expense or income
type TransactionType string

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

// Transaction represents a single realized expense or income
type Transaction struct {
	ID              string          `json:"id"`
	Date            time.Time       `json:"date"`
	Amount          float64         `json:"amount"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	TransactionType TransactionType `json:"transaction_type"`

	// Set when the transaction was realized from a recurring definition
	RecurringID string `json:"recurring_id,omitempty"`
}

// Month returns the transaction's month key, e.g. "2024-01"
func (t *Transaction) Month() string {
	return t.Date.Format("2006-01")
}

// TransactionSet wraps a slice with filtering/aggregation methods
type TransactionSet struct {
	Transactions []Transaction
}

// NewTransactionSet creates a new TransactionSet from a slice
func NewTransactionSet(transactions []Transaction) *TransactionSet {
	return &TransactionSet{Transactions: transactions}
}

// Len returns the number of transactions
func (ts *TransactionSet) Len() int {
	return len(ts.Transactions)
}

// FilterByType returns transactions of the specified type
func (ts *TransactionSet) FilterByType(tt TransactionType) *TransactionSet {
	result := &TransactionSet{}
	for _, t := range ts.Transactions {
		if t.TransactionType == tt {
			result.Transactions = append(result.Transactions, t)
		}
	}
	return result
}

// FilterByMonth returns transactions whose date falls in the given month key ("2006-01")
func (ts *TransactionSet) FilterByMonth(month string) *TransactionSet {
	result := &TransactionSet{}
	for _, t := range ts.Transactions {
		if t.Date.Format("2006-01") == month {
			result.Transactions = append(result.Transactions, t)
		}
	}
	return result
}

// FilterByDateRange returns transactions within the date range (inclusive)
func (ts *TransactionSet) FilterByDateRange(start, end time.Time) *TransactionSet {
	result := &TransactionSet{}
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 999999999, end.Location())

	for _, t := range ts.Transactions {
		if !t.Date.Before(startDay) && !t.Date.After(endDay) {
			result.Transactions = append(result.Transactions, t)
		}
	}
	return result
}

// FilterByCategory returns transactions matching the category
func (ts *TransactionSet) FilterByCategory(category string) *TransactionSet {
	result := &TransactionSet{}
	catLower := strings.ToLower(category)
	for _, t := range ts.Transactions {
		if strings.ToLower(t.Category) == catLower {
			result.Transactions = append(result.Transactions, t)
		}
	}
	return result
}

// SumAmount returns the sum of all transaction amounts
func (ts *TransactionSet) SumAmount() float64 {
	var sum float64
	for _, t := range ts.Transactions {
		sum += t.Amount
	}
	return sum
}

// CategoryTotals returns a map of category -> total amount
func (ts *TransactionSet) CategoryTotals() map[string]float64 {
	result := make(map[string]float64)
	for _, t := range ts.Transactions {
		cat := t.Category
		if cat == "" {
			cat = "Uncategorized"
		}
		result[cat] += t.Amount
	}
	return result
}

// Categories returns a sorted list of unique categories
func (ts *TransactionSet) Categories() []string {
	catMap := make(map[string]bool)
	for _, t := range ts.Transactions {
		cat := t.Category
		if cat == "" {
			cat = "Uncategorized"
		}
		catMap[cat] = true
	}

	cats := make([]string, 0, len(catMap))
	for cat := range catMap {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	return cats
}

// SortByDate sorts transactions by date (ascending)
func (ts *TransactionSet) SortByDate() *TransactionSet {
	sorted := make([]Transaction, len(ts.Transactions))
	copy(sorted, ts.Transactions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return &TransactionSet{Transactions: sorted}
}
