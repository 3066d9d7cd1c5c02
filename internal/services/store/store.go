// Package store persists application state (transactions, recurring
// definitions, budgets) as a single JSON document behind the encrypted
// storage layer. Mutations go through Update, which commits the whole
// document atomically: either the persisted file and the in-memory state
// both advance, or neither does.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"finguide/internal/models"
	"finguide/internal/services/storage"
)

// State is the full persisted document
type State struct {
	Expenses  []models.Transaction         `json:"expenses"`
	Incomes   []models.Transaction         `json:"incomes"`
	Recurring []models.RecurringDefinition `json:"recurring"`

	// Budgets maps expense category -> monthly limit
	Budgets       map[string]float64 `json:"budgets"`
	MonthlyBudget float64            `json:"monthly_budget"`
}

// clone returns a deep copy of the state
func (s *State) clone() *State {
	out := &State{
		Expenses:      append([]models.Transaction(nil), s.Expenses...),
		Incomes:       append([]models.Transaction(nil), s.Incomes...),
		Recurring:     append([]models.RecurringDefinition(nil), s.Recurring...),
		Budgets:       make(map[string]float64, len(s.Budgets)),
		MonthlyBudget: s.MonthlyBudget,
	}
	for k, v := range s.Budgets {
		out.Budgets[k] = v
	}
	return out
}

// Store owns the in-memory state and its persistence
type Store struct {
	path    string
	backend *storage.Storage
	mu      sync.RWMutex
	state   *State
}

// Open loads the state file (creating an empty state if absent)
func Open(path string, backend *storage.Storage) (*Store, error) {
	st := &Store{
		path:    path,
		backend: backend,
		state:   &State{Budgets: make(map[string]float64)},
	}

	data, err := backend.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	if err := json.Unmarshal(data, st.state); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	if st.state.Budgets == nil {
		st.state.Budgets = make(map[string]float64)
	}

	return st, nil
}

// Snapshot returns a deep copy of the current state for readers
func (s *Store) Snapshot() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Update applies fn to a copy of the state and commits it. If fn returns an
// error or persistence fails, the in-memory state is left untouched, so a
// failed mutation is never partially visible.
func (s *Store) Update(fn func(*State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	if err := fn(next); err != nil {
		return err
	}

	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := s.backend.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to persist state: %w", err)
	}

	s.state = next
	return nil
}

// Transactions returns all expenses and incomes as one set
func (s *Store) Transactions() *models.TransactionSet {
	snap := s.Snapshot()
	all := make([]models.Transaction, 0, len(snap.Expenses)+len(snap.Incomes))
	all = append(all, snap.Expenses...)
	all = append(all, snap.Incomes...)
	return models.NewTransactionSet(all)
}

// ActiveRecurring returns recurring definitions whose end date is unset or
// still in the future relative to now.
func (s *Store) ActiveRecurring(now time.Time) []models.RecurringDefinition {
	snap := s.Snapshot()
	var active []models.RecurringDefinition
	for _, d := range snap.Recurring {
		if d.Active(now) {
			active = append(active, d)
		}
	}
	return active
}

// AppendTransaction adds a realized transaction to the matching list
func (st *State) AppendTransaction(t models.Transaction) {
	switch t.TransactionType {
	case models.Income:
		st.Incomes = append(st.Incomes, t)
	default:
		st.Expenses = append(st.Expenses, t)
	}
}

// FindRecurring returns a pointer into the state's recurring slice, or nil
func (st *State) FindRecurring(id string) *models.RecurringDefinition {
	for i := range st.Recurring {
		if st.Recurring[i].ID == id {
			return &st.Recurring[i]
		}
	}
	return nil
}

// RemoveRecurring deletes a definition by id; returns false if not found
func (st *State) RemoveRecurring(id string) bool {
	for i := range st.Recurring {
		if st.Recurring[i].ID == id {
			st.Recurring = append(st.Recurring[:i], st.Recurring[i+1:]...)
			return true
		}
	}
	return false
}
