// Package recurring serves recurring-definition management and the scheduled
// processing trigger.
package recurring

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"finguide/internal/models"
	"finguide/internal/services/recurrence"
	"finguide/internal/services/store"
)

var (
	st        *store.Store
	processor *recurrence.Processor
	logger    zerolog.Logger
)

// Initialize sets up the recurring package with required dependencies
func Initialize(s *store.Store, p *recurrence.Processor, log zerolog.Logger) {
	st = s
	processor = p
	logger = log
}

// RegisterRoutes registers all recurring routes
func RegisterRoutes(r chi.Router) {
	r.Get("/api/recurring", handleList)
	r.Post("/api/recurring", handleCreate)
	r.Delete("/api/recurring/{id}", handleDelete)
	r.Post("/api/recurring/process", handleProcess)
}

func handleList(w http.ResponseWriter, r *http.Request) {
	snap := st.Snapshot()
	defs := snap.Recurring
	if defs == nil {
		defs = []models.RecurringDefinition{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"recurring": defs,
		"total":     len(defs),
	})
}

// createRequest is the wire shape for defining a recurring transaction
type createRequest struct {
	Kind          models.TransactionType   `json:"kind"`
	Pattern       models.RecurrencePattern `json:"pattern"`
	Amount        float64                  `json:"amount"`
	Description   string                   `json:"description"`
	Category      string                   `json:"category"`
	PaymentMethod string                   `json:"payment_method"`
	Notes         string                   `json:"notes"`
	StartDate     time.Time                `json:"start_date"`
	EndDate       *time.Time               `json:"end_date"`
}

func handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Kind != models.Expense && req.Kind != models.Income {
		http.Error(w, "kind must be expense or income", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		http.Error(w, "amount must be positive", http.StatusBadRequest)
		return
	}
	if req.StartDate.IsZero() {
		http.Error(w, "start_date is required", http.StatusBadRequest)
		return
	}
	if req.EndDate != nil && !req.EndDate.After(req.StartDate) {
		http.Error(w, "end_date must be after start_date", http.StatusBadRequest)
		return
	}
	if err := req.Pattern.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	def := models.RecurringDefinition{
		ID:            uuid.New().String(),
		Kind:          req.Kind,
		Pattern:       req.Pattern,
		Amount:        req.Amount,
		Description:   req.Description,
		Category:      req.Category,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		// The first occurrence is the start date itself
		NextProcessDate: req.StartDate,
	}

	err := st.Update(func(state *store.State) error {
		state.Recurring = append(state.Recurring, def)
		return nil
	})
	if err != nil {
		http.Error(w, "failed to save definition: "+err.Error(), http.StatusInternalServerError)
		return
	}

	logger.Info().
		Str("definition", def.ID).
		Str("kind", string(def.Kind)).
		Str("type", string(def.Pattern.Type)).
		Msg("recurring definition created")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"recurring": def})
}

func handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	found := false
	err := st.Update(func(state *store.State) error {
		found = state.RemoveRecurring(id)
		return nil
	})
	if err != nil {
		http.Error(w, "failed to delete definition: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "definition not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleProcess is the external scheduler's entry point. Processing is
// idempotent under at-least-once delivery: dueness is re-evaluated from
// persisted state, so a retry after a timeout cannot double-realize.
func handleProcess(w http.ResponseWriter, r *http.Request) {
	result := processor.ProcessAll(time.Now())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
