// Package insights serves the insights endpoint: deterministic aggregation
// always, LLM commentary when a provider is configured and reachable.
package insights

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"finguide/internal/config"
	"finguide/internal/models"
	insightsvc "finguide/internal/services/insights"
	"finguide/internal/services/llm"
	"finguide/internal/services/store"
)

var (
	st     *store.Store
	cfg    *config.Config
	logger zerolog.Logger
	audit  llm.CallRecorder
)

// Initialize sets up the insights package with required dependencies
func Initialize(s *store.Store, c *config.Config, log zerolog.Logger) {
	st = s
	cfg = c
	logger = log
	audit = llm.NewLogRecorder(log)
}

// RegisterRoutes registers all insights routes
func RegisterRoutes(r chi.Router) {
	r.Get("/api/insights", handleInsights)
	r.Get("/api/budgets", handleGetBudgets)
	r.Put("/api/budgets", handleSetBudgets)
}

// insightsResponse wraps the computed insights with LLM status for the client
type insightsResponse struct {
	Month    string             `json:"month"`
	Insights models.InsightData `json:"insights"`
	Provider string             `json:"llm_provider,omitempty"`
	LLMError string             `json:"llm_error,omitempty"`
}

func handleInsights(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}
	if _, err := time.Parse("2006-01", month); err != nil {
		http.Error(w, "invalid month, expected YYYY-MM", http.StatusBadRequest)
		return
	}

	data := buildTransactionData(month)

	// The deterministic baseline is computed unconditionally; a provider can
	// only enrich it, never replace it.
	result := insightsvc.Compute(data)

	resp := insightsResponse{Month: month, Insights: result}

	providerName := r.Header.Get("X-LLM-Provider")
	if providerName == "" {
		providerName = cfg.LLMProvider
	}
	if providerName != "" {
		resp.Provider = providerName
		commentary, err := enrich(r, providerName, data)
		if err != nil {
			resp.LLMError = userFacingLLMError(providerName, err)
			logger.Warn().Err(err).Str("provider", providerName).Msg("llm enrichment failed")
		} else {
			resp.Insights.Commentary = commentary.Commentary
			resp.Insights.Tips = commentary.Tips
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// enrich builds a provider from config plus request headers and asks it for
// commentary. The optional X-LLM-Config header carries a JSON config blob;
// a malformed blob is ignored, not fatal.
func enrich(r *http.Request, providerName string, data models.TransactionData) (models.InsightCommentary, error) {
	llmCfg := llm.Config{
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
		BaseURL: cfg.LLMBaseURL,
	}
	if key := r.Header.Get("X-LLM-API-Key"); key != "" {
		llmCfg.APIKey = key
	}
	if blob := r.Header.Get("X-LLM-Config"); blob != "" {
		// Unmarshal over the defaults so only supplied fields override
		_ = json.Unmarshal([]byte(blob), &llmCfg)
	}

	provider, err := llm.New(providerName, llm.ModeInsights, llmCfg, audit)
	if err != nil {
		return models.InsightCommentary{}, err
	}
	return provider.Analyze(r.Context(), data)
}

// userFacingLLMError maps the error taxonomy onto messages the UI can show
func userFacingLLMError(providerName string, err error) string {
	var transport *llm.TransportError
	if errors.As(err, &transport) {
		if transport.ConnectionRefused {
			return providerName + " is unreachable - is it running?"
		}
		if transport.IsAuth() {
			return providerName + " rejected the API key"
		}
		return providerName + " request failed"
	}
	var parse *llm.ParseError
	if errors.As(err, &parse) {
		return providerName + " returned output that could not be understood"
	}
	var capability *llm.CapabilityError
	if errors.As(err, &capability) {
		return capability.Error()
	}
	var credential *llm.CredentialError
	if errors.As(err, &credential) {
		return credential.Error()
	}
	return "insights enrichment unavailable"
}

// buildTransactionData aggregates one month of stored transactions, with the
// prior month attached for trend deltas.
func buildTransactionData(month string) models.TransactionData {
	snap := st.Snapshot()
	all := st.Transactions()

	data := monthAggregate(all, month, snap.Budgets)
	data.MonthlyBudget = snap.MonthlyBudget

	monthStart, _ := time.Parse("2006-01", month)
	prevMonth := monthStart.AddDate(0, -1, 0).Format("2006-01")
	prev := monthAggregate(all, prevMonth, snap.Budgets)
	if len(prev.Categories) > 0 {
		data.PreviousMonth = &prev
	}

	return data
}

// monthAggregate rolls one month's transactions into category summaries
func monthAggregate(all *models.TransactionSet, month string, budgets map[string]float64) models.TransactionData {
	monthSet := all.FilterByMonth(month)
	expenses := monthSet.FilterByType(models.Expense)
	incomes := monthSet.FilterByType(models.Income)

	data := models.TransactionData{
		TotalIncome:   incomes.SumAmount(),
		TotalExpenses: expenses.SumAmount(),
		Categories:    []models.CategorySummary{},
	}

	expenseTotals := expenses.CategoryTotals()
	for _, name := range expenses.Categories() {
		summary := models.CategorySummary{
			Name:        name,
			TotalAmount: expenseTotals[name],
			Type:        models.Expense,
		}
		if budget, ok := budgets[name]; ok && budget > 0 {
			b := budget
			summary.Budget = &b
		}
		data.Categories = append(data.Categories, summary)
	}

	incomeTotals := incomes.CategoryTotals()
	for _, name := range incomes.Categories() {
		data.Categories = append(data.Categories, models.CategorySummary{
			Name:        name,
			TotalAmount: incomeTotals[name],
			Type:        models.Income,
		})
	}

	return data
}

// budgetsPayload is the wire shape for reading and writing budgets
type budgetsPayload struct {
	MonthlyBudget float64            `json:"monthly_budget"`
	Categories    map[string]float64 `json:"categories"`
}

func handleGetBudgets(w http.ResponseWriter, r *http.Request) {
	snap := st.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(budgetsPayload{
		MonthlyBudget: snap.MonthlyBudget,
		Categories:    snap.Budgets,
	})
}

func handleSetBudgets(w http.ResponseWriter, r *http.Request) {
	var payload budgetsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid budgets payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if payload.MonthlyBudget < 0 {
		http.Error(w, "monthly_budget must not be negative", http.StatusBadRequest)
		return
	}
	for name, limit := range payload.Categories {
		if limit < 0 {
			http.Error(w, "budget for "+name+" must not be negative", http.StatusBadRequest)
			return
		}
	}

	err := st.Update(func(state *store.State) error {
		state.MonthlyBudget = payload.MonthlyBudget
		if payload.Categories != nil {
			state.Budgets = payload.Categories
		}
		return nil
	})
	if err != nil {
		http.Error(w, "failed to save budgets: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
