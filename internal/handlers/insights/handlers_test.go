package insights

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"finguide/internal/config"
	"finguide/internal/models"
	"finguide/internal/services/storage"
	"finguide/internal/services/store"
	"finguide/internal/testutil"
)

func setupTestServer(t *testing.T, cfg *config.Config) (*testutil.TestServer, *store.Store) {
	t.Helper()

	dir := t.TempDir()
	backend, err := storage.New(dir)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	s, err := store.Open(filepath.Join(dir, "finguide.json"), backend)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	if cfg == nil {
		cfg = &config.Config{}
	}
	Initialize(s, cfg, zerolog.Nop())

	r := chi.NewRouter()
	RegisterRoutes(r)
	return testutil.NewTestServer(t, r), s
}

func seedMarch2024(t *testing.T, s *store.Store) {
	t.Helper()
	day := func(d int) time.Time {
		return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
	}
	err := s.Update(func(state *store.State) error {
		state.Incomes = append(state.Incomes, models.Transaction{
			ID: "i1", Date: day(1), Amount: 5000, Description: "Salary",
			Category: "Salary", TransactionType: models.Income,
		})
		state.Expenses = append(state.Expenses,
			models.Transaction{ID: "e1", Date: day(3), Amount: 800, Description: "Groceries",
				Category: "Food", TransactionType: models.Expense},
			models.Transaction{ID: "e2", Date: day(5), Amount: 1500, Description: "Rent",
				Category: "Housing", TransactionType: models.Expense},
			// Previous month for trend deltas
			models.Transaction{ID: "e3", Date: time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC),
				Amount: 400, Description: "Groceries", Category: "Food", TransactionType: models.Expense},
		)
		state.Budgets["Food"] = 700
		return nil
	})
	if err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
}

func TestInsightsDeterministic(t *testing.T) {
	ts, s := setupTestServer(t, nil)
	seedMarch2024(t, s)

	resp := ts.GET("/api/insights?month=2024-03")
	var decoded struct {
		Month    string             `json:"month"`
		Insights models.InsightData `json:"insights"`
		Provider string             `json:"llm_provider"`
		LLMError string             `json:"llm_error"`
	}
	testutil.DecodeJSON(t, resp, &decoded)

	if decoded.Month != "2024-03" {
		t.Errorf("month = %q", decoded.Month)
	}
	if decoded.Provider != "" || decoded.LLMError != "" {
		t.Errorf("no provider configured but got provider=%q error=%q", decoded.Provider, decoded.LLMError)
	}
	if want := "This month you earned $5000.00 and spent $2300.00, a savings rate of 54.0%."; decoded.Insights.Summary != want {
		t.Errorf("summary = %q, want %q", decoded.Insights.Summary, want)
	}
	if len(decoded.Insights.BudgetAlerts) != 1 || decoded.Insights.BudgetAlerts[0].Category != "Food" {
		t.Errorf("alerts = %+v, want one Food alert", decoded.Insights.BudgetAlerts)
	}
	// Food doubled against February
	if len(decoded.Insights.MonthOverMonth.Changes) != 1 {
		t.Fatalf("changes = %+v", decoded.Insights.MonthOverMonth.Changes)
	}
	if got := decoded.Insights.MonthOverMonth.Changes[0].PercentageChange; got != 100 {
		t.Errorf("Food change = %.1f, want 100", got)
	}
}

func TestInsightsInvalidMonth(t *testing.T) {
	ts, _ := setupTestServer(t, nil)

	testutil.AssertResponse(t, ts.GET("/api/insights?month=March")).
		Status(400).
		Contains("invalid month")
}

func TestInsightsEmptyStore(t *testing.T) {
	ts, _ := setupTestServer(t, nil)

	testutil.AssertResponse(t, ts.GET("/api/insights?month=2024-03")).
		StatusOK().
		ContentTypeJSON().
		Contains("savings rate of 0.0%")
}

func TestInsightsLLMEnrichment(t *testing.T) {
	llmSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"model":    "llama3",
			"response": `{"commentary": ["Strong savings this month"], "tips": ["Consider investing the surplus"]}`,
			"done":     true,
		})
	}))
	defer llmSrv.Close()

	ts, s := setupTestServer(t, &config.Config{
		LLMProvider: "ollama",
		LLMBaseURL:  llmSrv.URL,
	})
	seedMarch2024(t, s)

	resp := ts.GET("/api/insights?month=2024-03")
	var decoded struct {
		Insights models.InsightData `json:"insights"`
		Provider string             `json:"llm_provider"`
		LLMError string             `json:"llm_error"`
	}
	testutil.DecodeJSON(t, resp, &decoded)

	if decoded.Provider != "ollama" {
		t.Errorf("provider = %q", decoded.Provider)
	}
	if decoded.LLMError != "" {
		t.Fatalf("enrichment failed: %s", decoded.LLMError)
	}
	if len(decoded.Insights.Commentary) != 1 || decoded.Insights.Commentary[0] != "Strong savings this month" {
		t.Errorf("commentary = %v", decoded.Insights.Commentary)
	}
	if len(decoded.Insights.Tips) != 1 {
		t.Errorf("tips = %v", decoded.Insights.Tips)
	}
	// The deterministic baseline survives enrichment.
	if decoded.Insights.Summary == "" || len(decoded.Insights.BudgetAlerts) != 1 {
		t.Error("deterministic fields lost during enrichment")
	}
}

func TestInsightsHeaderOverridesProvider(t *testing.T) {
	llmSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"response": `{"commentary": ["ok"], "tips": []}`,
			"done":     true,
		})
	}))
	defer llmSrv.Close()

	// No provider in config; the request selects one per call.
	ts, s := setupTestServer(t, &config.Config{})
	seedMarch2024(t, s)

	cfgBlob, _ := json.Marshal(map[string]string{"base_url": llmSrv.URL})
	resp := ts.Do("GET", "/api/insights?month=2024-03", nil, map[string]string{
		"X-LLM-Provider": "ollama",
		"X-LLM-Config":   string(cfgBlob),
	})

	var decoded struct {
		Insights models.InsightData `json:"insights"`
		Provider string             `json:"llm_provider"`
		LLMError string             `json:"llm_error"`
	}
	testutil.DecodeJSON(t, resp, &decoded)

	if decoded.Provider != "ollama" {
		t.Errorf("provider = %q", decoded.Provider)
	}
	if decoded.LLMError != "" {
		t.Fatalf("enrichment failed: %s", decoded.LLMError)
	}
	if len(decoded.Insights.Commentary) != 1 {
		t.Errorf("commentary = %v", decoded.Insights.Commentary)
	}
}

func TestInsightsLLMFailureFallsBack(t *testing.T) {
	// Nothing listens on the reserved port.
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	ts, s := setupTestServer(t, &config.Config{
		LLMProvider: "ollama",
		LLMBaseURL:  deadURL,
	})
	seedMarch2024(t, s)

	resp := ts.GET("/api/insights?month=2024-03")
	var decoded struct {
		Insights models.InsightData `json:"insights"`
		LLMError string             `json:"llm_error"`
	}
	testutil.DecodeJSON(t, resp, &decoded)

	if decoded.LLMError != "ollama is unreachable - is it running?" {
		t.Errorf("llm_error = %q", decoded.LLMError)
	}
	// Deterministic insights still served despite the failure.
	if decoded.Insights.Summary == "" {
		t.Error("deterministic summary missing")
	}
	if decoded.Insights.Commentary == nil || len(decoded.Insights.Commentary) != 0 {
		t.Errorf("commentary = %v, want empty baseline", decoded.Insights.Commentary)
	}
}

func TestInsightsMissingCredentials(t *testing.T) {
	ts, s := setupTestServer(t, &config.Config{LLMProvider: "openai"})
	seedMarch2024(t, s)

	resp := ts.GET("/api/insights?month=2024-03")
	var decoded struct {
		LLMError string `json:"llm_error"`
	}
	testutil.DecodeJSON(t, resp, &decoded)

	if decoded.LLMError != "provider openai requires an API key" {
		t.Errorf("llm_error = %q", decoded.LLMError)
	}
}

func TestBudgetsRoundTrip(t *testing.T) {
	ts, s := setupTestServer(t, nil)

	testutil.AssertResponse(t, ts.GET("/api/budgets")).
		StatusOK().
		Contains(`"monthly_budget":0`)

	payload := map[string]interface{}{
		"monthly_budget": 4000,
		"categories":     map[string]float64{"Food": 700, "Housing": 2000},
	}
	testutil.AssertResponse(t, ts.PutJSON("/api/budgets", payload)).
		Status(204)

	snap := s.Snapshot()
	if snap.MonthlyBudget != 4000 || snap.Budgets["Food"] != 700 {
		t.Errorf("budgets not persisted: %+v / %v", snap.Budgets, snap.MonthlyBudget)
	}

	testutil.AssertResponse(t, ts.GET("/api/budgets")).
		StatusOK().
		Contains(`"monthly_budget":4000`).
		Contains(`"Food":700`)
}

func TestBudgetsValidation(t *testing.T) {
	ts, _ := setupTestServer(t, nil)

	testutil.AssertResponse(t, ts.PutJSON("/api/budgets", map[string]interface{}{
		"monthly_budget": -1,
	})).Status(400).Contains("must not be negative")

	testutil.AssertResponse(t, ts.PutJSON("/api/budgets", map[string]interface{}{
		"categories": map[string]float64{"Food": -5},
	})).Status(400).Contains("Food")
}
