package insights

import (
	"strings"
	"testing"

	"finguide/internal/models"
)

func budgetPtr(v float64) *float64 { return &v }

func sampleMonth() models.TransactionData {
	return models.TransactionData{
		TotalIncome:   5000,
		TotalExpenses: 4500,
		Categories: []models.CategorySummary{
			{Name: "Food", TotalAmount: 800, Type: models.Expense, Budget: budgetPtr(700)},
			{Name: "Housing", TotalAmount: 1500, Type: models.Expense, Budget: budgetPtr(2000)},
			{Name: "Transport", TotalAmount: 300, Type: models.Expense},
			{Name: "Salary", TotalAmount: 5000, Type: models.Income},
		},
	}
}

func TestComputeSummary(t *testing.T) {
	result := Compute(sampleMonth())

	want := "This month you earned $5000.00 and spent $4500.00, a savings rate of 10.0%."
	if result.Summary != want {
		t.Errorf("summary = %q, want %q", result.Summary, want)
	}
}

func TestComputeSummaryZeroIncome(t *testing.T) {
	result := Compute(models.TransactionData{TotalExpenses: 100})

	if !strings.Contains(result.Summary, "savings rate of 0.0%") {
		t.Errorf("zero income summary should report 0%% savings rate, got %q", result.Summary)
	}
}

func TestComputeBudgetAlerts(t *testing.T) {
	tests := []struct {
		name         string
		spent        float64
		wantSeverity models.AlertSeverity
		wantAlert    bool
	}{
		{"under 80 percent", 500, "", false},
		{"exactly 80 percent warns", 560, models.SeverityLow, true},
		{"over 100 percent alerts", 750, models.SeverityMedium, true},
		{"over 120 percent escalates", 900, models.SeverityHigh, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := models.TransactionData{
				TotalIncome:   5000,
				TotalExpenses: tt.spent,
				Categories: []models.CategorySummary{
					{Name: "Food", TotalAmount: tt.spent, Type: models.Expense, Budget: budgetPtr(700)},
				},
			}
			result := Compute(data)

			if !tt.wantAlert {
				if len(result.BudgetAlerts) != 0 {
					t.Fatalf("expected no alerts, got %+v", result.BudgetAlerts)
				}
				return
			}
			if len(result.BudgetAlerts) != 1 {
				t.Fatalf("expected 1 alert, got %d", len(result.BudgetAlerts))
			}
			if result.BudgetAlerts[0].Severity != tt.wantSeverity {
				t.Errorf("severity = %q, want %q", result.BudgetAlerts[0].Severity, tt.wantSeverity)
			}
		})
	}
}

func TestComputeBudgetAlertPercentage(t *testing.T) {
	result := Compute(sampleMonth())

	var food *models.BudgetAlert
	for i := range result.BudgetAlerts {
		if result.BudgetAlerts[i].Category == "Food" {
			food = &result.BudgetAlerts[i]
		}
	}
	if food == nil {
		t.Fatal("no alert for Food")
	}
	if food.Severity != models.SeverityMedium {
		t.Errorf("severity = %q, want medium", food.Severity)
	}
	if food.Percentage < 114.2 || food.Percentage > 114.3 {
		t.Errorf("percentage = %.2f, want ~114.29", food.Percentage)
	}
}

func TestComputeBudgetAlertsOrdering(t *testing.T) {
	data := models.TransactionData{
		TotalIncome:   5000,
		TotalExpenses: 4900,
		MonthlyBudget: 4000,
		Categories: []models.CategorySummary{
			{Name: "Food", TotalAmount: 600, Type: models.Expense, Budget: budgetPtr(700)},
			{Name: "Fun", TotalAmount: 900, Type: models.Expense, Budget: budgetPtr(500)},
		},
	}
	result := Compute(data)

	// Overall (4900/4000 = 122.5%, high) and Fun (180%, high) outrank the
	// low Food warning, with Overall first among the highs.
	if len(result.BudgetAlerts) != 3 {
		t.Fatalf("expected 3 alerts, got %d: %+v", len(result.BudgetAlerts), result.BudgetAlerts)
	}
	if result.BudgetAlerts[0].Category != "Overall" {
		t.Errorf("first alert = %q, want Overall", result.BudgetAlerts[0].Category)
	}
	if result.BudgetAlerts[1].Category != "Fun" {
		t.Errorf("second alert = %q, want Fun", result.BudgetAlerts[1].Category)
	}
	if result.BudgetAlerts[2].Severity != models.SeverityLow {
		t.Errorf("last alert severity = %q, want low", result.BudgetAlerts[2].Severity)
	}
}

func TestComputeMonthOverMonth(t *testing.T) {
	data := sampleMonth()
	data.PreviousMonth = &models.TransactionData{
		Categories: []models.CategorySummary{
			{Name: "Food", TotalAmount: 400, Type: models.Expense},
			{Name: "Housing", TotalAmount: 1500, Type: models.Expense},
			{Name: "Transport", TotalAmount: 400, Type: models.Expense},
		},
	}

	result := Compute(data)
	changes := result.MonthOverMonth.Changes

	// Housing is unchanged and must be filtered; Food +100% outranks
	// Transport -25%.
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d: %+v", len(changes), changes)
	}
	if changes[0].Category != "Food" || changes[0].PercentageChange != 100 {
		t.Errorf("first change = %+v, want Food +100%%", changes[0])
	}
	if changes[1].Category != "Transport" || changes[1].PercentageChange != -25 {
		t.Errorf("second change = %+v, want Transport -25%%", changes[1])
	}

	if len(result.MonthOverMonth.Insights) != 2 {
		t.Fatalf("expected 2 insights, got %d", len(result.MonthOverMonth.Insights))
	}
	if want := "Food is up 100.0% from last month ($800.00 vs $400.00)"; result.MonthOverMonth.Insights[0] != want {
		t.Errorf("insight = %q, want %q", result.MonthOverMonth.Insights[0], want)
	}
	if !strings.Contains(result.MonthOverMonth.Insights[1], "Transport is down 25.0%") {
		t.Errorf("insight = %q, want Transport down", result.MonthOverMonth.Insights[1])
	}
}

func TestComputeMonthOverMonthNoPrevious(t *testing.T) {
	result := Compute(sampleMonth())

	if result.MonthOverMonth.Changes == nil || result.MonthOverMonth.Insights == nil {
		t.Fatal("month-over-month slices must be non-nil")
	}
	if len(result.MonthOverMonth.Changes) != 0 {
		t.Errorf("expected no changes without previous month, got %+v", result.MonthOverMonth.Changes)
	}
}

func TestComputeCategoryAnalysis(t *testing.T) {
	result := Compute(sampleMonth())

	// Income categories are excluded.
	if len(result.CategoryAnalysis) != 3 {
		t.Fatalf("expected 3 expense categories, got %d", len(result.CategoryAnalysis))
	}
	for _, a := range result.CategoryAnalysis {
		if a.Name == "Salary" {
			t.Fatal("income category leaked into analysis")
		}
	}

	var housing models.CategoryAnalysis
	for _, a := range result.CategoryAnalysis {
		if a.Name == "Housing" {
			housing = a
		}
	}
	want := 1500.0 / 4500.0 * 100
	if housing.Percentage < want-0.01 || housing.Percentage > want+0.01 {
		t.Errorf("Housing percentage = %.2f, want %.2f", housing.Percentage, want)
	}
}

func TestComputeCategoryAnalysisZeroExpenses(t *testing.T) {
	result := Compute(models.TransactionData{TotalIncome: 1000})

	if result.CategoryAnalysis == nil {
		t.Fatal("analysis must be non-nil")
	}
	if len(result.CategoryAnalysis) != 0 {
		t.Errorf("expected empty analysis with zero expenses")
	}
}

func TestComputeSavingsGoal(t *testing.T) {
	result := Compute(sampleMonth())

	var savings *models.Goal
	for i := range result.Goals {
		if result.Goals[i].Type == models.GoalSavings {
			savings = &result.Goals[i]
		}
	}
	if savings == nil {
		t.Fatal("expected a savings goal at 10% savings rate")
	}
	if savings.Target != 1000 {
		t.Errorf("target = %.2f, want 1000 (20%% of income)", savings.Target)
	}
	if savings.Current != 500 {
		t.Errorf("current = %.2f, want 500", savings.Current)
	}
	if savings.Progress != 50 {
		t.Errorf("progress = %.2f, want 50", savings.Progress)
	}
}

func TestComputeNoSavingsGoalWhenRateHealthy(t *testing.T) {
	data := models.TransactionData{TotalIncome: 5000, TotalExpenses: 3000}
	result := Compute(data)

	for _, g := range result.Goals {
		if g.Type == models.GoalSavings {
			t.Fatalf("savings goal produced at 40%% savings rate: %+v", g)
		}
	}
}

func TestComputeNoSavingsGoalWithoutIncome(t *testing.T) {
	result := Compute(models.TransactionData{TotalExpenses: 300})

	for _, g := range result.Goals {
		if g.Type == models.GoalSavings {
			t.Fatalf("savings goal produced with zero income: %+v", g)
		}
	}
}

func TestComputeReductionGoal(t *testing.T) {
	result := Compute(sampleMonth())

	var reduction *models.Goal
	for i := range result.Goals {
		if result.Goals[i].Type == models.GoalReduction {
			reduction = &result.Goals[i]
		}
	}
	if reduction == nil {
		t.Fatal("expected a reduction goal for the over-budget Food category")
	}
	if reduction.Category != "Food" {
		t.Errorf("category = %q, want Food", reduction.Category)
	}
	// $100 over a $700 budget: progress = 100 - 100/700*100
	want := 100 - 100.0/700.0*100
	if reduction.Progress < want-0.01 || reduction.Progress > want+0.01 {
		t.Errorf("progress = %.2f, want %.2f", reduction.Progress, want)
	}
}

func TestComputeDeterministic(t *testing.T) {
	data := sampleMonth()
	data.MonthlyBudget = 4000
	data.PreviousMonth = &models.TransactionData{
		Categories: []models.CategorySummary{
			{Name: "Food", TotalAmount: 640, Type: models.Expense},
		},
	}

	first := Compute(data)
	for i := 0; i < 10; i++ {
		again := Compute(data)
		if again.Summary != first.Summary ||
			len(again.BudgetAlerts) != len(first.BudgetAlerts) ||
			len(again.Goals) != len(first.Goals) {
			t.Fatal("repeated computation on identical input diverged")
		}
		for j := range again.BudgetAlerts {
			if again.BudgetAlerts[j] != first.BudgetAlerts[j] {
				t.Fatalf("alert %d diverged between runs", j)
			}
		}
	}
}
