package models

// CategorySummary is one category's aggregate within a TransactionData
type CategorySummary struct {
	Name        string          `json:"name"`
	TotalAmount float64         `json:"total_amount"`
	Type        TransactionType `json:"type"`
	Budget      *float64        `json:"budget,omitempty"`
}

// TransactionData is the per-request aggregate fed to insight computation.
// It is built fresh for each insights request and never persisted.
type TransactionData struct {
	TotalIncome   float64           `json:"total_income"`
	TotalExpenses float64           `json:"total_expenses"`
	Categories    []CategorySummary `json:"categories"`
	PreviousMonth *TransactionData  `json:"previous_month,omitempty"`
	MonthlyBudget float64           `json:"monthly_budget,omitempty"`
}

// AlertSeverity ranks budget alerts
type AlertSeverity string

const (
	SeverityLow    AlertSeverity = "low"
	SeverityMedium AlertSeverity = "medium"
	SeverityHigh   AlertSeverity = "high"
)

// Rank returns the sort weight of a severity (higher sorts first)
func (s AlertSeverity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// BudgetAlert flags a category (or the whole month) approaching or over budget
type BudgetAlert struct {
	Category   string        `json:"category"`
	Severity   AlertSeverity `json:"severity"`
	Message    string        `json:"message"`
	Current    float64       `json:"current"`
	Limit      float64       `json:"limit"`
	Percentage float64       `json:"percentage"`
}

// MonthChange is one category's month-over-month delta
type MonthChange struct {
	Category         string  `json:"category"`
	CurrentAmount    float64 `json:"current_amount"`
	PreviousAmount   float64 `json:"previous_amount"`
	PercentageChange float64 `json:"percentage_change"`
}

// MonthOverMonth groups trend insight text with the underlying deltas
type MonthOverMonth struct {
	Insights []string      `json:"insights"`
	Changes  []MonthChange `json:"changes"`
}

// CategoryAnalysis is one category's share of spending and its trend
type CategoryAnalysis struct {
	Name        string  `json:"name"`
	TotalAmount float64 `json:"total_amount"`
	Percentage  float64 `json:"percentage"`
	Trend       float64 `json:"trend"`
}

// GoalType distinguishes savings goals from category reduction goals
type GoalType string

const (
	GoalSavings   GoalType = "savings"
	GoalReduction GoalType = "reduction"
)

// Goal is a computed financial goal with progress toward its target
type Goal struct {
	Category    string   `json:"category"`
	Current     float64  `json:"current"`
	Target      float64  `json:"target"`
	Progress    float64  `json:"progress"`
	Description string   `json:"description"`
	Type        GoalType `json:"type"`
}

// InsightCommentary is the strict shape expected from an LLM provider
type InsightCommentary struct {
	Commentary []string `json:"commentary"`
	Tips       []string `json:"tips"`
}

// InsightData is the full insights response. Commentary and Tips are
// deterministic defaults unless an LLM provider supplied richer text.
type InsightData struct {
	Summary          string             `json:"summary"`
	Commentary       []string           `json:"commentary"`
	Tips             []string           `json:"tips"`
	MonthOverMonth   MonthOverMonth     `json:"month_over_month"`
	BudgetAlerts     []BudgetAlert      `json:"budget_alerts"`
	CategoryAnalysis []CategoryAnalysis `json:"category_analysis"`
	Goals            []Goal             `json:"goals"`
}
