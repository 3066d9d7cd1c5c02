// Package insights computes deterministic financial insights from aggregated
// transaction data. Everything here is pure: no I/O, no clock, no network.
// The result serves as the baseline that LLM commentary may enrich.
package insights

import (
	"fmt"
	"math"
	"sort"

	"finguide/internal/models"
)

// Compute aggregates transaction data into the full insight response
func Compute(data models.TransactionData) models.InsightData {
	balance := data.TotalIncome - data.TotalExpenses

	var savingsRate float64
	if data.TotalIncome > 0 {
		savingsRate = (balance / data.TotalIncome) * 100
	}

	result := models.InsightData{
		Summary: fmt.Sprintf(
			"This month you earned $%.2f and spent $%.2f, a savings rate of %.1f%%.",
			data.TotalIncome, data.TotalExpenses, savingsRate),
		Commentary:       []string{},
		Tips:             []string{},
		BudgetAlerts:     computeBudgetAlerts(data),
		MonthOverMonth:   computeMonthOverMonth(data),
		CategoryAnalysis: computeCategoryAnalysis(data),
		Goals:            computeGoals(data, balance, savingsRate),
	}

	return result
}

// budgetAlert applies the shared threshold policy: 80% warns, 100% alerts,
// 120% escalates. Below 80% no alert is produced.
func budgetAlert(name string, current, limit float64) *models.BudgetAlert {
	if limit <= 0 {
		return nil
	}
	pct := current / limit * 100

	var severity models.AlertSeverity
	var message string
	switch {
	case pct >= 120:
		severity = models.SeverityHigh
		message = fmt.Sprintf("%s is far over budget: $%.2f of $%.2f (%.1f%%)", name, current, limit, pct)
	case pct >= 100:
		severity = models.SeverityMedium
		message = fmt.Sprintf("%s is over budget: $%.2f of $%.2f (%.1f%%)", name, current, limit, pct)
	case pct >= 80:
		severity = models.SeverityLow
		message = fmt.Sprintf("%s is approaching its budget: $%.2f of $%.2f (%.1f%%)", name, current, limit, pct)
	default:
		return nil
	}

	return &models.BudgetAlert{
		Category:   name,
		Severity:   severity,
		Message:    message,
		Current:    current,
		Limit:      limit,
		Percentage: pct,
	}
}

func computeBudgetAlerts(data models.TransactionData) []models.BudgetAlert {
	var alerts []models.BudgetAlert

	for _, cat := range data.Categories {
		if cat.Type != models.Expense || cat.Budget == nil {
			continue
		}
		if a := budgetAlert(cat.Name, cat.TotalAmount, *cat.Budget); a != nil {
			alerts = append(alerts, *a)
		}
	}

	// The overall monthly alert goes in front so it displays first among
	// alerts of equal severity.
	if data.MonthlyBudget > 0 {
		if a := budgetAlert("Overall", data.TotalExpenses, data.MonthlyBudget); a != nil {
			alerts = append([]models.BudgetAlert{*a}, alerts...)
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Severity.Rank() > alerts[j].Severity.Rank()
	})

	return alerts
}

func computeMonthOverMonth(data models.TransactionData) models.MonthOverMonth {
	mom := models.MonthOverMonth{Insights: []string{}, Changes: []models.MonthChange{}}
	if data.PreviousMonth == nil {
		return mom
	}

	prevTotals := make(map[string]float64, len(data.PreviousMonth.Categories))
	for _, cat := range data.PreviousMonth.Categories {
		prevTotals[cat.Name] = cat.TotalAmount
	}

	for _, cat := range data.Categories {
		prev := prevTotals[cat.Name]
		var change float64
		if prev > 0 {
			change = (cat.TotalAmount - prev) / prev * 100
		}
		if change == 0 {
			continue
		}
		mom.Changes = append(mom.Changes, models.MonthChange{
			Category:         cat.Name,
			CurrentAmount:    cat.TotalAmount,
			PreviousAmount:   prev,
			PercentageChange: change,
		})
	}

	// Largest swings first
	sort.SliceStable(mom.Changes, func(i, j int) bool {
		return math.Abs(mom.Changes[i].PercentageChange) > math.Abs(mom.Changes[j].PercentageChange)
	})

	for _, c := range mom.Changes {
		direction := "up"
		if c.PercentageChange < 0 {
			direction = "down"
		}
		mom.Insights = append(mom.Insights, fmt.Sprintf(
			"%s is %s %.1f%% from last month ($%.2f vs $%.2f)",
			c.Category, direction, math.Abs(c.PercentageChange), c.CurrentAmount, c.PreviousAmount))
	}

	return mom
}

func computeCategoryAnalysis(data models.TransactionData) []models.CategoryAnalysis {
	analysis := []models.CategoryAnalysis{}
	if data.TotalExpenses <= 0 {
		return analysis
	}

	var prevTotals map[string]float64
	if data.PreviousMonth != nil {
		prevTotals = make(map[string]float64, len(data.PreviousMonth.Categories))
		for _, cat := range data.PreviousMonth.Categories {
			prevTotals[cat.Name] = cat.TotalAmount
		}
	}

	for _, cat := range data.Categories {
		if cat.Type != models.Expense {
			continue
		}

		var trend float64
		if prev := prevTotals[cat.Name]; prev > 0 {
			trend = (cat.TotalAmount - prev) / prev * 100
		}

		analysis = append(analysis, models.CategoryAnalysis{
			Name:        cat.Name,
			TotalAmount: cat.TotalAmount,
			Percentage:  cat.TotalAmount / data.TotalExpenses * 100,
			Trend:       trend,
		})
	}

	return analysis
}

func computeGoals(data models.TransactionData, balance, savingsRate float64) []models.Goal {
	goals := []models.Goal{}

	if data.TotalIncome > 0 && savingsRate < 20 {
		goals = append(goals, models.Goal{
			Category:    "Savings",
			Current:     balance,
			Target:      data.TotalIncome * 0.2,
			Progress:    savingsRate / 20 * 100,
			Description: fmt.Sprintf("Save 20%% of income ($%.2f per month)", data.TotalIncome*0.2),
			Type:        models.GoalSavings,
		})
	}

	for _, cat := range data.Categories {
		if cat.Type != models.Expense || cat.Budget == nil || *cat.Budget <= 0 {
			continue
		}
		if cat.TotalAmount <= *cat.Budget {
			continue
		}
		over := cat.TotalAmount - *cat.Budget
		progress := math.Max(0, 100-over / *cat.Budget*100)
		goals = append(goals, models.Goal{
			Category:    cat.Name,
			Current:     cat.TotalAmount,
			Target:      *cat.Budget,
			Progress:    progress,
			Description: fmt.Sprintf("Bring %s back under its $%.2f budget", cat.Name, *cat.Budget),
			Type:        models.GoalReduction,
		})
	}

	return goals
}
