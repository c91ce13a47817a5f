package cli

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/spendscope/spendscope/internal/insight"
	"github.com/spendscope/spendscope/internal/model"
)

// FormatAmount renders an amount in rupees with two decimal places.
func FormatAmount(amount float64) string {
	return fmt.Sprintf("₹%.2f", amount)
}

func newTable(w io.Writer, headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

// RenderRecords writes a table of payment records, oldest first.
func RenderRecords(w io.Writer, records []model.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, SubtleStyle.Render("no records"))
		return
	}

	table := newTable(w, []string{"Date", "Merchant", "Category", "Amount", "Risk"})
	for _, rec := range records {
		table.Append([]string{
			rec.Timestamp.Format("2006-01-02 15:04"),
			rec.Merchant,
			string(rec.Category),
			FormatAmount(rec.Amount),
			FormatRiskLevel(rec.RiskLevel),
		})
	}
	table.Render()
}

// RenderAlerts writes a table of alerts, marking unread ones.
func RenderAlerts(w io.Writer, alerts []model.Alert) {
	if len(alerts) == 0 {
		fmt.Fprintln(w, SubtleStyle.Render("no alerts"))
		return
	}

	table := newTable(w, []string{"", "Detected", "Level", "Type", "Reason", "ID"})
	for _, a := range alerts {
		marker := " "
		if !a.Read {
			marker = BoldStyle.Render("●")
		}
		table.Append([]string{
			marker,
			a.DetectedAt.Format("2006-01-02 15:04"),
			FormatRiskLevel(a.Level),
			string(a.Type),
			a.Reason,
			a.ID,
		})
	}
	table.Render()
}

// RenderAlertDetail writes a single alert with its suggested action.
func RenderAlertDetail(w io.Writer, a model.Alert) {
	content := fmt.Sprintf("%s\n\n%s\n\n%s %s",
		FormatRiskLevel(a.Level)+" "+string(a.Type),
		a.Reason,
		BoldStyle.Render("Suggested:"),
		a.Action,
	)
	fmt.Fprintln(w, RenderBox(AlertIcon+" Alert "+a.ID, content))
}

// RenderSummary writes the spending summary: windows, burn rate,
// category totals and runway when a balance was provided.
func RenderSummary(w io.Writer, s *insight.Summary) {
	fmt.Fprintln(w, FormatTitle("Spending Summary"))

	overview := newTable(w, []string{"Metric", "Value"})
	overview.Append([]string{"Last 7 days", FormatAmount(s.Last7Days)})
	overview.Append([]string{"Last 30 days", FormatAmount(s.Last30Days)})
	overview.Append([]string{"Daily burn rate", FormatAmount(s.DailyBurnRate)})
	overview.Append([]string{"Monthly recurring", FormatAmount(s.MonthlyRecurring)})
	if s.MealEquivalent > 0 {
		overview.Append([]string{"Recurring load", fmt.Sprintf("%d meals/month", s.MealEquivalent)})
	}
	if s.DaysRemaining != nil {
		overview.Append([]string{"Days remaining", fmt.Sprintf("%d", *s.DaysRemaining)})
	}
	if s.SafeToSpend != nil {
		overview.Append([]string{"Safe to spend", FormatAmount(*s.SafeToSpend)})
	}
	overview.Render()

	if len(s.CategoryTotals) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, SubtitleStyle.Render("By category"))

	categories := make([]model.Category, 0, len(s.CategoryTotals))
	for cat := range s.CategoryTotals {
		categories = append(categories, cat)
	}
	sort.Slice(categories, func(i, j int) bool {
		return s.CategoryTotals[categories[i]] > s.CategoryTotals[categories[j]]
	})

	byCategory := newTable(w, []string{"Category", "Total"})
	for _, cat := range categories {
		byCategory.Append([]string{string(cat), FormatAmount(s.CategoryTotals[cat])})
	}
	byCategory.Render()
}

// RenderProcessResult writes the outcome of scoring one record.
func RenderProcessResult(w io.Writer, rec model.Record, alerts []model.Alert) {
	fmt.Fprintf(w, "%s  %s  %s  score %.2f\n",
		rec.Timestamp.Format(time.DateTime),
		rec.Merchant,
		FormatRiskLevel(rec.RiskLevel),
		rec.RiskScore,
	)
	if rec.RiskReason != "" {
		fmt.Fprintln(w, SubtleStyle.Render("  "+rec.RiskReason))
	}
	for _, a := range alerts {
		fmt.Fprintln(w, FormatWarning(string(a.Type)+": "+a.Reason))
	}
}
