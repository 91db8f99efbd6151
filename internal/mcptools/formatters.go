package mcptools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/fidash/internal/models"
)

func formatMoney(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return sign + "₹" + groupThousands(d.StringFixed(2))
}

// groupThousands inserts commas into the integer part of a fixed point string.
func groupThousands(s string) string {
	intPart, frac, _ := strings.Cut(s, ".")
	var sb strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	if frac != "" {
		sb.WriteString("." + frac)
	}
	return sb.String()
}

type amountRow struct {
	name   string
	amount float64
}

// sortedAmounts orders a category map by amount descending, then name.
func sortedAmounts(m map[string]float64) []amountRow {
	rows := make([]amountRow, 0, len(m))
	for k, v := range m {
		rows = append(rows, amountRow{k, v})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].amount != rows[j].amount {
			return rows[i].amount > rows[j].amount
		}
		return rows[i].name < rows[j].name
	})
	return rows
}

// formatDashboard renders a snapshot as markdown with up to recent transactions.
func formatDashboard(d *models.DashboardModel, recent int) string {
	var sb strings.Builder

	sb.WriteString("# Financial Dashboard\n\n")
	sb.WriteString(fmt.Sprintf("**Generated:** %s (generation %d)\n", d.GeneratedAt.Format("2006-01-02 15:04"), d.Generation))
	sb.WriteString(fmt.Sprintf("**Net Worth:** %s\n", formatMoney(d.NetWorth)))
	sb.WriteString(fmt.Sprintf("**Bank Balance:** %s\n", formatMoney(d.BankBalance)))
	sb.WriteString(fmt.Sprintf("**Cash Flow (30 days):** %s\n", formatMoney(d.CashFlow)))
	sb.WriteString(fmt.Sprintf("**Credit Accounts:** %d | **Credit Score:** %d\n", d.Stats.CreditAccounts, d.Stats.CreditScore))
	sb.WriteString(fmt.Sprintf("**Mutual Funds:** %d | **Stocks:** %d | **EPF:** %s\n\n",
		d.Stats.MFHoldings, d.Stats.StockHoldings, formatMoney(d.Stats.EPFBalance)))

	if degraded := d.Degraded(); len(degraded) > 0 {
		sb.WriteString("## Unavailable Sources\n\n")
		for _, t := range degraded {
			sb.WriteString(fmt.Sprintf("- `%s`: %s\n", t, d.Sources[t].Error))
		}
		sb.WriteString("\n")
	}

	writeAmountTable(&sb, "Assets", "Category", d.Assets)
	writeAmountTable(&sb, "Liabilities", "Category", d.Liabilities)

	if len(d.MonthlySeries) > 0 {
		sb.WriteString("## Monthly Cash Flow\n\n")
		sb.WriteString("| Month | Credits | Debits | Net |\n")
		sb.WriteString("|-------|---------|--------|-----|\n")
		for _, b := range d.MonthlySeries {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				b.MonthKey, formatMoney(b.Credits), formatMoney(b.Debits), formatMoney(b.Net())))
		}
		sb.WriteString("\n")
	}

	writeAmountTable(&sb, "Spending by Category", "Category", d.CategorySpend)

	if recent > 0 && len(d.Transactions) > 0 {
		n := min(recent, len(d.Transactions))
		sb.WriteString(fmt.Sprintf("## Recent Transactions (%d of %d)\n\n", n, len(d.Transactions)))
		sb.WriteString("| Date | Bank | Narration | Type | Amount |\n")
		sb.WriteString("|------|------|-----------|------|--------|\n")
		for _, t := range d.Transactions[:n] {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
				t.Date.Format("2006-01-02"), t.Bank, t.Narration, t.Direction, formatMoney(t.Amount)))
		}
	}

	return sb.String()
}

func formatCategorySpend(spend models.CategorySpend) string {
	if len(spend) == 0 {
		return "No debit transactions in the current dashboard."
	}
	var sb strings.Builder
	writeAmountTable(&sb, "Spending by Category", "Category", spend)
	return strings.TrimRight(sb.String(), "\n")
}

func writeAmountTable(sb *strings.Builder, title, column string, m map[string]float64) {
	if len(m) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("## %s\n\n", title))
	sb.WriteString(fmt.Sprintf("| %s | Amount |\n", column))
	sb.WriteString("|----------|--------|\n")
	for _, r := range sortedAmounts(m) {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", r.name, formatMoney(r.amount)))
	}
	sb.WriteString("\n")
}
