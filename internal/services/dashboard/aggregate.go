package dashboard

import (
	"maps"
	"sort"
	"time"

	"github.com/bobmcallan/fidash/internal/models"
	"github.com/bobmcallan/fidash/internal/services/classify"
)

// Aggregate derives a dashboard snapshot from a normalized bundle.
// It is a pure function of its inputs: the same bundle and now always yield an
// identical model. The returned model does not share maps or slices with b.
func Aggregate(b *models.NormalizedBundle, now time.Time) *models.DashboardModel {
	if b == nil {
		b = models.NewNormalizedBundle()
	}
	now = now.UTC()

	txns := make([]models.TransactionRecord, len(b.Transactions))
	copy(txns, b.Transactions)

	return &models.DashboardModel{
		GeneratedAt:   now,
		NetWorth:      b.NetWorth.Total,
		BankBalance:   bankBalance(txns),
		CashFlow:      cashFlow(txns, now),
		Transactions:  txns,
		Assets:        cloneAllocation(b.NetWorth.Assets),
		Liabilities:   cloneAllocation(b.NetWorth.Liabilities),
		CategorySpend: categorySpend(txns),
		MonthlySeries: monthlySeries(txns),
		Stats: models.DashboardStats{
			CreditAccounts: b.Credit.ActiveAccounts,
			CreditScore:    b.Credit.Score,
			MFHoldings:     b.MFHoldings,
			StockHoldings:  b.StockHoldings,
			EPFBalance:     b.EPFBalance,
		},
		Sources: cloneSources(b.Sources),
	}
}

// bankBalance is the running balance after the most recent transaction.
// txns is sorted newest first with ties in input order, so the first entry wins.
func bankBalance(txns []models.TransactionRecord) float64 {
	if len(txns) == 0 {
		return 0
	}
	return txns[0].BalanceAfter
}

// cashFlowCutoff is the start of the day one calendar month before now.
// Month arithmetic normalizes overflow, so Mar 31 maps to Mar 2 (or Mar 3 in leap years).
func cashFlowCutoff(now time.Time) time.Time {
	c := now.AddDate(0, -1, 0)
	return time.Date(c.Year(), c.Month(), c.Day(), 0, 0, 0, 0, c.Location())
}

// cashFlow is credits minus debits over the trailing calendar month, cutoff inclusive.
func cashFlow(txns []models.TransactionRecord, now time.Time) float64 {
	cutoff := cashFlowCutoff(now)
	var credits, debits float64
	for _, tx := range txns {
		if tx.Date.Before(cutoff) {
			continue
		}
		switch tx.Direction {
		case models.DirectionCredit:
			credits += tx.Amount
		case models.DirectionDebit:
			debits += tx.Amount
		}
	}
	return credits - debits
}

func categorySpend(txns []models.TransactionRecord) models.CategorySpend {
	out := models.CategorySpend{}
	for _, tx := range txns {
		if !tx.IsDebit() {
			continue
		}
		out[classify.Classify(tx.Narration)] += tx.Amount
	}
	return out
}

// monthlySeries groups credits and debits by YYYY-MM, oldest month first.
// Months holding only unknown-direction transactions get no bucket.
func monthlySeries(txns []models.TransactionRecord) []models.MonthlyBucket {
	buckets := map[string]*models.MonthlyBucket{}
	for _, tx := range txns {
		if !tx.IsCredit() && !tx.IsDebit() {
			continue
		}
		key := tx.MonthKey()
		b, ok := buckets[key]
		if !ok {
			b = &models.MonthlyBucket{MonthKey: key}
			buckets[key] = b
		}
		if tx.IsCredit() {
			b.Credits += tx.Amount
		} else {
			b.Debits += tx.Amount
		}
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]models.MonthlyBucket, 0, len(keys))
	for _, k := range keys {
		out = append(out, *buckets[k])
	}
	return out
}

func cloneAllocation(in models.AssetAllocation) models.AssetAllocation {
	if in == nil {
		return models.AssetAllocation{}
	}
	return maps.Clone(in)
}

func cloneSources(in map[models.ToolName]models.SourceStatus) map[models.ToolName]models.SourceStatus {
	if in == nil {
		return map[models.ToolName]models.SourceStatus{}
	}
	return maps.Clone(in)
}
