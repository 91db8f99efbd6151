package models

import "time"

// AssetAllocation maps a display category to an amount.
type AssetAllocation map[string]float64

// CategorySpend maps a spending category to the summed debit amount.
type CategorySpend map[string]float64

// MonthlyBucket holds credit and debit totals for one calendar month.
type MonthlyBucket struct {
	MonthKey string  `json:"month"`
	Credits  float64 `json:"credits"`
	Debits   float64 `json:"debits"`
}

// Net returns credits minus debits for the month.
func (b MonthlyBucket) Net() float64 {
	return b.Credits - b.Debits
}

// DashboardStats holds the counter style metrics.
type DashboardStats struct {
	CreditAccounts int     `json:"credit_accounts"`
	CreditScore    int     `json:"credit_score"`
	MFHoldings     int     `json:"mf_holdings"`
	StockHoldings  int     `json:"stock_holdings"`
	EPFBalance     float64 `json:"epf_balance"`
}

// SourceStatus reports whether a tool contributed to the snapshot.
type SourceStatus struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// DashboardModel is one immutable dashboard snapshot.
// Maps and slices are always non-nil. Consumers must treat every field as read-only
// since the same snapshot is shared by all readers.
type DashboardModel struct {
	Generation    uint64                    `json:"generation"`
	GeneratedAt   time.Time                 `json:"generated_at"`
	NetWorth      float64                   `json:"net_worth"`
	BankBalance   float64                   `json:"bank_balance"`
	CashFlow      float64                   `json:"cash_flow"`
	Transactions  []TransactionRecord       `json:"transactions"`
	Assets        AssetAllocation           `json:"assets"`
	Liabilities   AssetAllocation           `json:"liabilities"`
	CategorySpend CategorySpend             `json:"category_spend"`
	MonthlySeries []MonthlyBucket           `json:"monthly_series"`
	Stats         DashboardStats            `json:"stats"`
	Sources       map[ToolName]SourceStatus `json:"sources"`
}

// Degraded returns the tools that failed for this snapshot, in AllTools order.
func (d *DashboardModel) Degraded() []ToolName {
	var out []ToolName
	for _, t := range AllTools {
		if s, ok := d.Sources[t]; ok && !s.OK {
			out = append(out, t)
		}
	}
	return out
}
