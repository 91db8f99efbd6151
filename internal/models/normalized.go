package models

// NetWorthSummary is the normalized fetch_net_worth contribution.
type NetWorthSummary struct {
	Total       float64
	Assets      AssetAllocation
	Liabilities AssetAllocation
}

// CreditSummary is the normalized fetch_credit_report contribution.
type CreditSummary struct {
	ActiveAccounts int
	Score          int
}

// NormalizedBundle is the canonical intermediate form of one refresh.
// Every field has a defined default so a failed tool contributes zero values.
type NormalizedBundle struct {
	NetWorth      NetWorthSummary
	Transactions  []TransactionRecord // sorted by date descending, stable
	Credit        CreditSummary
	EPFBalance    float64
	MFHoldings    int
	StockHoldings int
	Sources       map[ToolName]SourceStatus
	DroppedRows   int
}

// NewNormalizedBundle returns a bundle with all maps and slices initialized.
func NewNormalizedBundle() *NormalizedBundle {
	return &NormalizedBundle{
		NetWorth: NetWorthSummary{
			Assets:      AssetAllocation{},
			Liabilities: AssetAllocation{},
		},
		Transactions: []TransactionRecord{},
		Sources:      make(map[ToolName]SourceStatus, len(AllTools)),
	}
}
