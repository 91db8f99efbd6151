package models

import "encoding/json"

// ToolName identifies one Fi MCP data tool.
type ToolName string

const (
	ToolNetWorth          ToolName = "fetch_net_worth"
	ToolBankTransactions  ToolName = "fetch_bank_transactions"
	ToolCreditReport      ToolName = "fetch_credit_report"
	ToolEPFDetails        ToolName = "fetch_epf_details"
	ToolMFTransactions    ToolName = "fetch_mf_transactions"
	ToolStockTransactions ToolName = "fetch_stock_transactions"
)

// AllTools lists every tool retrieved on a refresh, in display order.
var AllTools = []ToolName{
	ToolNetWorth,
	ToolBankTransactions,
	ToolCreditReport,
	ToolEPFDetails,
	ToolMFTransactions,
	ToolStockTransactions,
}

// ValidToolName returns true if name is one of AllTools.
func ValidToolName(name string) bool {
	for _, t := range AllTools {
		if string(t) == name {
			return true
		}
	}
	return false
}

// ToolResult is the outcome of retrieving one tool.
// A non-nil Err is the failure marker; Raw is only meaningful when Err is nil.
type ToolResult struct {
	Raw json.RawMessage
	Err error
}

// Failed reports whether the result carries no usable payload.
func (r ToolResult) Failed() bool {
	return r.Err != nil || len(r.Raw) == 0
}

// RawToolBundle holds one result per tool for a single refresh.
type RawToolBundle map[ToolName]ToolResult

// Get returns the result for tool. A missing entry is reported as unavailable.
func (b RawToolBundle) Get(tool ToolName) ToolResult {
	if r, ok := b[tool]; ok {
		return r
	}
	return ToolResult{Err: ErrSourceUnavailable}
}
