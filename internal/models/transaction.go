package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction of a bank transaction.
type Direction string

const (
	DirectionCredit  Direction = "credit"
	DirectionDebit   Direction = "debit"
	DirectionUnknown Direction = "unknown"
)

// DirectionFromCode maps the Fi transaction type code (1 credit, 2 debit).
// Codes may arrive as numbers or numeric strings, including integral forms such
// as "2.0" or "2e0". Anything else is unknown.
func DirectionFromCode(code string) Direction {
	d, err := decimal.NewFromString(strings.TrimSpace(code))
	if err != nil || !d.IsInteger() {
		return DirectionUnknown
	}
	switch d.IntPart() {
	case 1:
		return DirectionCredit
	case 2:
		return DirectionDebit
	default:
		return DirectionUnknown
	}
}

// TransactionRecord is one normalized bank transaction.
// Amount is always a non-negative magnitude; Direction carries the sign.
type TransactionRecord struct {
	Bank         string    `json:"bank"`
	Amount       float64   `json:"amount"`
	Narration    string    `json:"narration"`
	Date         time.Time `json:"date"`
	Direction    Direction `json:"direction"`
	Mode         string    `json:"mode"`
	BalanceAfter float64   `json:"balance_after"`
}

// IsCredit returns true for inflows.
func (t TransactionRecord) IsCredit() bool { return t.Direction == DirectionCredit }

// IsDebit returns true for outflows.
func (t TransactionRecord) IsDebit() bool { return t.Direction == DirectionDebit }

// MonthKey returns the YYYY-MM bucket key for the transaction date.
func (t TransactionRecord) MonthKey() string {
	return t.Date.Format("2006-01")
}
