package normalize

import (
	"sort"

	"github.com/tidwall/gjson"

	"github.com/bobmcallan/fidash/internal/models"
)

// Positional fields of a bank transaction row.
const (
	colAmount = iota
	colNarration
	colDate
	colDirection
	colMode
	colBalance
	rowWidth
)

func (n *Normalizer) bankTransactions(doc gjson.Result) (contribution, error) {
	blocks, err := root(doc, "bankTransactions", true)
	if err != nil {
		return nil, err
	}

	txns := []models.TransactionRecord{}
	dropped := 0
	for _, block := range blocks.Array() {
		bank := block.Get("bank").String()
		kept := 0
		for _, row := range block.Get("txns").Array() {
			tx, ok := parseRow(bank, row)
			if !ok {
				dropped++
				continue
			}
			txns = append(txns, tx)
			kept++
		}
		n.logger.Debug().Str("bank", bank).Int("transactions", kept).Msg("Bank block normalized")
	}

	if dropped > 0 {
		n.logger.Debug().
			Int("dropped", dropped).
			Int("kept", len(txns)).
			Str("reason", models.ErrMalformedRecord.Error()).
			Msg("Dropped bank transaction rows")
	}

	sortByDateDesc(txns)

	return func(b *models.NormalizedBundle) {
		b.Transactions = txns
		b.DroppedRows += dropped
	}, nil
}

// parseRow reads [amount, narration, date, direction, mode, balance].
// Rows that are short or carry no readable date are malformed.
func parseRow(bank string, row gjson.Result) (models.TransactionRecord, bool) {
	if !row.IsArray() {
		return models.TransactionRecord{}, false
	}
	fields := row.Array()
	if len(fields) < rowWidth {
		return models.TransactionRecord{}, false
	}

	date, ok := parseDate(fields[colDate].String())
	if !ok {
		return models.TransactionRecord{}, false
	}

	amount := number(fields[colAmount])
	if amount < 0 {
		amount = -amount
	}

	return models.TransactionRecord{
		Bank:         bank,
		Amount:       amount,
		Narration:    fields[colNarration].String(),
		Date:         date,
		Direction:    models.DirectionFromCode(fields[colDirection].String()),
		Mode:         fields[colMode].String(),
		BalanceAfter: number(fields[colBalance]),
	}, true
}

// sortByDateDesc orders newest first; equal dates keep input order.
func sortByDateDesc(txns []models.TransactionRecord) {
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].Date.After(txns[j].Date)
	})
}
