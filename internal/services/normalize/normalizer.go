// Package normalize converts raw Fi tool payloads into the canonical
// intermediate schema. Missing or malformed fields fall back to zero values;
// a bad payload only affects the tool it came from.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/bobmcallan/fidash/internal/common"
	"github.com/bobmcallan/fidash/internal/models"
)

// Normalizer converts a RawToolBundle into a NormalizedBundle.
type Normalizer struct {
	logger *common.Logger
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(logger *common.Logger) *Normalizer {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Normalizer{logger: logger}
}

// contribution is the typed output of one tool, merged into the bundle only on success.
type contribution func(*models.NormalizedBundle)

// Normalize never fails: a tool that cannot be read contributes its zero value
// and is reported in Sources.
func (n *Normalizer) Normalize(raw models.RawToolBundle) *models.NormalizedBundle {
	out := models.NewNormalizedBundle()
	for _, tool := range models.AllTools {
		apply, err := n.normalizeTool(tool, raw.Get(tool))
		if err != nil {
			out.Sources[tool] = models.SourceStatus{OK: false, Error: err.Error()}
			n.logger.Warn().Str("tool", string(tool)).Err(err).Msg("Tool degraded to defaults")
			continue
		}
		apply(out)
		out.Sources[tool] = models.SourceStatus{OK: true}
	}
	return out
}

func (n *Normalizer) normalizeTool(tool models.ToolName, res models.ToolResult) (apply contribution, err error) {
	defer func() {
		if r := recover(); r != nil {
			apply = nil
			err = fmt.Errorf("%w: normalizing %s: %v", models.ErrSourceUnavailable, tool, r)
		}
	}()

	if res.Err != nil {
		if errors.Is(res.Err, models.ErrSourceUnavailable) {
			return nil, res.Err
		}
		return nil, fmt.Errorf("%w: %w", models.ErrSourceUnavailable, res.Err)
	}

	doc, err := document(res.Raw)
	if err != nil {
		return nil, err
	}

	switch tool {
	case models.ToolNetWorth:
		return n.netWorth(doc)
	case models.ToolBankTransactions:
		return n.bankTransactions(doc)
	case models.ToolCreditReport:
		return n.creditReport(doc)
	case models.ToolEPFDetails:
		return n.epfDetails(doc)
	case models.ToolMFTransactions:
		return n.mutualFunds(doc)
	case models.ToolStockTransactions:
		return n.stocks(doc)
	default:
		return nil, fmt.Errorf("%w: unknown tool %s", models.ErrSourceUnavailable, tool)
	}
}

// document validates the payload envelope shared by all tools.
func document(raw json.RawMessage) (gjson.Result, error) {
	if len(raw) == 0 {
		return gjson.Result{}, fmt.Errorf("%w: empty payload", models.ErrSourceUnavailable)
	}
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, fmt.Errorf("%w: invalid JSON", models.ErrSourceUnavailable)
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return gjson.Result{}, fmt.Errorf("%w: unexpected top-level shape", models.ErrSourceUnavailable)
	}
	if doc.Get("status").String() == "login_required" {
		return gjson.Result{}, fmt.Errorf("%w: %w", models.ErrSourceUnavailable, models.ErrNoSession)
	}
	if e := doc.Get("error"); e.Exists() {
		return gjson.Result{}, fmt.Errorf("%w: %s", models.ErrSourceUnavailable, e.String())
	}
	return doc, nil
}

// root returns doc[key], rejecting a present value of the wrong kind.
func root(doc gjson.Result, key string, wantArray bool) (gjson.Result, error) {
	v := doc.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return v, nil
	}
	if wantArray && !v.IsArray() || !wantArray && !v.IsObject() {
		return v, fmt.Errorf("%w: unexpected shape for %s", models.ErrSourceUnavailable, key)
	}
	return v, nil
}
