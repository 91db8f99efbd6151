package normalize

import (
	"github.com/tidwall/gjson"

	"github.com/bobmcallan/fidash/internal/models"
)

const (
	assetPrefix     = "ASSET_TYPE_"
	liabilityPrefix = "LIABILITY_TYPE_"
)

func (n *Normalizer) netWorth(doc gjson.Result) (contribution, error) {
	resp, err := root(doc, "netWorthResponse", false)
	if err != nil {
		return nil, err
	}

	summary := models.NetWorthSummary{
		Total:       money(resp.Get("totalNetWorthValue")),
		Assets:      allocation(resp.Get("assetValues"), assetPrefix),
		Liabilities: allocation(resp.Get("liabilityValues"), liabilityPrefix),
	}

	return func(b *models.NormalizedBundle) {
		b.NetWorth = summary
	}, nil
}

// allocation accumulates {netWorthAttribute, value} entries by display category.
func allocation(values gjson.Result, prefix string) models.AssetAllocation {
	out := models.AssetAllocation{}
	if !values.IsArray() {
		return out
	}
	for _, v := range values.Array() {
		attr := v.Get("netWorthAttribute").String()
		if attr == "" {
			attr = v.Get("netWorthAttributeType").String()
		}
		out[displayCategory(attr, prefix)] += money(v.Get("value"))
	}
	return out
}
