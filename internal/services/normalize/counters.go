package normalize

import (
	"github.com/tidwall/gjson"

	"github.com/bobmcallan/fidash/internal/models"
)

func (n *Normalizer) creditReport(doc gjson.Result) (contribution, error) {
	if _, err := root(doc, "creditReports", true); err != nil {
		return nil, err
	}
	data := doc.Get("creditReports.0.creditReportData")
	summary := models.CreditSummary{
		ActiveAccounts: count(data.Get("creditAccount.creditAccountSummary.account.creditAccountActive")),
		Score:          count(data.Get("score.bureauScore")),
	}
	return func(b *models.NormalizedBundle) {
		b.Credit = summary
	}, nil
}

func (n *Normalizer) epfDetails(doc gjson.Result) (contribution, error) {
	if _, err := root(doc, "uanAccounts", true); err != nil {
		return nil, err
	}
	balance := number(doc.Get("uanAccounts.0.rawDetails.overall_pf_balance.current_pf_balance"))
	return func(b *models.NormalizedBundle) {
		b.EPFBalance = balance
	}, nil
}

func (n *Normalizer) mutualFunds(doc gjson.Result) (contribution, error) {
	analytics, err := root(doc, "mfSchemeAnalytics", false)
	if err != nil {
		return nil, err
	}
	holdings := 0
	if schemes := analytics.Get("schemeAnalytics"); schemes.IsArray() {
		holdings = len(schemes.Array())
	}
	return func(b *models.NormalizedBundle) {
		b.MFHoldings = holdings
	}, nil
}

func (n *Normalizer) stocks(doc gjson.Result) (contribution, error) {
	bulk, err := root(doc, "accountDetailsBulkResponse", false)
	if err != nil {
		return nil, err
	}
	holdings := 0
	bulk.Get("accountDetailsMap").ForEach(func(_, account gjson.Result) bool {
		if account.Get("equitySummary").Exists() {
			holdings++
		}
		return true
	})
	return func(b *models.NormalizedBundle) {
		b.StockHoldings = holdings
	}, nil
}
