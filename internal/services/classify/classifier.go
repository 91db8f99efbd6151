// Package classify assigns spending categories to bank narrations.
package classify

import "strings"

// Spending categories.
const (
	CategorySalary      = "Salary"
	CategoryRent        = "Rent"
	CategoryGroceries   = "Groceries"
	CategoryFuel        = "Fuel"
	CategoryCreditCard  = "Credit Card"
	CategoryInvestments = "Investments"
	CategoryUPI         = "UPI Payments"
	CategoryOthers      = "Others"
)

// Rule maps any of its keywords to a category.
type Rule struct {
	Category string
	Keywords []string
}

// DefaultRules is evaluated top to bottom and the first matching rule wins,
// so "UPI SIP MUTUAL FUND TRANSFER" is an investment, not a UPI payment.
var DefaultRules = []Rule{
	{Category: CategorySalary, Keywords: []string{"SALARY"}},
	{Category: CategoryRent, Keywords: []string{"RENT"}},
	{Category: CategoryGroceries, Keywords: []string{"GROCERY", "GROCER"}},
	{Category: CategoryFuel, Keywords: []string{"FUEL", "PETROL"}},
	{Category: CategoryCreditCard, Keywords: []string{"CREDIT CARD"}},
	{Category: CategoryInvestments, Keywords: []string{"SIP", "MUTUAL"}},
	{Category: CategoryUPI, Keywords: []string{"UPI"}},
}

// Classifier matches narrations against an ordered rule table.
type Classifier struct {
	rules    []Rule
	fallback string
}

// New creates a Classifier over rules; nil selects DefaultRules.
func New(rules []Rule) *Classifier {
	if rules == nil {
		rules = DefaultRules
	}
	return &Classifier{rules: rules, fallback: CategoryOthers}
}

// Classify returns the category of a narration. Matching is a case-insensitive
// substring search.
func (c *Classifier) Classify(narration string) string {
	upper := strings.ToUpper(narration)
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(upper, kw) {
				return r.Category
			}
		}
	}
	return c.fallback
}

// Categories lists every category the classifier can return, in rule order.
func (c *Classifier) Categories() []string {
	out := make([]string, 0, len(c.rules)+1)
	for _, r := range c.rules {
		out = append(out, r.Category)
	}
	return append(out, c.fallback)
}

var defaultClassifier = New(nil)

// Classify categorizes a narration with DefaultRules.
func Classify(narration string) string {
	return defaultClassifier.Classify(narration)
}
