// Package categorize assigns categories to transaction descriptions with a
// deterministic, ordered keyword rule table. No scoring, no ML: the first
// category whose keyword occurs in the lowercased description wins, and every
// description classifies to some category via the defaults.
package categorize

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Fallback and income-side category names.
const (
	CategoryOtherExpenses = "Other Expenses"
	CategoryOtherIncome   = "Other Income"
	CategorySalary        = "Salary"
	CategoryFreelance     = "Freelance"
)

// Rule maps one category to its keyword set. Keywords are lowercase
// substrings matched against the lowercased description.
type Rule struct {
	Category string
	Keywords []string
}

// Categorizer holds an explicitly ordered rule table. Slice order is the
// match precedence and is fixed at construction; callers share an instance
// only if they do not mutate it.
type Categorizer struct {
	rules []Rule
	index map[string]int // category name -> position in rules
}

// New builds a Categorizer from the given rules, preserving their order.
// Keywords are lowercased and de-duplicated.
func New(rules []Rule) *Categorizer {
	c := &Categorizer{index: make(map[string]int, len(rules))}
	for _, r := range rules {
		c.appendRule(r.Category, r.Keywords)
	}
	return c
}

// NewDefault builds a Categorizer with the stock rule table.
func NewDefault() *Categorizer {
	return New(DefaultRules())
}

func (c *Categorizer) appendRule(category string, keywords []string) {
	if _, ok := c.index[category]; !ok {
		c.index[category] = len(c.rules)
		c.rules = append(c.rules, Rule{Category: category})
	}
	for _, kw := range keywords {
		c.addKeyword(category, kw)
	}
}

func (c *Categorizer) addKeyword(category, keyword string) {
	pos := c.index[category]
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return
	}
	for _, existing := range c.rules[pos].Keywords {
		if existing == kw {
			return
		}
	}
	c.rules[pos].Keywords = append(c.rules[pos].Keywords, kw)
}

// Categorize returns the first category in table order with a keyword
// occurring in the description, or CategoryOtherExpenses when none match.
func (c *Categorizer) Categorize(description string) string {
	desc := strings.ToLower(description)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(desc, kw) {
				return rule.Category
			}
		}
	}
	return CategoryOtherExpenses
}

// salaryHints and freelanceHints drive the income-side override in
// SuggestedCategory. They match the base table's Salary/Freelance intent but
// are intentionally narrower.
var (
	salaryHints    = []string{"salary", "payroll", "employer"}
	freelanceHints = []string{"freelance", "consulting", "contract"}
)

// SuggestedCategory refines Categorize using the transaction sign. When the
// base result is an unmatched default and the signed amount is positive, the
// description is re-checked against income keywords so income rows do not
// land in an expense bucket. This is the only place sign influences
// classification.
func (c *Categorizer) SuggestedCategory(description string, signedAmount decimal.Decimal) string {
	base := c.Categorize(description)
	if signedAmount.Sign() <= 0 || !strings.HasPrefix(base, "Other") {
		return base
	}

	desc := strings.ToLower(description)
	if containsAny(desc, salaryHints) {
		return CategorySalary
	}
	if containsAny(desc, freelanceHints) {
		return CategoryFreelance
	}
	return CategoryOtherIncome
}

// AddKeyword appends a lowercased keyword to an existing category, or
// creates the category (at the end of the precedence order) with that single
// keyword. Adding a keyword twice is a no-op.
func (c *Categorizer) AddKeyword(category, keyword string) {
	if _, ok := c.index[category]; !ok {
		c.index[category] = len(c.rules)
		c.rules = append(c.rules, Rule{Category: category})
	}
	c.addKeyword(category, keyword)
}

// Keywords returns the keyword set for a category; nil if unknown.
func (c *Categorizer) Keywords(category string) []string {
	pos, ok := c.index[category]
	if !ok {
		return nil
	}
	out := make([]string, len(c.rules[pos].Keywords))
	copy(out, c.rules[pos].Keywords)
	return out
}

// Categories returns the category names in match-precedence order.
func (c *Categorizer) Categories() []string {
	out := make([]string, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.Category
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
