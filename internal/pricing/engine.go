package pricing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidTerm is matched by every InvalidTermError.
var ErrInvalidTerm = errors.New("pricing: invalid commitment term")

// ErrUnknownCurrency is returned when parsing an unsupported currency code.
var ErrUnknownCurrency = errors.New("pricing: unknown currency")

// InvalidTermError reports a commitment term outside 3, 6 or 12 months.
type InvalidTermError struct {
	Term int
}

// Error implements the error interface.
func (e *InvalidTermError) Error() string {
	return fmt.Sprintf("pricing: invalid commitment term %d (want 3, 6 or 12)", e.Term)
}

// Is allows errors.Is(err, ErrInvalidTerm).
func (e *InvalidTermError) Is(target error) bool {
	return target == ErrInvalidTerm
}

// Currency is an ISO 4217 code supported by the site.
type Currency string

const (
	GBP Currency = "GBP"
	USD Currency = "USD"
	EUR Currency = "EUR"
)

// Currencies lists supported currencies in display order.
func Currencies() []Currency {
	return []Currency{GBP, USD, EUR}
}

// ParseCurrency converts a case-insensitive code into a Currency.
func ParseCurrency(code string) (Currency, error) {
	switch Currency(strings.ToUpper(strings.TrimSpace(code))) {
	case GBP:
		return GBP, nil
	case USD:
		return USD, nil
	case EUR:
		return EUR, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
}

// Symbol returns the display symbol for the currency.
func (c Currency) Symbol() string {
	switch c {
	case GBP:
		return "£"
	case USD:
		return "$"
	case EUR:
		return "€"
	default:
		return ""
	}
}

// VATRate returns the VAT added on top of ex-VAT prices. Only GBP carries VAT.
func (c Currency) VATRate() decimal.Decimal {
	if c == GBP {
		return ukVAT
	}
	return decimal.Zero
}

var (
	ukVAT       = decimal.RequireFromString("0.20")
	depositPart = decimal.RequireFromString("0.20")
	kickoffPart = decimal.RequireFromString("0.80")
	one         = decimal.NewFromInt(1)
	hundred     = decimal.NewFromInt(100)
)

// PlanRate is the undiscounted monthly price of a plan split into the 20% deposit
// and the 80% due after kickoff.
type PlanRate struct {
	MonthlyBase      decimal.Decimal
	DepositBase      decimal.Decimal
	AfterKickoffBase decimal.Decimal
}

// NewPlanRate derives the deposit and after-kickoff shares from a monthly price.
func NewPlanRate(monthly decimal.Decimal) PlanRate {
	deposit := monthly.Mul(depositPart)
	return PlanRate{
		MonthlyBase:      monthly,
		DepositBase:      deposit,
		AfterKickoffBase: monthly.Sub(deposit),
	}
}

// SplitConsistent reports whether deposit and after-kickoff add up to the monthly
// base within one display unit.
func (r PlanRate) SplitConsistent() bool {
	diff := r.DepositBase.Add(r.AfterKickoffBase).Sub(r.MonthlyBase).Abs()
	return diff.LessThanOrEqual(one)
}

// Term is a commitment length in months.
type Term int

const (
	Term3  Term = 3
	Term6  Term = 6
	Term12 Term = 12
)

type tier struct {
	discount decimal.Decimal
	bonus    int
}

var tiers = map[Term]tier{
	Term3:  {discount: decimal.Zero, bonus: 0},
	Term6:  {discount: decimal.RequireFromString("0.10"), bonus: 1},
	Term12: {discount: decimal.RequireFromString("0.20"), bonus: 2},
}

// Terms lists valid terms in ascending order.
func Terms() []Term {
	return []Term{Term3, Term6, Term12}
}

// ParseTerm converts a month count such as "6" into a Term.
func ParseTerm(value string) (Term, error) {
	months, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, &InvalidTermError{Term: 0}
	}
	term := Term(months)
	if err := term.Validate(); err != nil {
		return 0, err
	}
	return term, nil
}

// Validate fails with InvalidTermError unless the term is 3, 6 or 12.
func (t Term) Validate() error {
	if _, ok := tiers[t]; !ok {
		return &InvalidTermError{Term: int(t)}
	}
	return nil
}

// DiscountPercent returns the term's discount as a whole percentage.
func (t Term) DiscountPercent() int64 {
	return tiers[t].discount.Mul(hundred).IntPart()
}

// BonusVideos returns the number of free video ads the term includes.
func (t Term) BonusVideos() int {
	return tiers[t].bonus
}

// Upfront reports whether the whole term is billed as a single deposit/after-kickoff split.
func (t Term) Upfront() bool { return t == Term12 }

// Amount pairs an ex-VAT value with its VAT-inclusive counterpart.
type Amount struct {
	ExVAT  decimal.Decimal
	IncVAT decimal.Decimal
}

func withVAT(exVAT, vatRate decimal.Decimal) Amount {
	return Amount{ExVAT: exVAT, IncVAT: exVAT.Mul(one.Add(vatRate))}
}

// Quote is the full-precision price breakdown for a currency, rate and term.
// Values are never rounded here; see internal/money for display rounding.
type Quote struct {
	Currency     Currency
	Term         Term
	Rate         PlanRate
	DiscountRate decimal.Decimal
	VATRate      decimal.Decimal
	BonusVideos  int

	Monthly       Amount
	Deposit       Amount
	AfterKickoff  Amount
	Total         Amount
	OriginalTotal Amount
	Savings       Amount
	VATAmount     decimal.Decimal
}

// DiscountPercent returns the discount as a whole percentage (0, 10 or 20).
func (q Quote) DiscountPercent() int64 {
	return q.DiscountRate.Mul(hundred).IntPart()
}

// VATPercent returns the VAT rate as a whole percentage.
func (q Quote) VATPercent() int64 {
	return q.VATRate.Mul(hundred).IntPart()
}

// HasVAT reports whether VAT is added on top of the quoted prices.
func (q Quote) HasVAT() bool {
	return q.VATRate.IsPositive()
}

// BaseMonthly is the undiscounted monthly rate.
func (q Quote) BaseMonthly() Amount {
	return withVAT(q.Rate.MonthlyBase, q.VATRate)
}

// MonthlySavings is the per-month reduction against the undiscounted rate.
func (q Quote) MonthlySavings() Amount {
	return withVAT(q.Rate.MonthlyBase.Sub(q.Monthly.ExVAT), q.VATRate)
}

// ComputeQuote prices a commitment. It is a pure function and safe for
// concurrent use; the only failure is an unsupported term.
func ComputeQuote(currency Currency, rate PlanRate, term Term) (Quote, error) {
	t, ok := tiers[term]
	if !ok {
		return Quote{}, &InvalidTermError{Term: int(term)}
	}
	vatRate := currency.VATRate()
	months := decimal.NewFromInt(int64(term))

	monthly := rate.MonthlyBase.Mul(one.Sub(t.discount))
	deposit := monthly.Mul(depositPart)
	afterKickoff := monthly.Mul(kickoffPart)

	total := monthly.Mul(months)
	original := rate.MonthlyBase.Mul(months)
	savings := original.Sub(total)

	return Quote{
		Currency:      currency,
		Term:          term,
		Rate:          rate,
		DiscountRate:  t.discount,
		VATRate:       vatRate,
		BonusVideos:   t.bonus,
		Monthly:       withVAT(monthly, vatRate),
		Deposit:       withVAT(deposit, vatRate),
		AfterKickoff:  withVAT(afterKickoff, vatRate),
		Total:         withVAT(total, vatRate),
		OriginalTotal: withVAT(original, vatRate),
		Savings:       withVAT(savings, vatRate),
		VATAmount:     total.Mul(vatRate),
	}, nil
}
