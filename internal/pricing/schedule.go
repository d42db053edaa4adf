package pricing

import "github.com/shopspring/decimal"

// InstallmentKind identifies a line of the payment structure.
type InstallmentKind string

const (
	UpfrontDeposit      InstallmentKind = "upfront_deposit"
	UpfrontAfterKickoff InstallmentKind = "upfront_after_kickoff"
	UpfrontTotal        InstallmentKind = "upfront_total"
	FirstMonthDeposit   InstallmentKind = "month1_deposit"
	FirstMonthKickoff   InstallmentKind = "month1_after_kickoff"
	FirstMonthTotal     InstallmentKind = "month1_total"
	RecurringMonthly    InstallmentKind = "monthly"
)

// Installment is one payment line. Count is how many times it is billed; summary
// lines (totals) have a zero count.
type Installment struct {
	Kind   InstallmentKind
	Amount Amount
	Count  int
}

// Schedule lays out how a quote is billed. A 12 month term is paid as one
// 20%/80% split of the whole discounted total. Shorter terms split month one only
// and bill the discounted monthly rate from month two onwards.
func Schedule(q Quote) []Installment {
	if q.Term.Upfront() {
		deposit := q.Total.ExVAT.Mul(depositPart)
		return []Installment{
			{Kind: UpfrontDeposit, Amount: withVAT(deposit, q.VATRate), Count: 1},
			{Kind: UpfrontAfterKickoff, Amount: withVAT(q.Total.ExVAT.Sub(deposit), q.VATRate), Count: 1},
			{Kind: UpfrontTotal, Amount: q.Total},
		}
	}
	return []Installment{
		{Kind: FirstMonthDeposit, Amount: q.Deposit, Count: 1},
		{Kind: FirstMonthKickoff, Amount: q.AfterKickoff, Count: 1},
		{Kind: FirstMonthTotal, Amount: q.Monthly},
		{Kind: RecurringMonthly, Amount: q.Monthly, Count: int(q.Term) - 1},
	}
}

// Billed sums the lines of a schedule that are actually charged.
func Billed(lines []Installment) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		if line.Count <= 0 {
			continue
		}
		sum = sum.Add(line.Amount.ExVAT.Mul(decimal.NewFromInt(int64(line.Count))))
	}
	return sum
}
