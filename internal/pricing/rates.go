package pricing

import "github.com/shopspring/decimal"

// scaleRates are the published Scale plan prices, ex-VAT, in whole units. The
// deposit is 20% rounded down and after-kickoff takes the remainder.
var scaleRates = map[Currency]PlanRate{
	GBP: fixedRate(2699, 539, 2160),
	USD: fixedRate(3428, 685, 2743),
	EUR: fixedRate(3158, 631, 2527),
}

func fixedRate(monthly, deposit, afterKickoff int64) PlanRate {
	return PlanRate{
		MonthlyBase:      decimal.NewFromInt(monthly),
		DepositBase:      decimal.NewFromInt(deposit),
		AfterKickoffBase: decimal.NewFromInt(afterKickoff),
	}
}

// ScaleRate returns the Scale plan rate for a currency.
func ScaleRate(c Currency) (PlanRate, bool) {
	rate, ok := scaleRates[c]
	return rate, ok
}
