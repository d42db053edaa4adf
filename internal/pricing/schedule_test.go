package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScheduleUpfrontForTwelveMonths(t *testing.T) {
	rate, _ := ScaleRate(GBP)
	q := mustQuote(t, GBP, rate, Term12)
	lines := Schedule(q)

	require.Len(t, lines, 3)
	require.Equal(t, UpfrontDeposit, lines[0].Kind)
	require.Equal(t, UpfrontAfterKickoff, lines[1].Kind)
	require.Equal(t, UpfrontTotal, lines[2].Kind)
	requireDecimal(t, "5182.08", lines[0].Amount.ExVAT, "deposit")
	requireDecimal(t, "20728.32", lines[1].Amount.ExVAT, "after kickoff")
	requireDecimal(t, "6218.496", lines[0].Amount.IncVAT, "deposit inc vat")
	require.True(t, Billed(lines).Equal(q.Total.ExVAT))
}

func TestScheduleMonthOneSplit(t *testing.T) {
	rate, _ := ScaleRate(USD)
	for _, term := range []Term{Term3, Term6} {
		q := mustQuote(t, USD, rate, term)
		lines := Schedule(q)

		require.Len(t, lines, 4)
		require.Equal(t, FirstMonthDeposit, lines[0].Kind)
		require.True(t, lines[0].Amount.ExVAT.Equal(q.Deposit.ExVAT))
		require.True(t, lines[1].Amount.ExVAT.Equal(q.AfterKickoff.ExVAT))
		require.Equal(t, 0, lines[2].Count)
		require.Equal(t, RecurringMonthly, lines[3].Kind)
		require.Equal(t, int(term)-1, lines[3].Count)
		require.True(t, lines[3].Amount.ExVAT.Equal(q.Monthly.ExVAT))
		require.True(t, Billed(lines).Equal(q.Total.ExVAT), term)
	}
}
