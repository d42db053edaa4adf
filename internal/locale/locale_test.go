package locale

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/showcase-api/internal/pricing"
)

func TestParseRegion(t *testing.T) {
	r, err := ParseRegion("/us")
	require.NoError(t, err)
	require.Equal(t, US, r)
	require.Equal(t, pricing.USD, r.Currency())
	require.Equal(t, "/US", r.Prefix())

	_, err = ParseRegion("FR")
	require.ErrorIs(t, err, ErrUnknownRegion)

	for _, region := range Regions() {
		require.Equal(t, region, RegionFor(region.Currency()))
	}
}

func TestSpellerConvertsOnlyForUS(t *testing.T) {
	s := DefaultSpeller()
	in := "Hyper Personalisation, Weekly Optimisation sessions and Smart Follow-ups based on behaviour"

	require.Equal(t, "Hyper Personalization, Weekly Optimization sessions and Smart Follow-ups based on behavior", s.For(US)(in))
	require.Equal(t, in, s.For(UK)(in))
	require.Equal(t, in, s.For(EU)(in))
}

func TestSpellerAppliesInOrder(t *testing.T) {
	s := NewSpeller(Substitution{"ab", "x"}, Substitution{"xc", "y"})
	require.Equal(t, "y", s.Convert("abc"))

	s = NewSpeller(Substitution{"xc", "y"}, Substitution{"ab", "x"})
	require.Equal(t, "xc", s.Convert("abc"))
}

func TestSpellerHandlesLongerFormsFirst(t *testing.T) {
	s := DefaultSpeller()
	require.Equal(t, "behavioral insights", s.Convert("behavioural insights"))
	require.Equal(t, "a personalized page", s.Convert("a personalised page"))
}
