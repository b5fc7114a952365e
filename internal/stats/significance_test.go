package stats_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitsig/splitsig/internal/stats"
)

func variant(name string, exposures, conversions int) stats.Variant {
	return stats.Variant{Name: name, Exposures: exposures, Conversions: conversions}
}

func requireFinite(t *testing.T, r stats.Result) {
	t.Helper()
	for name, v := range map[string]float64{
		"PValue":       r.PValue,
		"ZScore":       r.ZScore,
		"CILower":      r.CILower,
		"CIUpper":      r.CIUpper,
		"RelativeLift": r.RelativeLift,
		"Power":        r.Power,
	} {
		require.False(t, math.IsNaN(v), "%s is NaN", name)
		require.False(t, math.IsInf(v, 0), "%s is infinite", name)
	}
}

func TestCompare_ClearWin(t *testing.T) {
	// Control 5% (50/1000) vs variant 8% (80/1000): the observed gap is
	// far outside noise at 95%.
	res, err := stats.Compare(variant("control", 1000, 50), variant("b", 1000, 80), 0.95)
	require.NoError(t, err)
	requireFinite(t, res)

	assert.True(t, res.Significant)
	assert.Less(t, res.PValue, 0.05)
	assert.InDelta(t, 0.0065, res.PValue, 0.001)
	assert.InDelta(t, 60.0, res.RelativeLift, 0.5)
	assert.InDelta(t, 0.78, res.Power, 0.02)

	// CI on the absolute difference should cover the observed 0.03 gap
	// and exclude zero.
	assert.Less(t, res.CILower, 0.03)
	assert.Greater(t, res.CIUpper, 0.03)
	assert.Greater(t, res.CILower, 0.0)
}

func TestCompare_NoDetectableDifference(t *testing.T) {
	// 5% vs 5.5% at n=200 per arm: sample far too small to distinguish.
	res, err := stats.Compare(variant("control", 200, 10), variant("b", 200, 11), 0.95)
	require.NoError(t, err)
	requireFinite(t, res)

	assert.False(t, res.Significant)
	assert.Greater(t, res.PValue, 0.05)
}

func TestCompare_LargeSampleTinyEffect(t *testing.T) {
	// 4.9% vs 5.0% at a million exposures per arm: tiny absolute gap,
	// but sample size drives it past the threshold.
	res, err := stats.Compare(variant("control", 1000000, 49000), variant("b", 1000000, 50000), 0.95)
	require.NoError(t, err)
	requireFinite(t, res)

	assert.True(t, res.Significant)
	assert.Less(t, res.PValue, 0.05)
}

func TestCompare_ZeroEffectNull(t *testing.T) {
	res, err := stats.Compare(variant("control", 1000, 50), variant("b", 1000, 50), 0.95)
	require.NoError(t, err)
	requireFinite(t, res)

	assert.False(t, res.Significant)
	assert.InDelta(t, 1.0, res.PValue, 1e-12)
	assert.Zero(t, res.RelativeLift)
	assert.Zero(t, res.ZScore)
}

func TestCompare_Symmetry(t *testing.T) {
	a := variant("a", 1000, 50)
	b := variant("b", 1000, 80)

	forward, err := stats.Compare(a, b, 0.95)
	require.NoError(t, err)
	backward, err := stats.Compare(b, a, 0.95)
	require.NoError(t, err)

	// Two-tailed test is symmetric in the magnitude of the difference.
	assert.InDelta(t, forward.PValue, backward.PValue, 1e-12)
	assert.InDelta(t, forward.Power, backward.Power, 1e-12)
	assert.Equal(t, forward.Significant, backward.Significant)

	// Swapping arms negates the sign of the lift.
	assert.Positive(t, forward.RelativeLift)
	assert.Negative(t, backward.RelativeLift)

	// And mirrors the CI around zero.
	assert.InDelta(t, forward.CILower, -backward.CIUpper, 1e-12)
	assert.InDelta(t, forward.CIUpper, -backward.CILower, 1e-12)
}

func TestCompare_Monotonicity(t *testing.T) {
	// Holding sample sizes fixed, widening the conversion gap never
	// increases the p-value.
	control := variant("control", 1000, 50)

	prev := math.Inf(1)
	for conversions := 50; conversions <= 120; conversions += 10 {
		res, err := stats.Compare(control, variant("b", 1000, conversions), 0.95)
		require.NoError(t, err)

		assert.LessOrEqual(t, res.PValue, prev,
			"p-value increased when gap widened (conversions=%d)", conversions)
		prev = res.PValue
	}
}

func TestCompare_ZeroExposures(t *testing.T) {
	cases := []struct {
		name             string
		control, variant stats.Variant
	}{
		{"control empty", variant("control", 0, 0), variant("b", 100, 10)},
		{"variant empty", variant("control", 100, 10), variant("b", 0, 0)},
		{"both empty", variant("control", 0, 0), variant("b", 0, 0)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := stats.Compare(tc.control, tc.variant, 0.95)
			require.NoError(t, err)
			requireFinite(t, res)

			assert.False(t, res.Significant)
			assert.Equal(t, 1.0, res.PValue)
			assert.Zero(t, res.Power)
			assert.Zero(t, res.RelativeLift)
			assert.Zero(t, res.CILower)
			assert.Zero(t, res.CIUpper)
		})
	}
}

func TestCompare_ZeroControlRate(t *testing.T) {
	// Lift is undefined as a ratio when the control never converts;
	// report 0 but still run the test on the absolute difference.
	res, err := stats.Compare(variant("control", 1000, 0), variant("b", 1000, 40), 0.95)
	require.NoError(t, err)
	requireFinite(t, res)

	assert.Zero(t, res.RelativeLift)
	assert.True(t, res.Significant)
	assert.Less(t, res.PValue, 0.05)
}

func TestCompare_ZeroPooledVariance(t *testing.T) {
	// Nobody converts anywhere: no signal, conservative verdict.
	res, err := stats.Compare(variant("control", 100, 0), variant("b", 100, 0), 0.95)
	require.NoError(t, err)
	requireFinite(t, res)

	assert.False(t, res.Significant)
	assert.Equal(t, 1.0, res.PValue)
	assert.Zero(t, res.Power)

	// Everybody converts everywhere: same story.
	res, err = stats.Compare(variant("control", 100, 100), variant("b", 100, 100), 0.95)
	require.NoError(t, err)
	requireFinite(t, res)

	assert.False(t, res.Significant)
	assert.Equal(t, 1.0, res.PValue)
}

func TestCompare_PowerBounds(t *testing.T) {
	cases := []struct {
		n1, c1, n2, c2 int
	}{
		{10, 1, 10, 9},
		{100, 5, 100, 6},
		{1000, 50, 1000, 80},
		{1000, 500, 1000, 900},
		{50, 0, 50, 50},
		{1000000, 49000, 1000000, 50000},
	}

	for _, tc := range cases {
		res, err := stats.Compare(variant("control", tc.n1, tc.c1), variant("b", tc.n2, tc.c2), 0.95)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, res.Power, 0.0)
		assert.LessOrEqual(t, res.Power, 1.0)
	}
}

func TestCompare_InvalidConfidence(t *testing.T) {
	for _, confidence := range []float64{0, 1, -0.5, 1.2} {
		_, err := stats.Compare(variant("control", 100, 10), variant("b", 100, 10), confidence)
		require.ErrorIs(t, err, stats.ErrInvalidConfidence, "confidence=%g", confidence)
	}
}

func TestCompare_InvalidCounts(t *testing.T) {
	cases := []struct {
		name             string
		control, variant stats.Variant
	}{
		{"negative exposures", variant("control", -1, 0), variant("b", 100, 10)},
		{"negative conversions", variant("control", 100, -5), variant("b", 100, 10)},
		{"conversions exceed exposures", variant("control", 100, 10), variant("b", 10, 11)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := stats.Compare(tc.control, tc.variant, 0.95)
			require.ErrorIs(t, err, stats.ErrInvalidCounts)
		})
	}
}

func TestVariant_Rate(t *testing.T) {
	assert.Zero(t, variant("empty", 0, 0).Rate())
	assert.InDelta(t, 0.05, variant("a", 1000, 50).Rate(), 1e-12)
	assert.InDelta(t, 1.0, variant("all", 10, 10).Rate(), 1e-12)
}
