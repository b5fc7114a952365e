package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultConfidence is the confidence level used when callers don't
// specify one.
const DefaultConfidence = 0.95

var (
	// ErrInvalidConfidence is returned when the confidence level is not
	// strictly between 0 and 1.
	ErrInvalidConfidence = errors.New("confidence level must be in (0, 1)")

	// ErrInvalidCounts is returned for negative counts or more
	// conversions than exposures.
	ErrInvalidCounts = errors.New("invalid variant counts")
)

// Variant is a snapshot of one arm of an experiment.
type Variant struct {
	ID          string
	Name        string
	IsControl   bool
	Exposures   int
	Conversions int
}

// Rate returns the conversion rate, 0 when there are no exposures.
func (v Variant) Rate() float64 {
	if v.Exposures == 0 {
		return 0
	}
	return float64(v.Conversions) / float64(v.Exposures)
}

// Result is the verdict of a single control-vs-variant comparison.
// All fields are finite for any valid input; degenerate inputs
// (zero exposures, zero variance) produce conservative defaults
// rather than NaN.
type Result struct {
	Significant  bool
	PValue       float64
	ZScore       float64
	CILower      float64 // bounds on the absolute rate difference p2 - p1
	CIUpper      float64
	RelativeLift float64 // percent change vs control, 0 when control rate is 0
	Power        float64 // post-hoc power, in [0, 1]
}

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// Compare runs a two-proportion z-test of variant against control at the
// given confidence level and quantifies the effect.
//
// The p-value is two-tailed, computed from the pooled standard error. The
// confidence interval is on the absolute rate difference and uses the
// unpooled standard error. Post-hoc power uses the normal approximation
//
//	power = Phi(|z_e| - z_crit) + Phi(-|z_e| - z_crit)
//
// where z_e is the observed difference standardized by the unpooled
// standard error, i.e. the probability of rejecting the null if the
// observed effect were the true effect.
func Compare(control, variant Variant, confidence float64) (Result, error) {
	if confidence <= 0 || confidence >= 1 {
		return Result{}, fmt.Errorf("%w: got %g", ErrInvalidConfidence, confidence)
	}
	for _, v := range [2]Variant{control, variant} {
		if v.Exposures < 0 || v.Conversions < 0 {
			return Result{}, fmt.Errorf("%w: negative counts for %q", ErrInvalidCounts, v.Name)
		}
		if v.Conversions > v.Exposures {
			return Result{}, fmt.Errorf("%w: %q has %d conversions but only %d exposures",
				ErrInvalidCounts, v.Name, v.Conversions, v.Exposures)
		}
	}

	// Need data from both arms to say anything at all.
	if control.Exposures == 0 || variant.Exposures == 0 {
		return Result{PValue: 1}, nil
	}

	n1 := float64(control.Exposures)
	n2 := float64(variant.Exposures)
	p1 := control.Rate()
	p2 := variant.Rate()
	diff := p2 - p1

	alpha := 1 - confidence
	zCrit := ZCritical(confidence)

	res := Result{PValue: 1}

	// Pooled standard error under the null hypothesis p1 = p2.
	pooled := float64(control.Conversions+variant.Conversions) / (n1 + n2)
	seNull := math.Sqrt(pooled * (1 - pooled) * (1/n1 + 1/n2))
	if seNull > 0 {
		res.ZScore = diff / seNull
		res.PValue = 2 * stdNormal.CDF(-math.Abs(res.ZScore))
		res.Significant = res.PValue < alpha
	}

	seUnpooled := math.Sqrt(p1*(1-p1)/n1 + p2*(1-p2)/n2)
	res.CILower = diff - zCrit*seUnpooled
	res.CIUpper = diff + zCrit*seUnpooled

	if p1 > 0 {
		res.RelativeLift = diff / p1 * 100
	}

	if seUnpooled > 0 {
		ze := math.Abs(diff) / seUnpooled
		power := stdNormal.CDF(ze-zCrit) + stdNormal.CDF(-ze-zCrit)
		res.Power = clamp01(power)
	}

	return res, nil
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
