package stats

import (
	"github.com/splitsig/splitsig/internal/store"
)

// autoStopPower is the minimum post-hoc power required before a
// significant result is considered safe to act on automatically.
const autoStopPower = 0.8

// VariantSummary contains display statistics for a single arm.
type VariantSummary struct {
	Index       int
	ID          string
	Name        string
	IsControl   bool
	Exposures   int
	Conversions int
	Rate        float64
	CILower     float64 // Wilson interval on the rate itself
	CIUpper     float64
}

// Comparison pairs a challenger arm with its z-test verdict against the
// control arm.
type Comparison struct {
	VariantIndex int
	VariantName  string
	Result
}

// Analysis is the full statistical picture of one experiment at a point
// in time. It is recomputed from fresh counts on every call and never
// cached.
type Analysis struct {
	Variants       []VariantSummary
	Comparisons    []Comparison
	Confidence     float64
	ControlIndex   int
	LeadingVariant int
	// Best is the comparison backing the strongest challenger (highest
	// conversion rate among non-control arms), nil when the experiment
	// has no challenger data.
	Best *Comparison
	// RecommendStop is true when the experiment has auto-stop enabled
	// and the best challenger comparison is significant with adequate
	// power. Acting on it is the caller's decision.
	RecommendStop bool
}

// Analyze computes per-variant summaries and control-vs-challenger
// comparisons for an experiment.
func Analyze(exp *store.Experiment, variantStats []store.VariantStats, confidence float64) (*Analysis, error) {
	statsMap := make(map[int]store.VariantStats)
	for _, s := range variantStats {
		statsMap[s.Variant] = s
	}

	controlIndex := exp.ControlIndex()

	variants := make([]VariantSummary, len(exp.Variants))
	maxRate := 0.0
	leading := 0

	for i, def := range exp.Variants {
		stat := statsMap[i] // zero-valued when no events yet

		rate := 0.0
		if stat.Exposures > 0 {
			rate = float64(stat.Conversions) / float64(stat.Exposures)
		}

		ciLower, ciUpper := WilsonInterval(stat.Conversions, stat.Exposures, confidence)

		variants[i] = VariantSummary{
			Index:       i,
			ID:          def.ID,
			Name:        def.Name,
			IsControl:   i == controlIndex,
			Exposures:   stat.Exposures,
			Conversions: stat.Conversions,
			Rate:        rate,
			CILower:     ciLower,
			CIUpper:     ciUpper,
		}

		if rate > maxRate {
			maxRate = rate
			leading = i
		}
	}

	analysis := &Analysis{
		Variants:       variants,
		Confidence:     confidence,
		ControlIndex:   controlIndex,
		LeadingVariant: leading,
	}

	if len(exp.Variants) == 0 {
		return analysis, nil
	}

	control := toVariant(exp.Variants[controlIndex], variants[controlIndex])

	for i, def := range exp.Variants {
		if i == controlIndex {
			continue
		}

		result, err := Compare(control, toVariant(def, variants[i]), confidence)
		if err != nil {
			return nil, err
		}

		analysis.Comparisons = append(analysis.Comparisons, Comparison{
			VariantIndex: i,
			VariantName:  def.Name,
			Result:       result,
		})
	}

	// The best challenger is the non-control arm with the highest rate.
	bestRate := -1.0
	for i := range analysis.Comparisons {
		c := &analysis.Comparisons[i]
		if rate := variants[c.VariantIndex].Rate; rate > bestRate {
			bestRate = rate
			analysis.Best = c
		}
	}

	if exp.AutoStop && analysis.Best != nil {
		analysis.RecommendStop = analysis.Best.Significant && analysis.Best.Power > autoStopPower
	}

	return analysis, nil
}

func toVariant(def store.VariantDef, summary VariantSummary) Variant {
	return Variant{
		ID:          def.ID,
		Name:        def.Name,
		IsControl:   summary.IsControl,
		Exposures:   summary.Exposures,
		Conversions: summary.Conversions,
	}
}
