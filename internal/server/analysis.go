package server

import (
	"context"

	"github.com/splitsig/splitsig/internal/stats"
	"github.com/splitsig/splitsig/internal/store"
)

// AnalysisResponse is the JSON shape dashboards render. It is computed
// fresh from current counts on every request.
type AnalysisResponse struct {
	Experiment     string               `json:"experiment"`
	State          string               `json:"state"`
	Goal           string               `json:"goal,omitempty"`
	Confidence     float64              `json:"confidence"`
	AutoStop       bool                 `json:"auto_stop"`
	Variants       []VariantResponse    `json:"variants"`
	Comparisons    []ComparisonResponse `json:"comparisons"`
	ControlIndex   int                  `json:"control_index"`
	LeadingVariant int                  `json:"leading_variant"`
	RecommendStop  bool                 `json:"recommend_stop"`
	WinnerVariant  *int                 `json:"winner_variant,omitempty"`
}

type VariantResponse struct {
	Index       int     `json:"index"`
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	IsControl   bool    `json:"is_control"`
	Exposures   int     `json:"exposures"`
	Conversions int     `json:"conversions"`
	Rate        float64 `json:"rate"`
	CILower     float64 `json:"ci_lower"`
	CIUpper     float64 `json:"ci_upper"`
}

type ComparisonResponse struct {
	Variant      int     `json:"variant"`
	Name         string  `json:"name"`
	Significant  bool    `json:"significant"`
	PValue       float64 `json:"p_value"`
	ZScore       float64 `json:"z_score"`
	CILower      float64 `json:"ci_lower"`
	CIUpper      float64 `json:"ci_upper"`
	RelativeLift float64 `json:"relative_lift"`
	Power        float64 `json:"power"`
}

func (s *Server) analysisResponse(ctx context.Context, exp *store.Experiment) (AnalysisResponse, error) {
	variantStats, err := s.store.GetVariantStats(ctx, exp.Name)
	if err != nil {
		return AnalysisResponse{}, err
	}

	confidence := exp.ConfidenceLevel
	if confidence == 0 {
		confidence = stats.DefaultConfidence
	}

	analysis, err := stats.Analyze(exp, variantStats, confidence)
	if err != nil {
		return AnalysisResponse{}, err
	}

	response := AnalysisResponse{
		Experiment:     exp.Name,
		State:          string(exp.State),
		Goal:           exp.Goal,
		Confidence:     confidence,
		AutoStop:       exp.AutoStop,
		Variants:       make([]VariantResponse, len(analysis.Variants)),
		Comparisons:    make([]ComparisonResponse, len(analysis.Comparisons)),
		ControlIndex:   analysis.ControlIndex,
		LeadingVariant: analysis.LeadingVariant,
		RecommendStop:  analysis.RecommendStop,
		WinnerVariant:  exp.WinnerVariant,
	}

	for i, v := range analysis.Variants {
		response.Variants[i] = VariantResponse{
			Index:       v.Index,
			ID:          v.ID,
			Name:        v.Name,
			IsControl:   v.IsControl,
			Exposures:   v.Exposures,
			Conversions: v.Conversions,
			Rate:        v.Rate,
			CILower:     v.CILower,
			CIUpper:     v.CIUpper,
		}
	}

	for i, c := range analysis.Comparisons {
		response.Comparisons[i] = ComparisonResponse{
			Variant:      c.VariantIndex,
			Name:         c.VariantName,
			Significant:  c.Significant,
			PValue:       c.PValue,
			ZScore:       c.ZScore,
			CILower:      c.CILower,
			CIUpper:      c.CIUpper,
			RelativeLift: c.RelativeLift,
			Power:        c.Power,
		}
	}

	return response, nil
}
