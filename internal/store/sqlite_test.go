package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitsig/splitsig/internal/store"
	"github.com/splitsig/splitsig/internal/testutil"
)

func createParams(name string, variants ...string) store.ExperimentParams {
	return store.ExperimentParams{
		Name:       name,
		Variants:   variants,
		Confidence: 0.95,
	}
}

func TestCreateExperiment(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	exp, err := s.CreateExperiment(ctx, store.ExperimentParams{
		Name:         "hero",
		Variants:     []string{"Control", "Variant B"},
		ControlIndex: 0,
		Confidence:   0.99,
		AutoStop:     true,
		Goal:         "signup clicks",
	})
	require.NoError(t, err)

	assert.Equal(t, "hero", exp.Name)
	assert.Equal(t, store.StateRunning, exp.State)
	assert.Equal(t, 0.99, exp.ConfidenceLevel)
	assert.True(t, exp.AutoStop)
	assert.Equal(t, "signup clicks", exp.Goal)

	require.Len(t, exp.Variants, 2)
	assert.True(t, exp.Variants[0].IsControl)
	assert.False(t, exp.Variants[1].IsControl)
	assert.NotEmpty(t, exp.Variants[0].ID)
	assert.NotEqual(t, exp.Variants[0].ID, exp.Variants[1].ID)
}

func TestCreateExperiment_Validation(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	_, err := s.CreateExperiment(ctx, createParams("one-arm", "A"))
	assert.Error(t, err)

	_, err = s.CreateExperiment(ctx, store.ExperimentParams{
		Name: "bad-control", Variants: []string{"A", "B"}, ControlIndex: 5,
	})
	assert.Error(t, err)

	_, err = s.CreateExperiment(ctx, store.ExperimentParams{
		Name: "bad-confidence", Variants: []string{"A", "B"}, Confidence: 1.5,
	})
	assert.Error(t, err)
}

func TestCreateExperiment_DuplicateName(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	_, err := s.CreateExperiment(ctx, createParams("hero", "A", "B"))
	require.NoError(t, err)

	_, err = s.CreateExperiment(ctx, createParams("hero", "C", "D"))
	assert.Error(t, err)
}

func TestGetExperiment_RoundTrip(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	created, err := s.CreateExperiment(ctx, store.ExperimentParams{
		Name:         "hero",
		Variants:     []string{"A", "B", "C"},
		ControlIndex: 1,
		Confidence:   0.9,
		AutoStop:     true,
	})
	require.NoError(t, err)

	got, err := s.GetExperiment(ctx, "hero")
	require.NoError(t, err)

	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Variants, got.Variants)
	assert.Equal(t, 1, got.ControlIndex())
	assert.Equal(t, 0.9, got.ConfidenceLevel)
	assert.True(t, got.AutoStop)
	assert.Nil(t, got.WinnerVariant)
}

func TestGetExperiment_NotFound(t *testing.T) {
	s := testutil.SetupTestStore(t)

	_, err := s.GetExperiment(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListExperiments(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	_, err := s.CreateExperiment(ctx, createParams("first", "A", "B"))
	require.NoError(t, err)
	_, err = s.CreateExperiment(ctx, createParams("second", "A", "B"))
	require.NoError(t, err)

	experiments, err := s.ListExperiments(ctx)
	require.NoError(t, err)
	assert.Len(t, experiments, 2)
}

func TestSetWinner(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	_, err := s.CreateExperiment(ctx, createParams("hero", "A", "B"))
	require.NoError(t, err)

	require.NoError(t, s.SetWinner(ctx, "hero", 1))

	got, err := s.GetExperiment(ctx, "hero")
	require.NoError(t, err)
	assert.Equal(t, store.StateCompleted, got.State)
	require.NotNil(t, got.WinnerVariant)
	assert.Equal(t, 1, *got.WinnerVariant)

	assert.ErrorIs(t, s.SetWinner(ctx, "missing", 0), store.ErrNotFound)
}

func TestUpdateExperimentState(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	_, err := s.CreateExperiment(ctx, createParams("hero", "A", "B"))
	require.NoError(t, err)

	require.NoError(t, s.UpdateExperimentState(ctx, "hero", store.StatePaused))

	got, err := s.GetExperiment(ctx, "hero")
	require.NoError(t, err)
	assert.Equal(t, store.StatePaused, got.State)

	assert.ErrorIs(t, s.UpdateExperimentState(ctx, "missing", store.StatePaused), store.ErrNotFound)
}

func TestDeleteExperiment(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	_, err := s.CreateExperiment(ctx, createParams("hero", "A", "B"))
	require.NoError(t, err)
	require.NoError(t, s.RecordEvent(ctx, "hero", 0, store.EventExposure, "v1"))

	require.NoError(t, s.DeleteExperiment(ctx, "hero"))

	_, err = s.GetExperiment(ctx, "hero")
	assert.ErrorIs(t, err, store.ErrNotFound)

	events, err := s.GetEvents(ctx, "hero")
	require.NoError(t, err)
	assert.Empty(t, events)

	assert.ErrorIs(t, s.DeleteExperiment(ctx, "hero"), store.ErrNotFound)
}

func TestRecordEvent_Deduplication(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	_, err := s.CreateExperiment(ctx, createParams("hero", "A", "B"))
	require.NoError(t, err)

	// Same visitor, same event type: counted once.
	require.NoError(t, s.RecordEvent(ctx, "hero", 0, store.EventExposure, "v1"))
	require.NoError(t, s.RecordEvent(ctx, "hero", 0, store.EventExposure, "v1"))
	require.NoError(t, s.RecordEvent(ctx, "hero", 0, store.EventConvert, "v1"))

	// Different visitor: counted separately.
	require.NoError(t, s.RecordEvent(ctx, "hero", 1, store.EventExposure, "v2"))

	stats, err := s.GetVariantStats(ctx, "hero")
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, 0, stats[0].Variant)
	assert.Equal(t, 1, stats[0].Exposures)
	assert.Equal(t, 1, stats[0].Conversions)

	assert.Equal(t, 1, stats[1].Variant)
	assert.Equal(t, 1, stats[1].Exposures)
	assert.Equal(t, 0, stats[1].Conversions)
}

func TestGetVariantStats_Empty(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	_, err := s.CreateExperiment(ctx, createParams("hero", "A", "B"))
	require.NoError(t, err)

	stats, err := s.GetVariantStats(ctx, "hero")
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestGetEvents(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	_, err := s.CreateExperiment(ctx, createParams("hero", "A", "B"))
	require.NoError(t, err)

	require.NoError(t, s.RecordEvent(ctx, "hero", 0, store.EventExposure, "v1"))
	require.NoError(t, s.RecordEvent(ctx, "hero", 1, store.EventExposure, "v2"))

	events, err := s.GetEvents(ctx, "hero")
	require.NoError(t, err)
	require.Len(t, events, 2)

	for _, e := range events {
		assert.Equal(t, "hero", e.Experiment)
		assert.Equal(t, store.EventExposure, e.EventType)
		assert.False(t, e.CreatedAt.IsZero())
	}
}
