package experiments

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTreeMap/FlareFunnel/internal/models"
	"github.com/BTreeMap/FlareFunnel/internal/store"
)

func TestWilsonInterval(t *testing.T) {
	lo, hi := WilsonInterval(0, 0, 0.95)
	assert.Zero(t, lo)
	assert.Zero(t, hi)

	lo, hi = WilsonInterval(50, 100, 0.95)
	assert.InDelta(t, 0.4038, lo, 0.001)
	assert.InDelta(t, 0.5962, hi, 0.001)

	lo, hi = WilsonInterval(0, 10, 0.95)
	assert.Zero(t, lo)
	assert.Greater(t, hi, 0.0)

	lo, hi = WilsonInterval(10, 10, 0.95)
	assert.Less(t, lo, 1.0)
	assert.LessOrEqual(t, hi, 1.0)
}

func TestSignificanceTest(t *testing.T) {
	tests := []struct {
		name                         string
		aConv, aViews, bConv, bViews int
		check                        func(float64) bool
	}{
		{"clear winner", 100, 1000, 50, 1000, func(c float64) bool { return c > 0.95 }},
		{"equal rates", 50, 1000, 50, 1000, func(c float64) bool { return math.Abs(c-0.5) < 1e-9 }},
		{"small sample", 5, 20, 2, 20, func(c float64) bool { return c < 0.95 }},
		{"no views", 0, 0, 0, 0, func(c float64) bool { return c == 0.5 }},
		{"one side empty", 10, 100, 0, 0, func(c float64) bool { return c == 0.5 }},
		{"no conversions anywhere", 0, 100, 0, 100, func(c float64) bool { return c == 0.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := SignificanceTest(tt.aConv, tt.aViews, tt.bConv, tt.bViews)
			assert.True(t, tt.check(c), "confidence %f", c)
		})
	}
}

func TestAssignVariant_StableAndWeighted(t *testing.T) {
	for i := 0; i < 50; i++ {
		visitor := fmt.Sprintf("visitor-%d", i)
		first := AssignVariant("hero", visitor, 3, nil)
		assert.Equal(t, first, AssignVariant("hero", visitor, 3, nil))
		assert.GreaterOrEqual(t, first, 0)
		assert.Less(t, first, 3)
	}

	counts := make([]int, 2)
	for i := 0; i < 4000; i++ {
		counts[AssignVariant("weighted", fmt.Sprintf("v%d", i), 2, []float64{9, 1})]++
	}
	assert.Greater(t, counts[0], counts[1]*4, "a 9:1 split should favour variant 0 heavily: %v", counts)
	assert.Greater(t, counts[1], 0)

	assert.Equal(t, 0, AssignVariant("single", "v", 1, nil))
}

func newService(t *testing.T) (*Service, context.Context) {
	t.Helper()
	return NewService(store.NewInMemoryStore()), context.Background()
}

func TestCreate_Validation(t *testing.T) {
	svc, ctx := newService(t)

	_, err := svc.Create(ctx, " ", []string{"a", "b"}, nil)
	assert.ErrorIs(t, err, models.ErrEmptyExperimentName)
	_, err = svc.Create(ctx, "x", []string{"a"}, nil)
	assert.ErrorIs(t, err, models.ErrInvalidVariants)
	_, err = svc.Create(ctx, "x", []string{"a", ""}, nil)
	assert.ErrorIs(t, err, models.ErrInvalidVariants)
	_, err = svc.Create(ctx, "x", []string{"a", "b"}, []float64{1})
	assert.ErrorIs(t, err, models.ErrInvalidWeights)
	_, err = svc.Create(ctx, "x", []string{"a", "b"}, []float64{1, 0})
	assert.ErrorIs(t, err, models.ErrInvalidWeights)

	_, err = svc.Create(ctx, "x", []string{"a", "b"}, nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "x", []string{"a", "b"}, nil)
	assert.ErrorIs(t, err, models.ErrDuplicateExperiment)
}

func TestRecordAndResults(t *testing.T) {
	svc, ctx := newService(t)
	_, err := svc.Create(ctx, "hero", []string{"Know your flares", "Stop guessing"}, nil)
	require.NoError(t, err)

	res, err := svc.Results(ctx, "hero")
	require.NoError(t, err)
	for _, v := range res.Variants {
		assert.Zero(t, v.CILower)
		assert.Zero(t, v.CIUpper)
	}
	assert.Equal(t, 0.5, res.ConfidenceLevel)

	for i := 0; i < 100; i++ {
		visitor := fmt.Sprintf("a%d", i)
		_, err := svc.Record(ctx, "hero", 0, models.EventView, visitor)
		require.NoError(t, err)
		if i < 5 {
			_, err = svc.Record(ctx, "hero", 0, models.EventConvert, visitor)
			require.NoError(t, err)
		}
	}
	for i := 0; i < 100; i++ {
		visitor := fmt.Sprintf("b%d", i)
		_, err := svc.Record(ctx, "hero", 1, models.EventView, visitor)
		require.NoError(t, err)
		if i < 30 {
			_, err = svc.Record(ctx, "hero", 1, models.EventConvert, visitor)
			require.NoError(t, err)
		}
	}

	recorded, err := svc.Record(ctx, "hero", 1, models.EventView, "b0")
	require.NoError(t, err)
	assert.False(t, recorded, "duplicate views are ignored")

	res, err = svc.Results(ctx, "hero")
	require.NoError(t, err)
	assert.Equal(t, 1, res.LeadingVariant)
	assert.Equal(t, 100, res.Variants[1].Views)
	assert.Equal(t, 30, res.Variants[1].Conversions)
	assert.InDelta(t, 0.30, res.Variants[1].Rate, 1e-9)
	assert.True(t, res.Confident)
	assert.Less(t, res.Variants[1].CILower, 0.30)
	assert.Greater(t, res.Variants[1].CIUpper, 0.30)
}

func TestRecord_Errors(t *testing.T) {
	svc, ctx := newService(t)
	_, err := svc.Create(ctx, "hero", []string{"a", "b"}, nil)
	require.NoError(t, err)

	_, err = svc.Record(ctx, "hero", 0, models.ExperimentEventType("click"), "v")
	assert.ErrorIs(t, err, models.ErrInvalidEventType)
	_, err = svc.Record(ctx, "hero", 2, models.EventView, "v")
	assert.ErrorIs(t, err, models.ErrVariantOutOfRange)
	_, err = svc.Record(ctx, "missing", 0, models.EventView, "v")
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, svc.SetState(ctx, "hero", models.ExperimentPaused, nil))
	_, err = svc.Record(ctx, "hero", 0, models.EventView, "v")
	assert.ErrorIs(t, err, models.ErrExperimentNotRunning)
}

func TestAssign_StoppedExperimentServesWinner(t *testing.T) {
	svc, ctx := newService(t)
	_, err := svc.Create(ctx, "hero", []string{"a", "b", "c"}, nil)
	require.NoError(t, err)

	winner := 2
	bad := 5
	assert.ErrorIs(t, svc.SetState(ctx, "hero", models.ExperimentCompleted, &bad), models.ErrVariantOutOfRange)
	require.NoError(t, svc.SetState(ctx, "hero", models.ExperimentCompleted, &winner))

	for _, v := range []string{"x", "y", "z"} {
		got, err := svc.Assign(ctx, "hero", v)
		require.NoError(t, err)
		assert.Equal(t, 2, got)
	}
}

func TestService_OnSQLite(t *testing.T) {
	st, err := store.NewSQLiteStore(store.WithSQLiteDSN(filepath.Join(t.TempDir(), "exp.db")))
	require.NoError(t, err)
	defer st.Close()
	svc, ctx := NewService(st), context.Background()

	_, err = svc.Create(ctx, "cta", []string{"Start", "Try it"}, []float64{1, 3})
	require.NoError(t, err)
	v, err := svc.Assign(ctx, "cta", "visitor-1")
	require.NoError(t, err)
	ok, err := svc.Record(ctx, "cta", v, models.EventView, "visitor-1")
	require.NoError(t, err)
	assert.True(t, ok)

	res, err := svc.Results(ctx, "cta")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Variants[v].Views)
	assert.Equal(t, []float64{1, 3}, res.Experiment.Weights)
}

func TestResults_ConversionsWithoutViews(t *testing.T) {
	svc, ctx := newService(t)
	_, err := svc.Create(ctx, "cta", []string{"Join the beta", "Start tracking"}, nil)
	require.NoError(t, err)

	_, err = svc.Record(ctx, "cta", 0, models.EventView, "v1")
	require.NoError(t, err)
	for _, visitor := range []string{"v1", "v2"} {
		_, err = svc.Record(ctx, "cta", 0, models.EventConvert, visitor)
		require.NoError(t, err)
	}
	_, err = svc.Record(ctx, "cta", 1, models.EventConvert, "v3")
	require.NoError(t, err)

	res, err := svc.Results(ctx, "cta")
	require.NoError(t, err)
	v := res.Variants[0]
	assert.Equal(t, 2, v.Conversions, "raw counts are reported")
	assert.Equal(t, 1.0, v.Rate)
	for _, f := range []float64{v.Rate, v.CILower, v.CIUpper, res.ConfidenceLevel, res.Variants[1].CIUpper} {
		assert.False(t, math.IsNaN(f))
	}
	assert.LessOrEqual(t, v.CIUpper, 1.0)

	_, err = json.Marshal(res)
	assert.NoError(t, err)
}

func TestStats_ClampExcessSuccesses(t *testing.T) {
	lo, hi := WilsonInterval(5, 2, 0.95)
	wantLo, wantHi := WilsonInterval(2, 2, 0.95)
	assert.Equal(t, wantLo, lo)
	assert.Equal(t, wantHi, hi)

	conf := SignificanceTest(3, 1, 0, 10)
	assert.False(t, math.IsNaN(conf))
	assert.Greater(t, conf, 0.95)
}
