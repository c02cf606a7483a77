package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grfkit/grfscope/internal/analyzer"
	"github.com/grfkit/grfscope/internal/testutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "grfscope.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grfscope.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestAnalysisRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	res := &analyzer.Result{
		Flags:          analyzer.UsageRefitCost | analyzer.UsageModifyProperty,
		CallbacksUsed:  1<<0x15 | 1<<0x36 | 1<<63,
		CB36Properties: 1 << 0x09,
		CBResult:       0x1234,
		AnimOffsets:    []uint8{0, 4},
	}
	require.NoError(t, s.WriteAnalysis(ctx, "hash-a", res))

	got, ok, err := s.ReadAnalysis(ctx, "hash-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, res, got)
}

func TestAnalysisHighBitsSurviveStorage(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	res := &analyzer.Result{CallbacksUsed: 1 << 63, CB36Properties: ^uint64(0)}
	require.NoError(t, s.WriteAnalysis(ctx, "hash-b", res))

	got, ok, err := s.ReadAnalysis(ctx, "hash-b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1)<<63, got.CallbacksUsed)
	assert.Equal(t, ^uint64(0), got.CB36Properties)
}

func TestAnalysisMissingHash(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.ReadAnalysis(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAnalysisUpsertReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteAnalysis(ctx, "hash-c", &analyzer.Result{Flags: analyzer.UsageRefitCost}))
	require.NoError(t, s.WriteAnalysis(ctx, "hash-c", &analyzer.Result{Flags: analyzer.Usage32DayTick}))

	got, ok, err := s.ReadAnalysis(ctx, "hash-c")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, analyzer.Usage32DayTick, got.Flags)
}

func TestTraceRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	token := uuid.NewString()
	events := []TraceEvent{
		{Token: token, Seq: 0, Kind: TraceEnter, Node: "dispatch"},
		{Token: token, Seq: 1, Kind: TraceBranch, Node: "dispatch", Value: 0x15},
		{Token: token, Seq: 2, Kind: TraceResult, Node: "refit_cost", Value: 0x20},
	}
	require.NoError(t, s.WriteTrace(ctx, events))

	got, err := s.ReadTrace(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, events, got)

	got, err = s.ReadTrace(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriteTraceIsAtomic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	token := testutil.NewFixedTokenGenerator("atomic-check").Generate()
	require.NoError(t, s.WriteTrace(ctx, []TraceEvent{
		{Token: token, Seq: 0, Kind: TraceEnter, Node: "root"},
	}))

	// Duplicate seq violates the primary key; the whole batch rolls
	// back and the original event stays untouched.
	err := s.WriteTrace(ctx, []TraceEvent{
		{Token: token, Seq: 0, Kind: TraceEnter, Node: "other"},
		{Token: token, Seq: 1, Kind: TraceResult, Node: "other", Value: 1},
	})
	require.Error(t, err)

	got, err := s.ReadTrace(ctx, token)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "root", got[0].Node)
}

func TestWriteTraceEmptyBatch(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.WriteTrace(context.Background(), nil))
}
