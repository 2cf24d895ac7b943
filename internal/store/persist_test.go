package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-analyzer-client/internal/common/logger"
	"cv-analyzer-client/internal/models"
)

func newTestSessionStore(t *testing.T) *SessionStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ss := NewSessionStoreWithClient(client, "cv-analyzer:session:test", time.Hour, logger.NewTestLogger(t))
	t.Cleanup(func() { ss.Close() })
	return ss
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	ss := newTestSessionStore(t)

	s := newTestStore(t)
	s.SetCurrentTab(models.TabResults)
	s.SetCandidates([]models.CandidateRecord{{ID: "cv1", Filename: "alice.pdf", WordsCount: 412}})
	s.SetJobDescriptions([]models.JobDescription{{ID: "jd1", Title: "Backend Engineer"}})
	gen := s.BeginRun()
	s.SetMatchResults(gen, []models.MatchResult{{CVID: "cv1", CVFilename: "alice.pdf", Score: 87}})
	s.FinishRun(gen, true)

	require.NoError(t, ss.Save(ctx, s.Snapshot()))

	loaded, ok, err := ss.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	restored := newTestStore(t)
	restored.Restore(loaded)

	assert.Equal(t, models.TabResults, restored.CurrentTab())
	require.Len(t, restored.Candidates(), 1)
	assert.Equal(t, 412, restored.Candidates()[0].WordsCount)
	require.Len(t, restored.JobDescriptions(), 1)
	require.Len(t, restored.MatchResults(), 1)
	assert.Equal(t, float64(87), restored.MatchResults()[0].Score)
}

func TestSnapshotExcludesTransientState(t *testing.T) {
	s := newTestStore(t)
	s.AddUploadedFile(models.UploadedFile{ID: "a", Name: "a.pdf"})
	s.UpdateUploadProgress("a", 50)
	gen := s.BeginRun()
	s.SetAnalysisProgress(gen, 40)

	restored := newTestStore(t)
	restored.Restore(s.Snapshot())

	assert.Empty(t, restored.UploadedFiles())
	assert.False(t, restored.IsAnalyzing())
	assert.Equal(t, 0, restored.AnalysisProgress())
}

func TestRestoreDoesNotDisturbInFlightRun(t *testing.T) {
	ctx := context.Background()
	ss := newTestSessionStore(t)

	saved := newTestStore(t)
	saved.SetCandidates([]models.CandidateRecord{{ID: "cv1"}})
	require.NoError(t, ss.Save(ctx, saved.Snapshot()))

	s := newTestStore(t)
	gen := s.BeginRun()
	s.SetAnalysisProgress(gen, 55)

	loaded, ok, err := ss.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	s.Restore(loaded)

	assert.True(t, s.IsAnalyzing())
	assert.Equal(t, 55, s.AnalysisProgress())
	s.SetAnalysisProgress(gen, 60)
	assert.Equal(t, 60, s.AnalysisProgress())
}

func TestLoadMissingSnapshot(t *testing.T) {
	ss := newTestSessionStore(t)

	_, ok, err := ss.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClearRemovesSnapshot(t *testing.T) {
	ctx := context.Background()
	ss := newTestSessionStore(t)

	require.NoError(t, ss.Save(ctx, newTestStore(t).Snapshot()))
	require.NoError(t, ss.Clear(ctx))

	_, ok, err := ss.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
