package store

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-analyzer-client/internal/common/logger"
	"cv-analyzer-client/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(logger.NewTestLogger(t))
}

func file(id, name string) models.UploadedFile {
	return models.UploadedFile{ID: id, Name: name, Ext: ".pdf"}
}

func TestUploadKeySetsStayInLockstep(t *testing.T) {
	s := newTestStore(t)

	s.AddUploadedFile(file("a", "a.pdf"))
	s.AddUploadedFile(file("b", "b.pdf"))
	s.AddUploadedFile(file("c", "c.pdf"))
	s.UpdateUploadProgress("b", 40)
	s.UpdateUploadStatus("b", models.UploadUploading)
	s.RemoveUploadedFile("a")
	s.AddUploadedFile(file("d", "d.pdf"))
	s.RemoveUploadedFile("c")

	files, progress, status := s.UploadKeySets()
	sort.Strings(files)
	sort.Strings(progress)
	sort.Strings(status)
	assert.Equal(t, []string{"b", "d"}, files)
	assert.Equal(t, files, progress)
	assert.Equal(t, files, status)
}

func TestRemoveUnknownFileIsNoOp(t *testing.T) {
	s := newTestStore(t)
	s.AddUploadedFile(file("a", "a.pdf"))

	s.RemoveUploadedFile("nope")

	assert.Len(t, s.UploadedFiles(), 1)
}

func TestProgressWriteForUnknownIDHasNoEffect(t *testing.T) {
	s := newTestStore(t)

	s.UpdateUploadProgress("ghost", 50)
	s.UpdateUploadStatus("ghost", models.UploadSuccess)

	_, _, status := s.UploadKeySets()
	assert.Empty(t, status)
}

func TestAddedFileStartsPendingAtZero(t *testing.T) {
	s := newTestStore(t)
	s.AddUploadedFile(file("a", "a.pdf"))

	p, ok := s.UploadProgress("a")
	require.True(t, ok)
	assert.Equal(t, 0, p)
	st, ok := s.UploadStatus("a")
	require.True(t, ok)
	assert.Equal(t, models.UploadPending, st)
}

func TestSetMatchResultsReplacesWholesale(t *testing.T) {
	s := newTestStore(t)

	gen := s.BeginRun()
	s.SetMatchResults(gen, []models.MatchResult{
		{CVID: "1", Score: 80},
		{CVID: "2", Score: 60},
		{CVID: "3", Score: 40},
	})
	s.FinishRun(gen, true)

	gen = s.BeginRun()
	s.SetMatchResults(gen, []models.MatchResult{{CVID: "9", Score: 91}})
	s.FinishRun(gen, true)

	results := s.MatchResults()
	require.Len(t, results, 1)
	assert.Equal(t, "9", results[0].CVID)
}

func TestStaleGenerationWritesAreDropped(t *testing.T) {
	s := newTestStore(t)

	stale := s.BeginRun()
	current := s.BeginRun()
	s.SetMatchResults(current, []models.MatchResult{{CVID: "current"}})
	s.SetAnalysisProgress(current, 70)

	s.SetMatchResults(stale, []models.MatchResult{{CVID: "stale"}})
	s.SetAnalysisProgress(stale, 99)
	s.SetAnalysisStep(stale, models.StepUploading)

	results := s.MatchResults()
	require.Len(t, results, 1)
	assert.Equal(t, "current", results[0].CVID)
	assert.Equal(t, 70, s.AnalysisProgress())
	assert.Equal(t, models.StepIdle, s.AnalysisStep())
}

func TestAnalysisProgressIsMonotoneWithinRun(t *testing.T) {
	s := newTestStore(t)

	gen := s.BeginRun()
	s.SetAnalysisProgress(gen, 30)
	s.SetAnalysisProgress(gen, 70)
	s.SetAnalysisProgress(gen, 55)

	assert.Equal(t, 70, s.AnalysisProgress())
}

func TestBeginRunResetsProgress(t *testing.T) {
	s := newTestStore(t)

	gen := s.BeginRun()
	s.SetAnalysisProgress(gen, 80)
	s.FinishRun(gen, true)

	s.BeginRun()
	assert.Equal(t, 0, s.AnalysisProgress())
	assert.True(t, s.IsAnalyzing())
}

func TestFinishRunClearsAnalyzingFlag(t *testing.T) {
	s := newTestStore(t)

	gen := s.BeginRun()
	s.SetAnalysisProgress(gen, 80)
	s.FinishRun(gen, false)

	assert.False(t, s.IsAnalyzing())
	assert.Equal(t, 0, s.AnalysisProgress())
}

func TestResetAnalysisStateInvalidatesOutstandingGeneration(t *testing.T) {
	s := newTestStore(t)

	gen := s.BeginRun()
	s.ResetAnalysisState()
	s.SetMatchResults(gen, []models.MatchResult{{CVID: "late"}})

	assert.Empty(t, s.MatchResults())
	assert.False(t, s.IsAnalyzing())
}

func TestResetUploadStateClearsSelectionAndMaps(t *testing.T) {
	s := newTestStore(t)
	s.AddUploadedFile(file("a", "a.pdf"))
	s.SetJobDescriptionText("some role")
	jd := file("jd", "jd.pdf")
	s.SetJobDescriptionFile(&jd)

	s.ResetUploadState()

	files, progress, status := s.UploadKeySets()
	assert.Empty(t, files)
	assert.Empty(t, progress)
	assert.Empty(t, status)
	assert.Empty(t, s.JobDescriptionText())
	assert.Nil(t, s.JobDescriptionFile())
}

func TestResetUploadStateLeavesEntitiesAlone(t *testing.T) {
	s := newTestStore(t)
	s.SetCandidates([]models.CandidateRecord{{ID: "cv1"}})
	gen := s.BeginRun()
	s.SetMatchResults(gen, []models.MatchResult{{CVID: "cv1", Score: 75}})
	s.FinishRun(gen, true)
	s.AddUploadedFile(file("a", "a.pdf"))

	s.ResetUploadState()

	assert.Len(t, s.Candidates(), 1)
	assert.Len(t, s.MatchResults(), 1)
}

func TestClearAllReturnsToInitialState(t *testing.T) {
	s := newTestStore(t)
	s.SetCurrentTab(models.TabResults)
	s.SetCandidates([]models.CandidateRecord{{ID: "cv1"}})
	s.SetJobDescriptions([]models.JobDescription{{ID: "jd1"}})
	s.AddUploadedFile(file("a", "a.pdf"))
	s.Notify("error", "boom")

	s.ClearAll()

	assert.Equal(t, models.TabUpload, s.CurrentTab())
	assert.Empty(t, s.Candidates())
	assert.Empty(t, s.JobDescriptions())
	assert.Empty(t, s.MatchResults())
	assert.Empty(t, s.UploadedFiles())
	assert.Empty(t, s.Notifications())
	assert.False(t, s.IsAnalyzing())
}

func TestEntityRemoval(t *testing.T) {
	s := newTestStore(t)
	s.SetCandidates([]models.CandidateRecord{{ID: "cv1"}, {ID: "cv2"}})
	s.SetJobDescriptions([]models.JobDescription{{ID: "jd1"}, {ID: "jd2"}})

	s.RemoveCandidate("cv1")
	s.RemoveJobDescription("jd2")

	cvs := s.Candidates()
	require.Len(t, cvs, 1)
	assert.Equal(t, "cv2", cvs[0].ID)
	jds := s.JobDescriptions()
	require.Len(t, jds, 1)
	assert.Equal(t, "jd1", jds[0].ID)
}

func TestAccessorsReturnCopies(t *testing.T) {
	s := newTestStore(t)
	s.SetCandidates([]models.CandidateRecord{{ID: "cv1", Filename: "a.pdf"}})

	got := s.Candidates()
	got[0].Filename = "mutated.pdf"

	assert.Equal(t, "a.pdf", s.Candidates()[0].Filename)
}

func TestWatchCoalescesSignals(t *testing.T) {
	s := newTestStore(t)

	s.SetCurrentTab(models.TabDatabase)
	s.SetCurrentTab(models.TabSearch)

	select {
	case <-s.Watch():
	default:
		t.Fatal("expected a pending change signal")
	}
	select {
	case <-s.Watch():
		t.Fatal("signals should coalesce")
	default:
	}
}

func TestNotificationsAreCapped(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < maxNotifications+5; i++ {
		s.Notify("warning", "n")
	}
	assert.Len(t, s.Notifications(), maxNotifications)
}
