// Package store is the single source of truth for session state. All
// mutation goes through named actions; each action completes its multi-key
// updates under one lock acquisition so observers never see the file list
// and its progress/status maps out of step.
package store

import (
	"sync"
	"time"

	"cv-analyzer-client/internal/common/logger"
	"cv-analyzer-client/internal/models"
)

// Notification is one transient user-facing message.
type Notification struct {
	Level   string    `json:"level"` // success, warning, error
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

const maxNotifications = 20

// Store holds all UI and session data for one application instance. It is
// constructed explicitly and passed to whoever needs it; there is no
// package-level singleton.
type Store struct {
	mu  sync.RWMutex
	log logger.Logger

	currentTab models.Tab

	candidates      []models.CandidateRecord
	jobDescriptions []models.JobDescription
	matchResults    []models.MatchResult

	uploadedFiles      []models.UploadedFile
	jobDescriptionText string
	jobDescriptionFile *models.UploadedFile
	uploadProgress     map[string]int
	uploadStatus       map[string]models.UploadStatus

	isAnalyzing      bool
	analysisProgress int
	analysisStep     models.AnalysisStep
	runGeneration    uint64

	notifications []Notification

	watcher chan struct{}
}

func New(log logger.Logger) *Store {
	return &Store{
		log:             log,
		currentTab:      models.TabUpload,
		candidates:      []models.CandidateRecord{},
		jobDescriptions: []models.JobDescription{},
		matchResults:    []models.MatchResult{},
		uploadedFiles:   []models.UploadedFile{},
		uploadProgress:  map[string]int{},
		uploadStatus:    map[string]models.UploadStatus{},
		watcher:         make(chan struct{}, 1),
	}
}

// Watch returns a channel that receives a signal after state changes.
// Signals are coalesced; consumers re-read whatever they render.
func (s *Store) Watch() <-chan struct{} {
	return s.watcher
}

func (s *Store) signal() {
	select {
	case s.watcher <- struct{}{}:
	default:
	}
}

// --- UI actions ---

func (s *Store) SetCurrentTab(tab models.Tab) {
	s.mu.Lock()
	s.currentTab = tab
	s.mu.Unlock()
	s.signal()
}

func (s *Store) CurrentTab() models.Tab {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentTab
}

// --- Upload actions ---

// AddUploadedFile registers a selection and seeds its progress and status
// entries so the three structures always share a key set.
func (s *Store) AddUploadedFile(file models.UploadedFile) {
	s.mu.Lock()
	s.uploadedFiles = append(s.uploadedFiles, file)
	s.uploadProgress[file.ID] = 0
	s.uploadStatus[file.ID] = models.UploadPending
	s.mu.Unlock()
	s.signal()
}

// RemoveUploadedFile drops the file and both map entries atomically.
// Removing an unknown id is a no-op.
func (s *Store) RemoveUploadedFile(id string) {
	s.mu.Lock()
	kept := s.uploadedFiles[:0]
	for _, f := range s.uploadedFiles {
		if f.ID != id {
			kept = append(kept, f)
		}
	}
	s.uploadedFiles = kept
	delete(s.uploadProgress, id)
	delete(s.uploadStatus, id)
	s.mu.Unlock()
	s.signal()
}

// UpdateUploadProgress records progress for a file. Writes for ids not in
// the file list are permitted (out-of-order async completion) but have no
// visible effect until the file exists.
func (s *Store) UpdateUploadProgress(id string, progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	s.mu.Lock()
	if s.hasFileLocked(id) {
		s.uploadProgress[id] = progress
	}
	s.mu.Unlock()
	s.signal()
}

func (s *Store) UpdateUploadStatus(id string, status models.UploadStatus) {
	s.mu.Lock()
	if s.hasFileLocked(id) {
		s.uploadStatus[id] = status
	}
	s.mu.Unlock()
	s.signal()
}

func (s *Store) hasFileLocked(id string) bool {
	for _, f := range s.uploadedFiles {
		if f.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) SetJobDescriptionText(text string) {
	s.mu.Lock()
	s.jobDescriptionText = text
	s.mu.Unlock()
	s.signal()
}

func (s *Store) SetJobDescriptionFile(file *models.UploadedFile) {
	s.mu.Lock()
	s.jobDescriptionFile = file
	s.mu.Unlock()
	s.signal()
}

func (s *Store) UploadedFiles() []models.UploadedFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.UploadedFile, len(s.uploadedFiles))
	copy(out, s.uploadedFiles)
	return out
}

func (s *Store) UploadProgress(id string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.uploadProgress[id]
	return p, ok
}

func (s *Store) UploadStatus(id string) (models.UploadStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.uploadStatus[id]
	return st, ok
}

// UploadKeySets returns the id sets of the file list and both maps, used
// to assert they stay in lockstep.
func (s *Store) UploadKeySets() (files, progress, status []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.uploadedFiles {
		files = append(files, f.ID)
	}
	for id := range s.uploadProgress {
		progress = append(progress, id)
	}
	for id := range s.uploadStatus {
		status = append(status, id)
	}
	return files, progress, status
}

func (s *Store) JobDescriptionText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobDescriptionText
}

func (s *Store) JobDescriptionFile() *models.UploadedFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.jobDescriptionFile == nil {
		return nil
	}
	f := *s.jobDescriptionFile
	return &f
}

// --- Entity actions ---

func (s *Store) SetCandidates(cvs []models.CandidateRecord) {
	s.mu.Lock()
	s.candidates = append([]models.CandidateRecord{}, cvs...)
	s.mu.Unlock()
	s.signal()
}

func (s *Store) AddCandidate(cv models.CandidateRecord) {
	s.mu.Lock()
	s.candidates = append(s.candidates, cv)
	s.mu.Unlock()
	s.signal()
}

func (s *Store) RemoveCandidate(id string) {
	s.mu.Lock()
	kept := s.candidates[:0]
	for _, cv := range s.candidates {
		if cv.ID != id {
			kept = append(kept, cv)
		}
	}
	s.candidates = kept
	s.mu.Unlock()
	s.signal()
}

func (s *Store) Candidates() []models.CandidateRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CandidateRecord, len(s.candidates))
	copy(out, s.candidates)
	return out
}

func (s *Store) SetJobDescriptions(jds []models.JobDescription) {
	s.mu.Lock()
	s.jobDescriptions = append([]models.JobDescription{}, jds...)
	s.mu.Unlock()
	s.signal()
}

func (s *Store) AddJobDescription(jd models.JobDescription) {
	s.mu.Lock()
	s.jobDescriptions = append(s.jobDescriptions, jd)
	s.mu.Unlock()
	s.signal()
}

func (s *Store) RemoveJobDescription(id string) {
	s.mu.Lock()
	kept := s.jobDescriptions[:0]
	for _, jd := range s.jobDescriptions {
		if jd.ID != id {
			kept = append(kept, jd)
		}
	}
	s.jobDescriptions = kept
	s.mu.Unlock()
	s.signal()
}

func (s *Store) JobDescriptions() []models.JobDescription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.JobDescription, len(s.jobDescriptions))
	copy(out, s.jobDescriptions)
	return out
}

func (s *Store) MatchResults() []models.MatchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.MatchResult, len(s.matchResults))
	copy(out, s.matchResults)
	return out
}

// --- Analysis run lifecycle ---

// BeginRun starts a new analysis run: the generation counter advances so
// writes from any previous in-flight run are dropped, and progress resets.
// Returns the generation token the orchestrator must present on every
// subsequent write.
func (s *Store) BeginRun() uint64 {
	s.mu.Lock()
	s.runGeneration++
	gen := s.runGeneration
	s.isAnalyzing = true
	s.analysisProgress = 0
	s.analysisStep = models.StepIdle
	s.mu.Unlock()
	s.signal()
	return gen
}

// SetAnalysisProgress advances run progress. Stale generations are dropped;
// within a run progress is monotonically non-decreasing.
func (s *Store) SetAnalysisProgress(gen uint64, progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	s.mu.Lock()
	if gen != s.runGeneration {
		s.mu.Unlock()
		s.log.Debug("dropping stale progress write", map[string]interface{}{
			"generation": gen,
			"current":    s.runGeneration,
		})
		return
	}
	if progress > s.analysisProgress {
		s.analysisProgress = progress
	}
	s.mu.Unlock()
	s.signal()
}

func (s *Store) SetAnalysisStep(gen uint64, step models.AnalysisStep) {
	s.mu.Lock()
	if gen != s.runGeneration {
		s.mu.Unlock()
		return
	}
	s.analysisStep = step
	s.mu.Unlock()
	s.signal()
}

// SetMatchResults replaces the result list wholesale so results always
// reflect the latest completed run, never a merge with a previous one.
func (s *Store) SetMatchResults(gen uint64, results []models.MatchResult) {
	s.mu.Lock()
	if gen != s.runGeneration {
		s.mu.Unlock()
		s.log.Debug("dropping stale match results", map[string]interface{}{
			"generation": gen,
			"current":    s.runGeneration,
		})
		return
	}
	s.matchResults = append([]models.MatchResult{}, results...)
	s.mu.Unlock()
	s.signal()
}

func (s *Store) IsAnalyzing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isAnalyzing
}

func (s *Store) AnalysisProgress() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analysisProgress
}

func (s *Store) AnalysisStep() models.AnalysisStep {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analysisStep
}

func (s *Store) RunGeneration() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runGeneration
}

// --- Notifications ---

// Notify records one transient user-facing message.
func (s *Store) Notify(level, message string) {
	s.mu.Lock()
	s.notifications = append(s.notifications, Notification{
		Level:   level,
		Message: message,
		Time:    time.Now(),
	})
	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}
	s.mu.Unlock()
	s.signal()
}

func (s *Store) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// --- Resets ---

// ResetUploadState clears the selection and both maps together.
func (s *Store) ResetUploadState() {
	s.mu.Lock()
	s.uploadedFiles = []models.UploadedFile{}
	s.jobDescriptionText = ""
	s.jobDescriptionFile = nil
	s.uploadProgress = map[string]int{}
	s.uploadStatus = map[string]models.UploadStatus{}
	s.mu.Unlock()
	s.signal()
}

// ResetAnalysisState returns the transient run slice to neutral values and
// invalidates outstanding generation tokens, so a run that is somehow
// still in flight can no longer write.
func (s *Store) ResetAnalysisState() {
	s.mu.Lock()
	s.runGeneration++
	s.isAnalyzing = false
	s.analysisProgress = 0
	s.analysisStep = models.StepIdle
	s.mu.Unlock()
	s.signal()
}

// FinishRun marks a run's terminal transition. Failed runs reset progress
// to zero; successful ones hold at 100 until the front-end moves on.
func (s *Store) FinishRun(gen uint64, succeeded bool) {
	s.mu.Lock()
	if gen != s.runGeneration {
		s.mu.Unlock()
		return
	}
	s.isAnalyzing = false
	if succeeded {
		s.analysisProgress = 100
	} else {
		s.analysisProgress = 0
	}
	s.analysisStep = models.StepIdle
	s.mu.Unlock()
	s.signal()
}

// ClearAll returns the whole store to initial values.
func (s *Store) ClearAll() {
	s.mu.Lock()
	s.runGeneration++
	s.currentTab = models.TabUpload
	s.candidates = []models.CandidateRecord{}
	s.jobDescriptions = []models.JobDescription{}
	s.matchResults = []models.MatchResult{}
	s.uploadedFiles = []models.UploadedFile{}
	s.jobDescriptionText = ""
	s.jobDescriptionFile = nil
	s.uploadProgress = map[string]int{}
	s.uploadStatus = map[string]models.UploadStatus{}
	s.isAnalyzing = false
	s.analysisProgress = 0
	s.analysisStep = models.StepIdle
	s.notifications = nil
	s.mu.Unlock()
	s.signal()
}
