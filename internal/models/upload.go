package models

// UploadedFile is a locally selected file awaiting upload. The identifier
// is assigned client-side at selection time and never changes.
type UploadedFile struct {
	ID   string
	Name string
	Path string
	Size int64
	Ext  string
}

// UploadStatus tracks the lifecycle of one uploaded file.
type UploadStatus string

const (
	UploadPending   UploadStatus = "pending"
	UploadUploading UploadStatus = "uploading"
	UploadSuccess   UploadStatus = "success"
	UploadError     UploadStatus = "error"
)

// Tab identifies the active view of the embedding front-end.
type Tab string

const (
	TabUpload   Tab = "upload"
	TabDatabase Tab = "database"
	TabResults  Tab = "results"
	TabSearch   Tab = "search"
)

// AnalysisStep labels the orchestrator's current position within a run.
type AnalysisStep string

const (
	StepIdle               AnalysisStep = ""
	StepUploading          AnalysisStep = "Uploading CVs..."
	StepResolvingJD        AnalysisStep = "Processing job description..."
	StepExtractingText     AnalysisStep = "Extracting text from documents..."
	StepSubmittingAnalysis AnalysisStep = "Analyzing with AI..."
	StepProcessingResults  AnalysisStep = "Processing results..."
)
