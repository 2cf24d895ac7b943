package models

// MatchResult is one scored candidate from an analyze-and-match run.
// Produced only by the backend (or synthesized by an explicit fallback
// policy); the client renders and sorts it but never reinterprets it.
type MatchResult struct {
	CVID              string   `json:"cv_id"`
	CVFilename        string   `json:"cv_filename"`
	Score             float64  `json:"score"`
	Strengths         []string `json:"strengths"`
	Gaps              []string `json:"gaps"`
	Recommendations   []string `json:"recommendations"`
	OverallAssessment string   `json:"overall_assessment,omitempty"`
}

// AnalysisRequest carries one job description against N candidate texts.
type AnalysisRequest struct {
	JobDescription string   `json:"job_description"`
	CVTexts        []string `json:"cv_texts"`
}

// CandidateTextSeparator joins candidate texts into the single string the
// backend's analyze endpoint expects.
const CandidateTextSeparator = "\n\n--- NEXT CV ---\n\n"

// AnalysisResponse is the backend's reply to an analyze-and-match request.
type AnalysisResponse struct {
	JobID            string        `json:"job_id,omitempty"`
	Matches          []MatchResult `json:"matches"`
	AnalysisDate     string        `json:"analysis_date,omitempty"`
	TotalCVsAnalyzed int           `json:"total_cvs_analyzed,omitempty"`
}
