package models

// CandidateRecord is the backend's canonical view of an uploaded résumé.
// The authoritative copy lives server-side; every field beyond ID and
// Filename is optional and may be absent depending on backend version.
type CandidateRecord struct {
	ID               string                 `json:"id"`
	Filename         string                 `json:"filename"`
	Content          string                 `json:"content,omitempty"`
	ExtractedText    string                 `json:"extracted_text,omitempty"`
	StandardizedData map[string]interface{} `json:"standardized_data,omitempty"`
	UploadDate       string                 `json:"upload_date,omitempty"`
	FileSize         int64                  `json:"file_size,omitempty"`
	FileType         string                 `json:"file_type,omitempty"`
	LinesCount       int                    `json:"lines_count,omitempty"`
	WordsCount       int                    `json:"words_count,omitempty"`
}

// Text returns the best available text for a record: the server-extracted
// text when present, otherwise the raw content.
func (c CandidateRecord) Text() string {
	if c.ExtractedText != "" {
		return c.ExtractedText
	}
	return c.Content
}

// SearchResult is one hit from the backend's semantic search endpoint.
type SearchResult struct {
	ID          string  `json:"id"`
	Score       float64 `json:"score"`
	FullName    string  `json:"full_name,omitempty"`
	JobTitle    string  `json:"job_title,omitempty"`
	Filename    string  `json:"filename"`
	LinesCount  int     `json:"lines_count,omitempty"`
	WordsCount  int     `json:"words_count,omitempty"`
	Timestamp   float64 `json:"timestamp,omitempty"`
	TextPreview string  `json:"text_preview,omitempty"`
}
