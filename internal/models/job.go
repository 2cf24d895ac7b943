package models

// JobDescription is the backend's canonical view of a job description
// document. Either typed by the user or derived from an uploaded file.
type JobDescription struct {
	ID               string                 `json:"id"`
	Title            string                 `json:"title"`
	Content          string                 `json:"content"`
	Company          string                 `json:"company,omitempty"`
	Location         string                 `json:"location,omitempty"`
	Requirements     []string               `json:"requirements,omitempty"`
	StandardizedData map[string]interface{} `json:"standardized_data,omitempty"`
	CreatedDate      string                 `json:"created_date,omitempty"`
}

// HealthStatus is the backend liveness response. Dependent-service flags
// vary by deployment, so they are kept as an open map.
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service,omitempty"`
	Version   string            `json:"version,omitempty"`
	Timestamp string            `json:"timestamp,omitempty"`
	Services  map[string]string `json:"services,omitempty"`
}

// Healthy reports whether the backend considers itself serviceable.
func (h HealthStatus) Healthy() bool {
	return h.Status == "ok" || h.Status == "healthy"
}
