package models

import "time"

// Result is one application ID together with the markup the status page
// rendered for it.
type Result struct {
	ID   string `json:"id"`
	HTML string `json:"result"`
}

// CompanyResults groups every result checked against one IPO.
type CompanyResults struct {
	Company string   `json:"company"`
	Results []Result `json:"results"`
}

// ResultSet is the persisted list of company groups, most recently updated first.
type ResultSet []CompanyResults

type AckStatus string

const (
	AckProcessing AckStatus = "processing"
	AckError      AckStatus = "error"
)

// Ack is the dispatcher's immediate answer to a batch request.
type Ack struct {
	Status  AckStatus `json:"status"`
	Message string    `json:"message,omitempty"`
	JobID   string    `json:"job_id,omitempty"`
}

// Queue is the session slot describing the batch most recently dispatched.
type Queue struct {
	JobID     string    `json:"job_id"`
	IDs       []string  `json:"ids"`
	StartedAt time.Time `json:"started_at"`
}

type Tally struct {
	Company     string
	Allotted    int
	NotAllotted int
}

func (t Tally) Total() int {
	return t.Allotted + t.NotAllotted
}

// AllottedPercent returns the allotted share in the range 0-100.
func (t Tally) AllottedPercent() float64 {
	total := t.Total()
	if total == 0 {
		return 0
	}
	return float64(t.Allotted) / float64(total) * 100
}
