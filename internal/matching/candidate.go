package matching

import "seopilot/internal/reference"

// Candidate is one reference row offered for scoring.
type Candidate struct {
	ReferenceID string
	Text        string
	// Relevance is set only by the full-text index path.
	Relevance    float64
	HasRelevance bool
}

// CandidateSet is the result of one retrieval attempt.
type CandidateSet struct {
	Items []Candidate
	// Indexed is true when Items came from the full-text index.
	Indexed bool
}

// Query describes one candidate retrieval request.
type Query struct {
	Category   reference.Category
	Context    SearchContext
	MappingKey string
	// RecordID is the record being resolved; its own stored mapping is not
	// treated as a competing link.
	RecordID int64
	// Exclude holds extra reference ids to drop. A SQL-backed source also
	// reads consumed ids from its own ledger table.
	Exclude []string
	Limit   int
	Pool    int
	// UseIndex allows the full-text path.
	UseIndex bool
}
