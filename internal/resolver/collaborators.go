package resolver

import (
	"context"

	"seopilot/internal/matching"
	"seopilot/internal/reference"
)

// RecordReader reads content record fields. It is implemented by the
// content record store.
type RecordReader interface {
	GetField(ctx context.Context, id int64, field string) (string, error)
	GetMeta(ctx context.Context, id int64, key string) (string, error)
	Terms(ctx context.Context, id int64) ([]string, error)
}

// MetaWriter stores the resolved mapping on a record.
type MetaWriter interface {
	SetMeta(ctx context.Context, id int64, key, value string) error
}

// ReferenceIndex answers point existence checks for reference rows.
type ReferenceIndex interface {
	ReferenceExists(ctx context.Context, category reference.Category, id string) (bool, error)
}

// CandidateSource retrieves fuzzy match candidates.
type CandidateSource interface {
	Candidates(ctx context.Context, q matching.Query) (matching.CandidateSet, error)
}

// Ledger records consumed reference ids per mapping key.
type Ledger interface {
	ConsumedSet(ctx context.Context, key string) ([]string, error)
	Consume(ctx context.Context, key, id string, recordID int64) error
}

// Dependencies bundles the collaborators a Resolver needs.
type Dependencies struct {
	Records    RecordReader
	Meta       MetaWriter
	References ReferenceIndex
	Candidates CandidateSource
	Ledger     Ledger
}
