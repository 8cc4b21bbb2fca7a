// Package resolver links content records to reference rows.
//
// Resolution is split in two phases. Resolve is read-only: it tries the
// authoritative meta value, then fuzzy matching and the record slug in the
// order the mapping strategy selects, and returns a Resolution with an
// ordered trace of the steps it took. Commit is the only place that mutates
// state; for fuzzy results it claims the row in the ledger and writes the id
// back as the record's authoritative mapping so later passes take the cheap
// path.
package resolver
