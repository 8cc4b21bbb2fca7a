// Package ledger guarantees that a reference row is claimed by at most one
// content record per mapping key. Claims are append-only and durable.
package ledger
