// Package matching builds search contexts for content records and scores
// reference candidates against them.
//
// The score blends token overlap (0.45), trigram similarity (0.25), and a
// longest-common-substring ratio (0.30). Candidates returned by the full-text
// index get an additional relevance boost capped at 0.4.
package matching
