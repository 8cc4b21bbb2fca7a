// Package textutil provides the deterministic text transforms every matching
// component builds on.
//
// Normalize folds accents, lowercases, and collapses every run of characters
// outside [a-z0-9] into a single space. Tokenize and Trigrams derive the token
// and character 3-gram sets used by the scorer. The similarity helpers
// (Jaccard, TrigramSimilarity, StringSimilarity) all return values in [0,1]
// and define any comparison against an empty input as 0.
package textutil
