// Package reference defines the reference data model: the closed set of
// reference categories with their fixed column layouts, the immutable Row
// type, and the identifier canonicalization shared by import, resolution, and
// backfill.
package reference
