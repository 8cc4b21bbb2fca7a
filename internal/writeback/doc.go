// Package writeback turns resolved reference rows into content changes.
//
// Titles rows become SEO title, description, and focus keyword metadata. H2
// rows become a marked HTML block inside the record body; the block is
// replaced in place on later runs so applying the same row twice leaves the
// body unchanged. Every text field passes through the safety filter first and
// a blocked field is never written.
package writeback
