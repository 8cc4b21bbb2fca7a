// Package scheduler pages through content records in bounded batches.
//
// A tick runs the titles, video H2, and model H2 passes in that order. Each
// pass lists up to batch.size published records past its cursor, resolves
// each one, commits fuzzy matches, and hands the reference row to the
// write-back pipeline. The cursor moves past every record that completed,
// whatever its outcome; a storage fault ends the pass with the cursor at the
// last completed record. A non-forced tick that finds no records in any pass
// clears the running flag.
package scheduler
