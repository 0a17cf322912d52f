// Package corpus reads and writes JSONL training corpora.
//
// A corpus is one JSON object per line with at least a string "completion"
// field. Writer appends records under an exclusive file lock; Filter splits a
// corpus into kept and removed records using the classify package; Merge
// concatenates corpora without re-encoding them.
package corpus
