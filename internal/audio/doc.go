// Package audio downloads team radio recordings into a work directory.
//
// Files are named radio_<session>_<driver>_<YYYYMMDD_HHMMSS>_<urltag>.<ext>
// where the tag is a short digest of the recording URL. A recording that is
// already present and non-empty is reused.
package audio
