package openfiles

import "ffmpegout/internal/fileutil"

// Match reports whether candidate denotes the same file as any member of the
// set, returning that member. Comparison is by file identity, so case
// differences, relative spellings, and links all match. A pair whose
// comparison fails (for example because one side no longer exists) is treated
// as different.
func (s OpenFileSet) Match(candidate string) (string, bool) {
	if candidate == "" {
		return "", false
	}
	for _, member := range s {
		if fileutil.SameFile(candidate, member) {
			return member, true
		}
	}
	return "", false
}
