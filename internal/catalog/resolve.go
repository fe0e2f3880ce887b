package catalog

import (
	"strconv"

	"soundunpack/internal/fileutil"
)

// Lookup reports whether key is occupied and, if so, the content digest of
// its source.
type Lookup func(key string) (digest fileutil.Digest, occupied bool, err error)

// Resolve finds the destination for content with digest candidate that wants
// key. It walks key, key_1, key_2, ... and stops at the first slot that is
// free (admit) or already holds identical content (duplicate, not admitted).
func Resolve(key string, candidate fileutil.Digest, lookup Lookup) (string, bool, error) {
	for n := 0; ; n++ {
		slot := suffixed(key, n)
		digest, occupied, err := lookup(slot)
		if err != nil {
			return "", false, err
		}
		if !occupied {
			return slot, true, nil
		}
		if digest == candidate {
			return slot, false, nil
		}
	}
}

func suffixed(key string, n int) string {
	if n == 0 {
		return key
	}
	return fileutil.InsertSuffix(key, "_"+strconv.Itoa(n))
}
