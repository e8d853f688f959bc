package model

import (
	"strings"

	"github.com/graphknit/graphknit/pkg/errors"
)

// ErrMalformedRecord indicates a hashes or index line that does not split
// into a name and a content hash
var ErrMalformedRecord = errors.New("malformed index record")

// FormatIndexRecord renders one hashes or index line. The name may contain
// spaces, the hash cannot, so the hash goes last.
func FormatIndexRecord(name, hash string) string {
	return name + " " + hash + "\n"
}

// ParseIndexRecord splits a hashes or index line into name and content
// hash
func ParseIndexRecord(line string) (string, string, error) {
	cut := strings.LastIndexByte(line, ' ')
	if cut <= 0 || cut == len(line)-1 {
		return "", "", ErrMalformedRecord.WrapMessage("%q", line)
	}
	return line[:cut], line[cut+1:], nil
}
