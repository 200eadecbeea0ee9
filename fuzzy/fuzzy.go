// Package fuzzy provides similarity hashes recorded with backup entries so
// near-duplicate sensitive files can be spotted across runs by an auditor.
package fuzzy

import (
	"bufio"
	"os"
	"strings"

	"github.com/glaslos/tlsh"
)

// Hasher computes a locality-sensitive digest of a file on disk.
type Hasher interface {
	Name() string
	HashFile(path string) (string, error)
}

// Lookup resolves an algorithm name to its hasher.
func Lookup(name string) (Hasher, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "tlsh":
		return tlshHasher{}, true
	}
	return nil, false
}

type tlshHasher struct{}

func (tlshHasher) Name() string { return "tlsh" }

func (tlshHasher) HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	digest, err := tlsh.HashReader(bufio.NewReader(f))
	if err != nil {
		return "", err
	}
	return digest.String(), nil
}
