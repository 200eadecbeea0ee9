// Package hasher computes the content hashes recorded with each backup
// entry. Hashing happens on the copy stream so the source is read once.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"lukechampine.com/blake3"

	"custodian/logger"
)

type namedHash struct {
	name string
	h    hash.Hash
}

// Digest hashes everything written to it with every selected algorithm.
// Unknown algorithm names are ignored.
type Digest struct {
	hashers []namedHash
}

func New(algorithms []string) *Digest {
	d := &Digest{}
	seen := make(map[string]struct{}, len(algorithms))
	for _, algo := range algorithms {
		if _, ok := seen[algo]; ok {
			continue
		}
		switch algo {
		case "sha256":
			d.hashers = append(d.hashers, namedHash{name: "sha256", h: sha256.New()})
		case "xxh64":
			d.hashers = append(d.hashers, namedHash{name: "xxh64", h: xxhash.New()})
		case "blake3":
			d.hashers = append(d.hashers, namedHash{name: "blake3", h: blake3.New(32, nil)})
		default:
			logger.Warnf("Unsupported hash algorithm: %s", algo)
			continue
		}
		seen[algo] = struct{}{}
	}
	return d
}

func (d *Digest) Write(p []byte) (int, error) {
	for _, entry := range d.hashers {
		_, _ = entry.h.Write(p)
	}
	return len(p), nil
}

// Sums returns the hex digest per algorithm. Empty when no algorithm was
// selected.
func (d *Digest) Sums() map[string]string {
	if len(d.hashers) == 0 {
		return nil
	}
	sums := make(map[string]string, len(d.hashers))
	for _, entry := range d.hashers {
		sums[entry.name] = hex.EncodeToString(entry.h.Sum(nil))
	}
	return sums
}

// ComputeHashes hashes a file on disk with the selected algorithms. Open or
// read failures are logged and yield an empty map.
func ComputeHashes(path string, algorithms []string) map[string]string {
	digest := New(algorithms)
	if len(digest.hashers) == 0 {
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		logger.Warnf("Failed to open file for hashing %s: %v", path, err)
		return nil
	}
	defer file.Close()

	if _, err := io.Copy(digest, file); err != nil {
		logger.Warnf("Failed to hash file %s: %v", path, err)
		return nil
	}
	return digest.Sums()
}
