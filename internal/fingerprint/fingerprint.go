// Package fingerprint hashes downloaded page bytes so identical images can be
// recognised within an issue.
package fingerprint

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/xxh3"
)

// Digest is a 128-bit content hash, printed as 32 hex characters.
type Digest [16]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

func (d Digest) IsZero() bool {
	return d == Digest{}
}

func Of(b []byte) Digest {
	return xxh3.Hash128(b).Bytes()
}

func File(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, err
	}
	defer func() {
		_ = f.Close()
	}()

	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return Digest{}, fmt.Errorf("fingerprint %s: %w", path, err)
	}

	return h.Sum128().Bytes(), nil
}

// Parse reads a digest previously produced by Digest.String.
func Parse(s string) (Digest, error) {
	var d Digest
	b, err := hex.DecodeString(s)
	if err != nil {
		return d, err
	}
	if len(b) != len(d) {
		return d, fmt.Errorf("fingerprint: want %d bytes, got %d", len(d), len(b))
	}
	copy(d[:], b)

	return d, nil
}

// Set tracks every digest accepted during one issue scrape.
type Set struct {
	seen map[Digest]int
	last Digest
}

func NewSet() *Set {
	return &Set{seen: make(map[Digest]int)}
}

// Add records d as belonging to page seq. It reports false, and leaves the
// set untouched, when d was already present.
func (s *Set) Add(d Digest, seq int) bool {
	if _, ok := s.seen[d]; ok {
		return false
	}
	s.seen[d] = seq
	s.last = d

	return true
}

// Remember records d without rejecting repeats. Used for pages already on
// disk that are replayed as history.
func (s *Set) Remember(d Digest, seq int) {
	if _, ok := s.seen[d]; !ok {
		s.seen[d] = seq
	}
	s.last = d
}

// Owner returns the page sequence number that first produced d.
func (s *Set) Owner(d Digest) (int, bool) {
	seq, ok := s.seen[d]
	return seq, ok
}

func (s *Set) Last() Digest {
	return s.last
}

func (s *Set) Len() int {
	return len(s.seen)
}
