// Package idgen defines the cryptographic-random collaborator the
// engine mints moderationIds through.
//
// The teacher's own ID generator (src/models/entity_uuid.go) hand-rolls
// a 32-hex-character identifier with crypto/rand. The spec requires the
// canonical 8-4-4-4-12 UUID v4 form instead, which google/uuid already
// produces and validates; reusing it avoids re-deriving RFC 4122 bit
// twiddling that a battle-tested library already gets right.
package idgen

import (
	"regexp"

	"github.com/google/uuid"
)

// UUIDPattern matches a canonical, lower-case UUID v4 string.
var UUIDPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// Generator mints moderationIds. The interface exists so tests can
// substitute a deterministic sequence instead of real randomness.
type Generator interface {
	NewV4() string
}

// System is the production Generator, backed by google/uuid's
// crypto/rand-seeded v4 generation.
type System struct{}

// NewV4 implements Generator.
func (System) NewV4() string {
	return uuid.New().String()
}

// Valid reports whether s is a canonical, lower-case UUID v4 string.
func Valid(s string) bool {
	return UUIDPattern.MatchString(s)
}

// Sequence is a deterministic Generator for tests: it returns UUIDs
// derived from an incrementing counter instead of randomness, so test
// assertions can predict the generated IDs.
type Sequence struct {
	n uint64
}

// NewV4 implements Generator. It encodes the counter into the low bytes
// of an otherwise-zero UUID and forces the version/variant bits so the
// result still passes Valid, giving deterministic but distinct IDs.
func (s *Sequence) NewV4() string {
	s.n++
	var b [16]byte
	n := s.n
	for i := 15; i >= 8 && n > 0; i-- {
		b[i] = byte(n)
		n >>= 8
	}
	b[6] = (b[6] & 0x0f) | 0x40 // version 4
	b[8] = (b[8] & 0x3f) | 0x80 // RFC 4122 variant
	id, _ := uuid.FromBytes(b[:])
	return id.String()
}
