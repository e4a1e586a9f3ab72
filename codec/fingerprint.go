package codec

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentFingerprint returns a hex sha256 digest of content's canonical
// JSON encoding, for dedupe diagnostics (spec §4.B content handling):
// two submissions with byte-identical content after marshalling produce
// the same fingerprint, the way the teacher tags an entity with
// "content:checksum:sha256:<hash>" before comparing checksums rather
// than raw payloads. A nil content fingerprints to "".
func ContentFingerprint(content interface{}) (string, error) {
	if content == nil {
		return "", nil
	}
	raw, err := JSON.Marshal(content)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
