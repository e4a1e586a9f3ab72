package codec

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrTokenInvalid marks a pagination token that doesn't decode to a
// well-formed payload (spec §7 PaginationTokenInvalid).
var ErrTokenInvalid = errors.New("codec: invalid pagination token")

// ErrTokenExpired marks a syntactically valid token whose age exceeds
// its TTL (spec §7 PaginationTokenExpired).
var ErrTokenExpired = errors.New("codec: pagination token expired")

// ErrTokenTooLarge marks a token whose encoded size exceeds the
// configured cap (spec §7 PaginationTokenTooLarge).
var ErrTokenTooLarge = errors.New("codec: pagination token too large")

// PageToken is the decoded shape of an opaque pagination token (spec
// §4.F). Timestamp is the epoch millisecond the token was minted;
// legacy tokens minted before this field existed decode with
// Timestamp == 0 and are accepted (HasTimestamp == false) rather than
// rejected outright.
type PageToken struct {
	LastKey      map[string]interface{} `json:"lastKey"`
	Timestamp    int64                  `json:"timestamp,omitempty"`
	HasTimestamp bool                   `json:"-"`
}

// EncodeToken gzip-compresses and base64-encodes a page token. nowMillis
// stamps the token's mint time so DecodeToken can later enforce ttl.
func EncodeToken(lastKey map[string]interface{}, nowMillis int64) (string, error) {
	raw, err := JSON.Marshal(PageToken{LastKey: lastKey, Timestamp: nowMillis})
	if err != nil {
		return "", fmt.Errorf("codec: marshal page token: %w", err)
	}

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(raw); err != nil {
		return "", fmt.Errorf("codec: gzip page token: %w", err)
	}
	if err := gw.Close(); err != nil {
		return "", fmt.Errorf("codec: gzip close: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeToken reverses EncodeToken, enforcing maxSize on the raw
// encoded string and ttl (in milliseconds) against nowMillis. A ttl of
// zero disables expiry checking.
func DecodeToken(token string, maxSize int, ttlMillis int64, nowMillis int64) (PageToken, error) {
	if maxSize > 0 && len(token) > maxSize {
		return PageToken{}, ErrTokenTooLarge
	}

	compressed, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return PageToken{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	gr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return PageToken{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	defer gr.Close()

	var raw bytes.Buffer
	if _, err := io.Copy(&raw, gr); err != nil {
		return PageToken{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	var generic map[string]interface{}
	if err := JSON.Unmarshal(raw.Bytes(), &generic); err != nil {
		return PageToken{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	var pt PageToken
	if err := JSON.Unmarshal(raw.Bytes(), &pt); err != nil {
		return PageToken{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if pt.LastKey == nil {
		return PageToken{}, ErrTokenInvalid
	}
	if _, ok := generic["timestamp"]; ok {
		pt.HasTimestamp = true
	}

	if pt.HasTimestamp && ttlMillis > 0 {
		if nowMillis-pt.Timestamp > ttlMillis {
			return PageToken{}, ErrTokenExpired
		}
	}
	return pt, nil
}
