// Package codec handles the two binary-ish concerns the moderation
// engine owns directly instead of delegating to the storage driver:
// compressing oversized content payloads, and encoding/decoding opaque
// pagination tokens.
//
// Both are grounded on the teacher's src/storage/binary/compression.go
// gzip-above-threshold helper, adapted from a standalone []byte
// CompressedContent value into the spec's JSON envelope shape
// (spec §4.B: {"_compressed":true,"_format":"gzip","data":"<base64>"}).
package codec

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

// JSON is the shared json-iterator instance the codec and mutation/query
// packages serialize through, grounded on the dependency aistore wires
// for its own hot-path JSON handling.
var JSON = jsoniter.ConfigCompatibleWithStandardLibrary

// CompressionThreshold is the content-size cutoff at or above which
// content is gzip-compressed before being written (spec §4.B).
const CompressionThreshold = 1024

// CompressedEnvelope is the on-disk shape of compressed content.
type CompressedEnvelope struct {
	Compressed bool   `json:"_compressed"`
	Format     string `json:"_format"`
	Data       string `json:"data"`
}

// ErrUnsupportedFormat is returned when decompressing an envelope whose
// _format isn't recognized.
var ErrUnsupportedFormat = errors.New("codec: unsupported compression format")

// MaybeCompress gzip-compresses raw content if it's at or above
// CompressionThreshold, returning the interface{} to store verbatim
// (either the original content value or a CompressedEnvelope). raw is
// the JSON-serialized form of the content field, matching how the
// threshold is measured against the marshalled payload size (spec
// §4.B: "above ~1KB").
func MaybeCompress(content interface{}) (interface{}, error) {
	raw, err := JSON.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("codec: marshal content: %w", err)
	}
	if len(raw) < CompressionThreshold {
		return content, nil
	}

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(raw); err != nil {
		return nil, fmt.Errorf("codec: gzip write: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("codec: gzip close: %w", err)
	}

	if buf.Len() >= len(raw) {
		// Compression didn't pay off; store the content as-is.
		return content, nil
	}

	return CompressedEnvelope{
		Compressed: true,
		Format:     "gzip",
		Data:       base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// Decompress reverses MaybeCompress. It accepts either a
// CompressedEnvelope-shaped map (as read back from a storage driver,
// which hands back generic map[string]interface{}) or a
// CompressedEnvelope value directly, and returns the decoded content
// unmarshalled into out.
func Decompress(stored interface{}, out interface{}) error {
	env, isCompressed, err := asEnvelope(stored)
	if err != nil {
		return err
	}
	if !isCompressed {
		raw, err := JSON.Marshal(stored)
		if err != nil {
			return fmt.Errorf("codec: marshal stored content: %w", err)
		}
		return JSON.Unmarshal(raw, out)
	}

	if env.Format != "gzip" {
		return ErrUnsupportedFormat
	}
	compressed, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return fmt.Errorf("codec: invalid base64 payload: %w", err)
	}
	gr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return fmt.Errorf("codec: gzip reader: %w", err)
	}
	defer gr.Close()

	var raw bytes.Buffer
	if _, err := io.Copy(&raw, gr); err != nil {
		return fmt.Errorf("codec: gzip decompress: %w", err)
	}
	return JSON.Unmarshal(raw.Bytes(), out)
}

func asEnvelope(stored interface{}) (CompressedEnvelope, bool, error) {
	switch v := stored.(type) {
	case CompressedEnvelope:
		return v, v.Compressed, nil
	case map[string]interface{}:
		compressed, _ := v["_compressed"].(bool)
		if !compressed {
			return CompressedEnvelope{}, false, nil
		}
		format, _ := v["_format"].(string)
		data, _ := v["data"].(string)
		return CompressedEnvelope{Compressed: true, Format: format, Data: data}, true, nil
	default:
		return CompressedEnvelope{}, false, nil
	}
}
