package sync

import (
	"bytes"
	"compress/gzip"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/derebetadesse/pharmacloud-backend/pkg/config"
	pkgerrors "github.com/derebetadesse/pharmacloud-backend/pkg/errors"
	"github.com/derebetadesse/pharmacloud-backend/pkg/types"
)

const previewBytes = 16

// Envelope is a decoded period payload. Analytics and Sales are nil when the
// client omitted the sub-document.
type Envelope struct {
	Analytics  types.Document
	Sales      types.Document
	Hash       string
	UploadedAt string

	// Body holds the decompressed JSON bytes, the input to the fallback hash.
	Body types.Document

	// WasGzipped reports that the bytes carried the gzip magic. HintMismatch
	// reports a gzip transport hint on bytes that did not.
	WasGzipped   bool
	HintMismatch bool
}

type envelopeWire struct {
	Analytics json.RawMessage `json:"analytics"`
	Sales     json.RawMessage `json:"sales"`
	Hash      string          `json:"hash"`
	UploadedAt string         `json:"uploadedAt"`
}

// Decoder turns raw sync bodies into envelopes. The leading bytes decide
// whether to gunzip; the transport hint is advisory only.
type Decoder struct {
	maxDecompressed int64
}

func NewDecoder(cfg config.SyncConfig) *Decoder {
	max := cfg.MaxDecompressedBytes
	if max <= 0 {
		max = 50 << 20
	}
	return &Decoder{maxDecompressed: max}
}

func (d *Decoder) Decode(raw []byte, transportHint string) (*Envelope, error) {
	if len(raw) == 0 {
		return nil, decodeError("empty payload", raw)
	}

	env := &Envelope{}
	body := raw
	switch {
	case hasGzipMagic(raw):
		env.WasGzipped = true
		inflated, err := d.gunzip(raw)
		if err != nil {
			return nil, err
		}
		body = inflated
	case hintsGzip(transportHint):
		// Hint without the magic bytes. Trust the bytes and parse as JSON.
		env.HintMismatch = true
	}

	var wire envelopeWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, decodeError(fmt.Sprintf("invalid JSON payload: %v", err), raw)
	}

	env.Body = types.Document(body)
	env.Hash = strings.TrimSpace(wire.Hash)
	env.UploadedAt = strings.TrimSpace(wire.UploadedAt)
	if isPresent(wire.Analytics) {
		env.Analytics = types.Document(wire.Analytics)
	}
	if isPresent(wire.Sales) {
		env.Sales = types.Document(wire.Sales)
	}
	return env, nil
}

func (d *Decoder) gunzip(raw []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, decodeError(fmt.Sprintf("failed to decompress payload: %v", err), raw)
	}
	defer reader.Close()

	inflated, err := io.ReadAll(io.LimitReader(reader, d.maxDecompressed+1))
	if err != nil {
		return nil, decodeError(fmt.Sprintf("failed to decompress payload: %v", err), raw)
	}
	if int64(len(inflated)) > d.maxDecompressed {
		return nil, decodeError(fmt.Sprintf("decompressed payload exceeds %d bytes", d.maxDecompressed), raw)
	}
	return inflated, nil
}

func hasGzipMagic(raw []byte) bool {
	return len(raw) >= 2 && raw[0] == 0x1F && raw[1] == 0x8B
}

func hintsGzip(transportHint string) bool {
	return strings.Contains(strings.ToLower(transportHint), "gzip")
}

// isPresent treats absent and JSON null the same way.
func isPresent(doc json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(doc))
	return trimmed != "" && trimmed != "null"
}

// decodeError attaches the diagnostics a pharmacist-side integrator needs to
// see in the response: payload size and hex previews of both ends.
func decodeError(message string, raw []byte) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeDecode, message).
		WithDetails(map[string]any{
			"byteLength": len(raw),
			"head":       hexPreview(raw, false),
			"tail":       hexPreview(raw, true),
		})
}

func hexPreview(raw []byte, fromEnd bool) string {
	if len(raw) == 0 {
		return ""
	}
	slice := raw
	if len(raw) > previewBytes {
		if fromEnd {
			slice = raw[len(raw)-previewBytes:]
		} else {
			slice = raw[:previewBytes]
		}
	}
	return hex.EncodeToString(slice)
}
