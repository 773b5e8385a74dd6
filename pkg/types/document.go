package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Document is an opaque JSON payload persisted as JSONB. The cloud stores
// whatever the LAN system produced without interpreting its shape.
type Document json.RawMessage

// Value marshals the document for Postgres.
func (d Document) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}
	if !json.Valid(d) {
		return nil, fmt.Errorf("document: invalid JSON")
	}
	return []byte(d), nil
}

// Scan decodes JSONB into the document.
func (d *Document) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}

	switch v := value.(type) {
	case string:
		*d = Document([]byte(v))
	case []byte:
		buf := make([]byte, len(v))
		copy(buf, v)
		*d = Document(buf)
	default:
		return fmt.Errorf("document: unsupported scan type %T", value)
	}
	return nil
}

// MarshalJSON emits the raw document bytes.
func (d Document) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

// UnmarshalJSON stores the raw document bytes.
func (d *Document) UnmarshalJSON(data []byte) error {
	if d == nil {
		return fmt.Errorf("document: unmarshal into nil pointer")
	}
	*d = append((*d)[0:0], data...)
	return nil
}
