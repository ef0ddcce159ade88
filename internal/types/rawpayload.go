package types

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Compile-time interface assertions. Scan is on the pointer receiver,
// Value on the value receiver.
var (
	_ sql.Scanner   = (*RawPayload)(nil)
	_ driver.Valuer = RawPayload(nil)
)

// RawPayload is an opaque JSON blob carrying a provider's original payload
// (analyzer response, snapshot source record) for audit trail only. Core
// logic never inspects it; it passes through the pipeline unmodified and
// round-trips JSONB columns without re-encoding.
type RawPayload json.RawMessage

// MarshalJSON emits the stored bytes verbatim, or JSON null when empty.
func (p RawPayload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

// UnmarshalJSON stores the incoming bytes verbatim.
func (p *RawPayload) UnmarshalJSON(data []byte) error {
	if p == nil {
		return fmt.Errorf("rawpayload: unmarshal into nil pointer")
	}
	*p = append((*p)[0:0], data...)
	return nil
}

// Scan implements the sql.Scanner interface for reading JSONB from the
// database.
func (p *RawPayload) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*p = append((*p)[0:0], v...)
		return nil
	case string:
		*p = RawPayload(v)
		return nil
	default:
		return fmt.Errorf("rawpayload: unsupported scan type %T", value)
	}
}

// Value implements the driver.Valuer interface for writing JSONB to the
// database.
func (p RawPayload) Value() (driver.Value, error) {
	if len(p) == 0 {
		return nil, nil
	}
	return []byte(p), nil
}
