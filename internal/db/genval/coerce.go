// Package genval converts dialect-native column values into a single
// generic, serializable representation.
//
// Drivers do not statically know what type column N is. Instead of a
// catalog-type registry, each value goes through an ordered list of typed
// conversion attempts, terminating in a raw-bytes fallback that never
// produces garbled or silently-dropped output. The ordering lives in the
// attempts table below and nowhere else; changes to it are deliberate and
// covered by tests.
//
// Output values are limited to the JSON-friendly set: nil, string, int64,
// float64, bool, []any, and map[string]any.
package genval

import (
	"database/sql/driver"
	"encoding/base64"
	"fmt"
	"math/big"
	"net"
	"net/netip"
	"reflect"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Base64Prefix tags fallback-encoded binary values so callers can recognise
// and decode them: strip the prefix, base64-decode, recover the original
// bytes.
const Base64Prefix = "base64:"

type attempt struct {
	name string
	fn   func(v any) (any, bool)
}

// attempts is the fixed priority order of typed conversions. Null always
// wins first; the raw-bytes fallback in Coerce runs only after every entry
// here has declined the value.
var attempts = []attempt{
	{"null", coerceNull},
	{"string", coerceString},
	{"uuid", coerceUUID},
	{"integer", coerceInteger},
	{"float", coerceFloat},
	{"decimal", coerceDecimal},
	{"bool", coerceBool},
	{"datetime", coerceTime},
	{"netaddr", coerceNetAddr},
	{"bits", coerceBits},
	{"json", coerceJSON},
	{"array", nil}, // assigned in init: coerceArray recurses through Coerce
}

func init() {
	attempts[len(attempts)-1].fn = coerceArray
}

// Coerce converts one native column value into its generic representation.
func Coerce(v any) any {
	for _, a := range attempts {
		if out, ok := a.fn(v); ok {
			return out
		}
	}
	return coerceFallback(v)
}

// CoerceRow converts every value of one row in place order, returning a new
// slice.
func CoerceRow(vals []any) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = Coerce(v)
	}
	return out
}

// AttemptOrder returns the names of the typed attempts in priority order.
// Exists so the ordering can be asserted explicitly in tests.
func AttemptOrder() []string {
	names := make([]string, len(attempts))
	for i, a := range attempts {
		names[i] = a.name
	}
	return names
}

func coerceNull(v any) (any, bool) {
	if v == nil {
		return nil, true
	}
	// Typed nils (e.g. a nil *string scanned from a nullable column).
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil, true
		}
	}
	return nil, false
}

func coerceString(v any) (any, bool) {
	if s, ok := v.(string); ok {
		return s, true
	}
	if p, ok := v.(*string); ok {
		return *p, true
	}
	return nil, false
}

func coerceUUID(v any) (any, bool) {
	switch u := v.(type) {
	case uuid.UUID:
		return u.String(), true
	case [16]byte:
		return uuid.UUID(u).String(), true
	case pgtype.UUID:
		if !u.Valid {
			return nil, true
		}
		return uuid.UUID(u.Bytes).String(), true
	}
	return nil, false
}

func coerceInteger(v any) (any, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	case int8:
		return int64(n), true
	case int:
		return int64(n), true
	case uint64:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint:
		return int64(n), true
	}
	return nil, false
}

func coerceFloat(v any) (any, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	}
	return nil, false
}

// coerceDecimal renders arbitrary-precision numerics as strings to avoid
// precision loss.
func coerceDecimal(v any) (any, bool) {
	switch n := v.(type) {
	case pgtype.Numeric:
		if !n.Valid {
			return nil, true
		}
		if n.NaN {
			return "NaN", true
		}
		val, err := n.Value()
		if err != nil {
			return nil, false
		}
		if s, ok := val.(string); ok {
			return s, true
		}
		return nil, false
	case *big.Int:
		return n.String(), true
	case big.Int:
		return n.String(), true
	}
	return nil, false
}

func coerceBool(v any) (any, bool) {
	if b, ok := v.(bool); ok {
		return b, true
	}
	return nil, false
}

// coerceTime renders temporal values as ISO-8601-like strings. Values
// decoded from a zone-aware column carry an offset and render with it;
// naive timestamps (decoded into UTC with no zone information) render
// without one. A midnight instant with no sub-day component renders as a
// plain date.
func coerceTime(v any) (any, bool) {
	t, ok := v.(time.Time)
	if !ok {
		if p, isPtr := v.(*time.Time); isPtr {
			t, ok = *p, true
		}
	}
	if !ok {
		return nil, false
	}
	if t.Location() == time.UTC {
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02"), true
		}
		return t.Format("2006-01-02T15:04:05.999999"), true
	}
	return t.Format(time.RFC3339Nano), true
}

func coerceNetAddr(v any) (any, bool) {
	switch a := v.(type) {
	case netip.Prefix:
		return a.String(), true
	case netip.Addr:
		return a.String(), true
	case net.IP:
		return a.String(), true
	case net.IPNet:
		return a.String(), true
	case net.HardwareAddr:
		return a.String(), true
	}
	return nil, false
}

// coerceBits renders bit strings as their 0/1 text form.
func coerceBits(v any) (any, bool) {
	b, ok := v.(pgtype.Bits)
	if !ok {
		return nil, false
	}
	if !b.Valid {
		return nil, true
	}
	out := make([]byte, 0, b.Len)
	for i := int32(0); i < b.Len; i++ {
		if b.Bytes[i/8]&(1<<(7-uint(i%8))) != 0 {
			out = append(out, '1')
		} else {
			out = append(out, '0')
		}
	}
	return string(out), true
}

// coerceJSON passes natively decoded JSON documents through structurally.
func coerceJSON(v any) (any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	return nil, false
}

// coerceArray converts homogeneous arrays of the scalar kinds above,
// coercing each element.
func coerceArray(v any) (any, bool) {
	if _, isBytes := v.([]byte); isBytes {
		return nil, false // raw bytes belong to the fallback
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = Coerce(rv.Index(i).Interface())
	}
	return out, true
}

// coerceFallback is the terminal stage: raw-bytes introspection plus a last
// resort for opaque driver types. Bytes that are clean UTF-8 with no
// non-whitespace control characters are plain text; anything else becomes a
// tagged base64 string so binary and custom types are never garbled.
func coerceFallback(v any) any {
	if b, ok := v.([]byte); ok {
		return FromBytes(b)
	}
	if val, ok := v.(driver.Valuer); ok {
		if dv, err := val.Value(); err == nil && dv != nil {
			// One recursion step: driver.Value is a small closed set.
			if _, again := dv.(driver.Valuer); !again {
				return Coerce(dv)
			}
		}
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", v)
}

// FromBytes applies the raw-bytes rule directly.
func FromBytes(b []byte) any {
	if isPlainText(b) {
		return string(b)
	}
	return Base64Prefix + base64.StdEncoding.EncodeToString(b)
}

func isPlainText(b []byte) bool {
	if !utf8.Valid(b) {
		return false
	}
	for _, r := range string(b) {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
		if r == 0x7f {
			return false
		}
	}
	return true
}
