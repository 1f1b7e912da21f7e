package genval

import (
	"encoding/base64"
	"math/big"
	"net/netip"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttemptOrder(t *testing.T) {
	// The conversion priority is part of the behavioural contract: changing
	// it changes what callers see for ambiguous values.
	want := []string{
		"null", "string", "uuid", "integer", "float", "decimal",
		"bool", "datetime", "netaddr", "bits", "json", "array",
	}
	assert.Equal(t, want, AttemptOrder())
}

func TestCoerce_Scalars(t *testing.T) {
	u := uuid.MustParse("a2f9f7f0-52f1-4b23-8c3f-71f0e2a9c001")
	strVal := "hello"

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"typed nil pointer", (*string)(nil), nil},
		{"string", "hello", "hello"},
		{"string pointer", &strVal, "hello"},
		{"uuid", u, "a2f9f7f0-52f1-4b23-8c3f-71f0e2a9c001"},
		{"uuid byte array", [16]byte(u), "a2f9f7f0-52f1-4b23-8c3f-71f0e2a9c001"},
		{"int64", int64(42), int64(42)},
		{"int32 widens", int32(7), int64(7)},
		{"int", 9, int64(9)},
		{"uint8 widens", uint8(255), int64(255)},
		{"float64", 3.25, 3.25},
		{"float32 widens", float32(1.5), 1.5},
		{"big int as string", big.NewInt(12345678901234567), "12345678901234567"},
		{"bool", true, true},
		{"netip addr", netip.MustParseAddr("10.0.0.1"), "10.0.0.1"},
		{"netip prefix", netip.MustParsePrefix("10.0.0.0/8"), "10.0.0.0/8"},
		{"json document passthrough", map[string]any{"a": 1.0}, map[string]any{"a": 1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Coerce(tt.in))
		})
	}
}

func TestCoerce_Time(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)

	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{
			name: "naive timestamp renders without offset",
			in:   time.Date(2024, 3, 15, 13, 45, 30, 0, time.UTC),
			want: "2024-03-15T13:45:30",
		},
		{
			name: "utc midnight renders as plain date",
			in:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			want: "2024-03-15",
		},
		{
			name: "zoned timestamp keeps its offset",
			in:   time.Date(2024, 3, 15, 13, 45, 30, 0, est),
			want: "2024-03-15T13:45:30-05:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Coerce(tt.in))
		})
	}
}

func TestCoerce_Bits(t *testing.T) {
	got := Coerce(pgtype.Bits{Bytes: []byte{0b10110000}, Len: 5, Valid: true})
	assert.Equal(t, "10110", got)

	assert.Nil(t, Coerce(pgtype.Bits{Valid: false}))
}

func TestCoerce_Array(t *testing.T) {
	got := Coerce([]int32{1, 2, 3})
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, got)

	nested := Coerce([]string{"a", "b"})
	assert.Equal(t, []any{"a", "b"}, nested)

	// Element coercion goes back through the full attempt table, so nested
	// slices work too.
	deep := Coerce([][]int64{{1}, {2, 3}})
	assert.Equal(t, []any{[]any{int64(1)}, []any{int64(2), int64(3)}}, deep)
}

func TestAttemptsFullyWired(t *testing.T) {
	// The array entry is assigned in init to keep the table's initialization
	// acyclic; every entry must end up with a conversion function.
	for _, a := range attempts {
		assert.NotNil(t, a.fn, "attempt %q has no conversion function", a.name)
	}
}

func TestFromBytes(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want any
	}{
		{"clean utf8 becomes string", []byte("plain text"), "plain text"},
		{"whitespace controls allowed", []byte("a\tb\nc\r"), "a\tb\nc\r"},
		{
			name: "binary becomes tagged base64",
			in:   []byte{0x00, 0x01, 0xff},
			want: Base64Prefix + base64.StdEncoding.EncodeToString([]byte{0x00, 0x01, 0xff}),
		},
		{
			name: "invalid utf8 becomes tagged base64",
			in:   []byte{0xc3, 0x28},
			want: Base64Prefix + base64.StdEncoding.EncodeToString([]byte{0xc3, 0x28}),
		},
		{"empty bytes are an empty string", []byte{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromBytes(tt.in))
		})
	}
}

func TestFromBytes_Roundtrip(t *testing.T) {
	original := []byte{0xde, 0xad, 0xbe, 0xef}
	out, ok := FromBytes(original).(string)
	require.True(t, ok)
	require.Contains(t, out, Base64Prefix)

	decoded, err := base64.StdEncoding.DecodeString(out[len(Base64Prefix):])
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestCoerceRow(t *testing.T) {
	row := CoerceRow([]any{nil, int32(1), "x", []byte{0x00}})
	require.Len(t, row, 4)
	assert.Nil(t, row[0])
	assert.Equal(t, int64(1), row[1])
	assert.Equal(t, "x", row[2])
	assert.Equal(t, Base64Prefix+base64.StdEncoding.EncodeToString([]byte{0x00}), row[3])
}
