package export

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielss-dev/dbfordevs/internal/db"
	"github.com/danielss-dev/dbfordevs/internal/errs"
)

func sampleResult() *db.QueryResult {
	return &db.QueryResult{
		Columns: []db.ColumnInfo{
			{Name: "id", DataType: "int8"},
			{Name: "name", DataType: "text"},
			{Name: "meta", DataType: "jsonb"},
		},
		Rows: [][]any{
			{int64(1), "Ada", map[string]any{"role": "admin"}},
			{int64(2), nil, nil},
		},
	}
}

func TestEncodeCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, sampleResult()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,name,meta", lines[0])
	assert.Equal(t, `1,Ada,"{""role"":""admin""}"`, lines[1])
	assert.Equal(t, "2,,", lines[2])
}

func TestEncodeCSV_QuotesEmbeddedDelimiters(t *testing.T) {
	res := &db.QueryResult{
		Columns: []db.ColumnInfo{{Name: "note"}},
		Rows:    [][]any{{"a,b"}, {"line\nbreak"}},
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, res))
	assert.Contains(t, buf.String(), `"a,b"`)
	assert.Contains(t, buf.String(), "\"line\nbreak\"")
}

func TestEncodeJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeJSON(&buf, sampleResult()))

	var out []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, float64(1), out[0]["id"])
	assert.Equal(t, "Ada", out[0]["name"])
	assert.Equal(t, map[string]any{"role": "admin"}, out[0]["meta"])
	assert.Nil(t, out[1]["name"])
}

func TestEncodeJSON_EmptyResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeJSON(&buf, &db.QueryResult{
		Columns: []db.ColumnInfo{},
		Rows:    [][]any{},
	}))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestParseFormat(t *testing.T) {
	for _, valid := range []string{"csv", "json"} {
		f, err := ParseFormat(valid)
		require.NoError(t, err)
		assert.Equal(t, Format(valid), f)
	}

	_, err := ParseFormat("xlsx")
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}

// memSink records uploads in memory.
type memSink struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemSink() *memSink {
	return &memSink{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memSink) Put(_ context.Context, bucket, key, contentType string, body io.Reader, size int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return errs.Newf(errs.KindInvalidInput, "size mismatch: declared %d, read %d", size, len(data))
	}
	m.objects[bucket+"/"+key] = data
	m.types[bucket+"/"+key] = contentType
	return nil
}

func (m *memSink) PresignGet(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://store.local/" + bucket + "/" + key, nil
}

func (m *memSink) Ping(context.Context) error { return nil }
func (m *memSink) Close() error               { return nil }

func TestExporter_Export(t *testing.T) {
	sink := newMemSink()
	exp := NewExporter(sink, "results", zerolog.Nop())

	res, err := exp.Export(context.Background(), sampleResult(), FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "results", res.Bucket)
	assert.Equal(t, FormatCSV, res.Format)
	assert.Equal(t, 2, res.RowCount)
	assert.True(t, strings.HasPrefix(res.Key, "exports/"), res.Key)
	assert.True(t, strings.HasSuffix(res.Key, ".csv"), res.Key)
	assert.Contains(t, res.DownloadURL, res.Key)

	stored := sink.objects["results/"+res.Key]
	require.NotEmpty(t, stored)
	assert.Equal(t, int64(len(stored)), res.SizeBytes)
	assert.Equal(t, "text/csv", sink.types["results/"+res.Key])
}

func TestExporter_ExportJSON(t *testing.T) {
	sink := newMemSink()
	exp := NewExporter(sink, "results", zerolog.Nop())

	res, err := exp.Export(context.Background(), sampleResult(), FormatJSON)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(res.Key, ".json"))
	assert.Equal(t, "application/json", sink.types["results/"+res.Key])
}

func TestExporter_UniqueKeys(t *testing.T) {
	sink := newMemSink()
	exp := NewExporter(sink, "results", zerolog.Nop())

	first, err := exp.Export(context.Background(), sampleResult(), FormatCSV)
	require.NoError(t, err)
	second, err := exp.Export(context.Background(), sampleResult(), FormatCSV)
	require.NoError(t, err)

	assert.NotEqual(t, first.Key, second.Key)
	assert.Len(t, sink.objects, 2)
}
