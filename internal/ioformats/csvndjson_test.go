package ioformats

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"browsify-profiler/internal/models"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestReadRecordsCSV(t *testing.T) {
	path := writeFile(t, "history.csv", "title,URL,Timestamp\n"+
		"Amazon,https://amazon.com,2024-01-01 10:00:00\n"+
		"Missing,https://bbc.co.uk\n"+
		"\"Quoted, title\",https://cnn.com,2024-01-02\n")

	recs, err := ReadRecords(path)
	require.NoError(t, err)
	assert.Equal(t, []models.RawRecord{
		{URL: "https://amazon.com", Timestamp: "2024-01-01 10:00:00"},
		{URL: "https://bbc.co.uk", Timestamp: ""},
		{URL: "https://cnn.com", Timestamp: "2024-01-02"},
	}, recs)
}

func TestReadRecordsCSVMissingColumn(t *testing.T) {
	path := writeFile(t, "history.csv", "url\nhttps://amazon.com\n")
	_, err := ReadRecords(path)
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestReadRecordsNDJSON(t *testing.T) {
	path := writeFile(t, "history.ndjson", `{"url":"https://amazon.com","timestamp":"2024-01-01T10:00:00Z"}
{"url":"https://bbc.co.uk","timestamp":1700000000}

{broken
{"url":"https://cnn.com"}
`)
	recs, err := ReadRecords(path)
	require.NoError(t, err)
	assert.Equal(t, []models.RawRecord{
		{URL: "https://amazon.com", Timestamp: "2024-01-01T10:00:00Z"},
		{URL: "https://bbc.co.uk", Timestamp: "1700000000"},
		{},
		{URL: "https://cnn.com"},
	}, recs)
}

func TestReadRecordsHTML(t *testing.T) {
	path := writeFile(t, "bookmarks.html", `<DL><DT><A HREF="https://bbc.co.uk" ADD_DATE="1700000000">BBC</A></DL>`)
	recs, err := ReadRecords(path)
	require.NoError(t, err)
	assert.Equal(t, []models.RawRecord{{URL: "https://bbc.co.uk", Timestamp: "1700000000"}}, recs)
}

func TestReadRecordsSniffs(t *testing.T) {
	csvPath := writeFile(t, "export.txt", "url,timestamp\nhttps://amazon.com,2024-01-01\n")
	recs, err := ReadRecords(csvPath)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	jsonPath := writeFile(t, "export.log", `{"url":"https://amazon.com","timestamp":"2024-01-01"}`+"\n")
	recs, err = ReadRecords(jsonPath)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	emptyPath := writeFile(t, "export.dat", "")
	_, err = ReadRecords(emptyPath)
	assert.True(t, errors.Is(err, ErrNoRecords))
}

func TestSniffKeepsCSVHeaderError(t *testing.T) {
	path := writeFile(t, "export.txt", "uri,visited_at\nhttps://amazon.com,2024-01-01\n")
	_, err := ReadRecords(path)
	assert.True(t, errors.Is(err, ErrMissingColumn))

	_, err = DecodeRecords(strings.NewReader("uri,visited_at\nhttps://amazon.com,2024-01-01\n"), "")
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestDecodeRecordsByContentType(t *testing.T) {
	recs, err := DecodeRecords(strings.NewReader("url,timestamp\nhttps://a.com,2024-01-01\n"), "text/csv; charset=utf-8")
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	recs, err = DecodeRecords(strings.NewReader(`{"url":"https://a.com","timestamp":"2024-01-01"}`), "application/x-ndjson")
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	recs, err = DecodeRecords(strings.NewReader(`<a href="https://a.com" last_visit="1">a</a>`), "text/html")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestWriteNDJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNDJSON(&buf, []models.RawRecord{{URL: "a"}, {URL: "b"}}))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
}
