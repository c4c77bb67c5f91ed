package ioformats

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"browsify-profiler/internal/models"
	"browsify-profiler/internal/parser"
)

var (
	ErrNoRecords     = errors.New("no records found")
	ErrMissingColumn = errors.New("csv must contain 'url' and 'timestamp' header columns")
)

// ReadRecords reads browsing records from a CSV (header with "url" and "timestamp"),
// NDJSON or HTML history export. If ext cannot be determined, tries CSV then NDJSON.
func ReadRecords(path string) ([]models.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(f)
	case ".ndjson", ".jsonl":
		return readNDJSON(f)
	case ".html", ".htm":
		return parser.New().ExtractVisits(f, "text/html")
	default:
		return sniff(f)
	}
}

// DecodeRecords picks a reader from the content type, falling back to sniffing.
func DecodeRecords(r io.Reader, contentType string) ([]models.RawRecord, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch {
	case strings.Contains(mediaType, "csv"):
		return readCSV(r)
	case strings.Contains(mediaType, "ndjson"), strings.Contains(mediaType, "jsonl"),
		strings.Contains(mediaType, "json"):
		return readNDJSON(r)
	case strings.Contains(mediaType, "html"):
		return parser.New().ExtractVisits(r, contentType)
	default:
		return sniff(r)
	}
}

func sniff(r io.Reader) ([]models.RawRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("<")) {
		return parser.New().ExtractVisits(bytes.NewReader(data), "text/html")
	}
	recs, err := readCSV(bytes.NewReader(data))
	if err == nil && len(recs) > 0 {
		return recs, nil
	}
	if errors.Is(err, ErrMissingColumn) && looksLikeCSVHeader(trimmed) {
		return nil, err
	}
	return readNDJSON(bytes.NewReader(data))
}

// looksLikeCSVHeader reports whether the first line is a comma separated header
// rather than a JSON object.
func looksLikeCSVHeader(data []byte) bool {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	return !bytes.HasPrefix(line, []byte("{")) && bytes.Contains(line, []byte(","))
}

func readCSV(r io.Reader) ([]models.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty csv: %w", ErrNoRecords)
	}
	if err != nil {
		return nil, err
	}
	urlCol, tsCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "url":
			urlCol = i
		case "timestamp":
			tsCol = i
		}
	}
	if urlCol == -1 || tsCol == -1 {
		return nil, ErrMissingColumn
	}

	var out []models.RawRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		// short rows keep the columns they have; cleaning drops them later
		var rec models.RawRecord
		if urlCol < len(row) {
			rec.URL = strings.TrimSpace(row[urlCol])
		}
		if tsCol < len(row) {
			rec.Timestamp = strings.TrimSpace(row[tsCol])
		}
		out = append(out, rec)
	}
	return out, nil
}

func readNDJSON(r io.Reader) ([]models.RawRecord, error) {
	var out []models.RawRecord
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || !strings.HasPrefix(line, "{") {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			// malformed line counts as a record without fields
			out = append(out, models.RawRecord{})
			continue
		}
		out = append(out, models.RawRecord{
			URL:       stringField(obj["url"]),
			Timestamp: stringField(obj["timestamp"]),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("ndjson: %w", ErrNoRecords)
	}
	return out, nil
}

// stringField accepts strings and numbers (epoch timestamps).
func stringField(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return fmt.Sprintf("%.0f", t)
	default:
		return ""
	}
}

// WriteNDJSON writes any JSON-marshalable items as NDJSON to w.
func WriteNDJSON[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for _, it := range items {
		if err := enc.Encode(it); err != nil {
			return err
		}
	}
	return nil
}
