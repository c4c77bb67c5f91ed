package parser

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"browsify-profiler/internal/models"
)

// Parser reads HTML history and bookmark exports (Netscape bookmark format).
type Parser struct{}

func New() *Parser { return &Parser{} }

// ExtractVisits turns every <a href> of an export into a raw record. The timestamp is
// LAST_VISIT, falling back to ADD_DATE (unix seconds); anchors with neither keep an
// empty timestamp so cleaning can count them as skipped.
func (p *Parser) ExtractVisits(r io.Reader, contentType string) ([]models.RawRecord, error) {
	// Decode to UTF-8 if needed
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, err
	}
	data := buf.Bytes()

	enc, _, _ := charset.DetermineEncoding(data, contentType)
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		if !utf8.Valid(data) {
			return nil, err
		}
		utf8data = data
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8data))
	if err != nil {
		return nil, err
	}

	var out []models.RawRecord
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "#") {
			return
		}
		// html attribute names are lower-cased by the tokenizer
		ts := strings.TrimSpace(s.AttrOr("last_visit", ""))
		if ts == "" {
			ts = strings.TrimSpace(s.AttrOr("add_date", ""))
		}
		out = append(out, models.RawRecord{URL: href, Timestamp: ts})
	})
	return out, nil
}
