// Package seeder generates synthetic browsing histories for demos and load tests.
package seeder

import (
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"browsify-profiler/internal/models"
)

// Options controls the shape of a generated history.
type Options struct {
	Count int
	Seed  int64 // 0 picks a random seed
	// Events are spread over [End-Span, End].
	End  time.Time
	Span time.Duration
	// MissingRate is the fraction of rows written without a timestamp,
	// to exercise cleaning.
	MissingRate float64
	// KnownRate is the fraction of rows that visit a site from KnownSites;
	// the rest go to random fake domains.
	KnownRate float64
}

// KnownSites covers every built-in category plus the risk and demographic keywords.
var KnownSites = []string{
	"www.amazon.com", "www.ebay.com", "www.nike.com",
	"www.bbc.co.uk", "www.nytimes.com", "edition.cnn.com",
	"www.facebook.com", "www.instagram.com", "www.reddit.com", "www.tiktok.com",
	"techcrunch.com", "www.wired.com", "www.theverge.com",
	"www.coursera.org", "www.edx.org", "www.khanacademy.org",
	"www.healthline.com", "www.linkedin.com", "open.spotify.com", "stackoverflow.com",
	"online-gaming.net", "gambling-site.com", "phishing-login.example.com",
}

func DefaultOptions() Options {
	return Options{
		Count:       500,
		End:         time.Now().UTC(),
		Span:        7 * 24 * time.Hour,
		MissingRate: 0.02,
		KnownRate:   0.8,
	}
}

// Generate returns Count raw records in chronological order.
func Generate(opts Options) []models.RawRecord {
	f := gofakeit.New(opts.Seed)
	if opts.End.IsZero() {
		opts.End = time.Now().UTC()
	}
	start := opts.End.Add(-opts.Span)

	times := make([]time.Time, opts.Count)
	for i := range times {
		times[i] = f.DateRange(start, opts.End)
	}
	sortTimes(times)

	out := make([]models.RawRecord, opts.Count)
	for i := range out {
		host := f.DomainName()
		if f.Float64Range(0, 1) < opts.KnownRate {
			host = f.RandomString(KnownSites)
		}
		url := "https://" + host + "/" + strings.ToLower(f.Word())
		ts := times[i].Format("2006-01-02 15:04:05")
		if f.Float64Range(0, 1) < opts.MissingRate {
			ts = ""
		}
		out[i] = models.RawRecord{URL: url, Timestamp: ts}
	}
	return out
}

func sortTimes(ts []time.Time) {
	// insertion sort keeps this allocation free; histories are small
	for i := 1; i < len(ts); i++ {
		for j := i; j > 0 && ts[j].Before(ts[j-1]); j-- {
			ts[j], ts[j-1] = ts[j-1], ts[j]
		}
	}
}

// WriteCSV writes records with a url,timestamp header.
func WriteCSV(w io.Writer, records []models.RawRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"url", "timestamp"}); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write([]string{r.URL, r.Timestamp}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
