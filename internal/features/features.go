// Package features derives domain and time-of-week features from cleaned events.
package features

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"

	"browsify-profiler/internal/models"
)

// label.tld, where the public suffix may have several dotted parts (bbc.co.uk)
var domainRe = regexp.MustCompile(`^[a-zA-Z0-9-]+\.[a-zA-Z]{2,}(\.[a-zA-Z]{2,})*$`)

// ExtractDomain returns the registrable domain of rawURL, or false when the host is
// missing, an IP address, or does not look like label.tld.
func ExtractDomain(rawURL string) (string, bool) {
	_, domain, ok := ExtractHost(rawURL)
	return domain, ok
}

// ExtractHost returns the ASCII host of rawURL together with its registrable domain.
// Keyword rules match the host so subdomain labels (shop.example.com) still count;
// the domain is what reports aggregate on.
func ExtractHost(rawURL string) (host, domain string, ok bool) {
	h := hostOf(rawURL)
	if h == "" || net.ParseIP(h) != nil {
		return "", "", false
	}
	ascii, err := idna.Punycode.ToASCII(strings.TrimSuffix(h, "."))
	if err != nil {
		return "", "", false
	}
	domain, err = publicsuffix.EffectiveTLDPlusOne(ascii)
	if err != nil {
		return "", "", false
	}
	if !domainRe.MatchString(domain) {
		return "", "", false
	}
	return ascii, domain, true
}

func hostOf(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if !strings.Contains(s, "://") {
		s = "http://" + strings.TrimPrefix(s, "//")
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// DayOfWeek maps time.Weekday to 0=Monday..6=Sunday.
func DayOfWeek(w int) int { return (w + 6) % 7 }

// Extract sets Host, Domain, Hour and DayOfWeek on every event. Hour and weekday are read in
// the zone the timestamp was parsed in.
func Extract(events models.EventCollection) {
	for i := range events {
		e := &events[i]
		e.Host, e.Domain, _ = ExtractHost(e.URL)
		e.Hour = e.Timestamp.Hour()
		e.DayOfWeek = DayOfWeek(int(e.Timestamp.Weekday()))
	}
}
