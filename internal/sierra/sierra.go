// Package sierra implements the Sierra search backends used during
// matching: the BPL Solr index and the NYPL Platform API. Both satisfy
// match.CandidateSource.
package sierra

import (
	"net/http"
	"time"

	"github.com/bookops/overload/pkg/bibs"
	"github.com/bookops/overload/pkg/errors"
	"github.com/bookops/overload/pkg/match"
)

const (
	userAgent      = "overload/1.0"
	defaultTimeout = 15 * time.Second
	maxRows        = 20

	// Sierra records their last modification in the MARC 005 field.
	marc005Layout = "20060102150405.0"
)

// Config holds connection settings for both Sierra search backends.
type Config struct {
	SolrEndpoint     string
	SolrClientKey    string
	PlatformTarget   string
	PlatformOAuthURL string
	PlatformClientID string
	PlatformSecret   string
	Timeout          time.Duration
}

// NewSource returns the candidate source for a library system.
func NewSource(system bibs.System, cfg Config) (match.CandidateSource, error) {
	switch system {
	case bibs.SystemBPL:
		return NewSolrClient(cfg.SolrEndpoint, cfg.SolrClientKey, cfg.Timeout), nil
	case bibs.SystemNYPL:
		return NewPlatformClient(cfg.PlatformTarget, cfg.PlatformOAuthURL,
			cfg.PlatformClientID, cfg.PlatformSecret, cfg.Timeout), nil
	}
	return nil, errors.New("no search backend for system " + string(system))
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func joinContents(subfields []platformSubfield) string {
	out := ""
	for _, sf := range subfields {
		if out != "" {
			out += " "
		}
		out += sf.Content
	}
	return out
}

func dedupe(values []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
