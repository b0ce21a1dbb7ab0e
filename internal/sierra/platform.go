package sierra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bookops/overload/pkg/bibs"
	"github.com/bookops/overload/pkg/errors"
	"github.com/bookops/overload/pkg/logging"
	"github.com/bookops/overload/pkg/match"
)

const platformDateLayout = "2006-01-02T15:04:05"

// PlatformClient queries the NYPL Platform bibs API for candidate records.
// Requests carry an OAuth2 bearer token obtained with the client
// credentials grant and refreshed when it expires.
type PlatformClient struct {
	target   string
	oauthURL string
	clientID string
	secret   string
	httpc    *http.Client

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewPlatformClient creates a client for the NYPL Platform API.
func NewPlatformClient(target, oauthURL, clientID, secret string, timeout time.Duration) *PlatformClient {
	return &PlatformClient{
		target:   strings.TrimRight(target, "/"),
		oauthURL: oauthURL,
		clientID: clientID,
		secret:   secret,
		httpc:    newHTTPClient(timeout),
	}
}

// Lookup implements match.CandidateSource.
func (c *PlatformClient) Lookup(ctx context.Context, matchpoint bibs.Matchpoint, value string) ([]match.Candidate, error) {
	var param string
	switch matchpoint {
	case bibs.MatchpointBibID:
		param = "id"
	case bibs.MatchpointISBN, bibs.MatchpointUPC:
		param = "standardNumber"
	case bibs.MatchpointOCLC:
		param = "controlNumber"
	default:
		return nil, &errors.MatchpointError{
			Matchpoint: string(matchpoint),
			Available:  []string{"bib_id", "isbn", "oclc_number", "upc"},
		}
	}

	token, err := c.bearerToken(ctx)
	if err != nil {
		return nil, &errors.LookupError{Backend: "nypl platform", Matchpoint: string(matchpoint), Value: value, Err: err}
	}

	params := url.Values{}
	params.Set(param, value)
	params.Set("nyplSource", "sierra-nypl")
	params.Set("deleted", "false")
	params.Set("limit", fmt.Sprintf("%d", maxRows))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.target+"/bibs?"+params.Encode(), nil)
	if err != nil {
		return nil, &errors.LookupError{Backend: "nypl platform", Matchpoint: string(matchpoint), Value: value, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &errors.LookupError{Backend: "nypl platform", Matchpoint: string(matchpoint), Value: value, Err: err}
	}
	defer resp.Body.Close()

	logging.Debug().Int("status", resp.StatusCode).Str("param", param).Msg("nypl platform response")
	switch {
	case resp.StatusCode == http.StatusNotFound:
		// The Platform reports an empty result set as 404.
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, &errors.LookupError{
			Backend:    "nypl platform",
			Matchpoint: string(matchpoint),
			Value:      value,
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var body struct {
		Data []platformBib `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &errors.LookupError{Backend: "nypl platform", Matchpoint: string(matchpoint), Value: value, Err: err}
	}

	candidates := make([]match.Candidate, 0, len(body.Data))
	for _, bib := range body.Data {
		candidates = append(candidates, bib.candidate())
	}
	return candidates, nil
}

// bearerToken returns a valid access token, requesting a fresh one when
// the cached token is within a minute of expiry.
func (c *PlatformClient) bearerToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Until(c.expiry) > time.Minute {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request failed with status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", errors.New("token response missing access_token")
	}
	c.token = body.AccessToken
	c.expiry = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	return c.token, nil
}

// platformBib is one record in a Platform bibs response.
type platformBib struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	ControlNumber   string             `json:"controlNumber"`
	UpdatedDate     string             `json:"updatedDate"`
	StandardNumbers []string           `json:"standardNumbers"`
	VarFields       []platformVarField `json:"varFields"`
}

type platformVarField struct {
	MarcTag   string             `json:"marcTag"`
	Ind1      string             `json:"ind1"`
	Ind2      string             `json:"ind2"`
	Subfields []platformSubfield `json:"subfields"`
}

type platformSubfield struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

func (b platformBib) candidate() match.Candidate {
	c := match.Candidate{
		BibID:         b.ID,
		System:        bibs.SystemNYPL,
		Title:         b.Title,
		ControlNumber: b.ControlNumber,
		CatSource:     match.CatSourceVendor,
	}
	if b.UpdatedDate != "" {
		if t, err := time.Parse(platformDateLayout, b.UpdatedDate); err == nil {
			c.UpdatedAt = t
		}
	}

	var collections []string
	for _, field := range b.VarFields {
		switch field.MarcTag {
		case "091":
			if c.BranchCallNumber == "" {
				c.BranchCallNumber = joinContents(field.Subfields)
			}
		case "852":
			if field.Ind1 == "8" {
				c.ResearchCallNumber = append(c.ResearchCallNumber, joinContents(field.Subfields))
			}
		case "901":
			for _, sf := range field.Subfields {
				if sf.Tag == "b" && strings.Contains(sf.Content, "CAT") {
					c.CatSource = match.CatSourceInhouse
				}
			}
		case "910":
			for _, sf := range field.Subfields {
				if sf.Tag == "a" {
					collections = append(collections, sf.Content)
				}
			}
		case "020":
			for _, sf := range field.Subfields {
				if sf.Tag == "a" {
					c.ISBNs = append(c.ISBNs, sf.Content)
				}
			}
		case "035":
			for _, sf := range field.Subfields {
				if sf.Tag == "a" {
					c.OCLCNumbers = append(c.OCLCNumbers, sf.Content)
				}
			}
		case "024", "028":
			for _, sf := range field.Subfields {
				if sf.Tag == "a" {
					c.UPCs = append(c.UPCs, sf.Content)
				}
			}
		}
	}
	c.ISBNs = dedupe(append(c.ISBNs, b.StandardNumbers...))
	c.OCLCNumbers = dedupe(append(c.OCLCNumbers, b.ControlNumber))
	c.UPCs = dedupe(c.UPCs)
	c.Collection = b.collection(collections, c)
	return c
}

// collection derives a candidate's collection: an explicit 910 wins, more
// than one 910 means mixed, and records without one are inferred from
// which call numbers they carry.
func (b platformBib) collection(collections []string, c match.Candidate) bibs.Collection {
	switch {
	case len(collections) > 1:
		return bibs.CollectionMixed
	case len(collections) == 1:
		if parsed, err := bibs.ParseCollection(collections[0]); err == nil {
			return parsed
		}
		return bibs.CollectionNone
	case c.BranchCallNumber != "" && len(c.ResearchCallNumber) > 0:
		return bibs.CollectionMixed
	case c.BranchCallNumber != "":
		return bibs.CollectionBranch
	case len(c.ResearchCallNumber) > 0:
		return bibs.CollectionResearch
	}
	return bibs.CollectionNone
}
