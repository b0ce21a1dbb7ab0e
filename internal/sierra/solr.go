package sierra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bookops/overload/pkg/bibs"
	"github.com/bookops/overload/pkg/errors"
	"github.com/bookops/overload/pkg/logging"
	"github.com/bookops/overload/pkg/match"
)

// SolrClient queries BPL's Solr index for candidate records.
type SolrClient struct {
	endpoint  string
	clientKey string
	httpc     *http.Client
}

// NewSolrClient creates a client for the BPL Solr endpoint. Requests are
// authorized with the Client-Key header.
func NewSolrClient(endpoint, clientKey string, timeout time.Duration) *SolrClient {
	return &SolrClient{
		endpoint:  strings.TrimRight(endpoint, "/"),
		clientKey: clientKey,
		httpc:     newHTTPClient(timeout),
	}
}

// solrQueryFields maps matchpoints to the Solr fields they query.
var solrQueryFields = map[bibs.Matchpoint]string{
	bibs.MatchpointBibID: "id",
	bibs.MatchpointISBN:  "isbn",
	bibs.MatchpointOCLC:  "ss_marc_tag_001",
	bibs.MatchpointUPC:   "sm_upc",
}

// Lookup implements match.CandidateSource.
func (c *SolrClient) Lookup(ctx context.Context, matchpoint bibs.Matchpoint, value string) ([]match.Candidate, error) {
	field, ok := solrQueryFields[matchpoint]
	if !ok {
		return nil, &errors.MatchpointError{
			Matchpoint: string(matchpoint),
			Available:  []string{"bib_id", "isbn", "oclc_number", "upc"},
		}
	}

	params := url.Values{}
	params.Set("q", fmt.Sprintf("%s:%s", field, value))
	params.Set("fq", "ss_type:catalog")
	params.Set("rows", fmt.Sprintf("%d", maxRows))
	params.Set("wt", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &errors.LookupError{Backend: "bpl solr", Matchpoint: string(matchpoint), Value: value, Err: err}
	}
	req.Header.Set("Client-Key", c.clientKey)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &errors.LookupError{Backend: "bpl solr", Matchpoint: string(matchpoint), Value: value, Err: err}
	}
	defer resp.Body.Close()

	logging.Debug().Int("status", resp.StatusCode).Str("field", field).Msg("bpl solr response")
	if resp.StatusCode != http.StatusOK {
		return nil, &errors.LookupError{
			Backend:    "bpl solr",
			Matchpoint: string(matchpoint),
			Value:      value,
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var body struct {
		Response struct {
			Docs []solrDoc `json:"docs"`
		} `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &errors.LookupError{Backend: "bpl solr", Matchpoint: string(matchpoint), Value: value, Err: err}
	}

	candidates := make([]match.Candidate, 0, len(body.Response.Docs))
	for _, doc := range body.Response.Docs {
		candidates = append(candidates, doc.candidate())
	}
	return candidates, nil
}

// solrDoc is one record in a Solr query response.
type solrDoc struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	CallNumber string   `json:"call_number"`
	ISBN       []string `json:"isbn"`
	Tag001     string   `json:"ss_marc_tag_001"`
	Tag003     string   `json:"ss_marc_tag_003"`
	Tag005     string   `json:"ss_marc_tag_005"`
	VarFields  []string `json:"sm_bib_varfields"`
	ItemData   []string `json:"sm_item_data"`
}

func (d solrDoc) candidate() match.Candidate {
	c := match.Candidate{
		BibID:            d.ID,
		System:           bibs.SystemBPL,
		Title:            d.Title,
		Collection:       bibs.CollectionNone,
		ControlNumber:    d.Tag001,
		CatSource:        match.CatSourceVendor,
		BranchCallNumber: d.CallNumber,
		Barcodes:         d.barcodes(),
	}
	if strings.HasPrefix(d.Tag001, "o") && d.Tag003 == "OCoLC" {
		c.CatSource = match.CatSourceInhouse
	}
	if d.Tag005 != "" {
		if t, err := time.Parse(marc005Layout, d.Tag005); err == nil {
			c.UpdatedAt = t
		}
	}

	fields := d.varFields()
	if c.BranchCallNumber == "" {
		if callNos := fields.values("099", ""); len(callNos) > 0 {
			c.BranchCallNumber = callNos[0]
		}
	}
	c.ISBNs = dedupe(append(fields.values("020", "a"), d.ISBN...))
	c.OCLCNumbers = dedupe(append(fields.values("035", "a"), d.Tag001))
	c.UPCs = dedupe(append(fields.values("024", "a"), fields.values("028", "a")...))
	return c
}

func (d solrDoc) barcodes() []string {
	var out []string
	for _, raw := range d.ItemData {
		if raw == "" {
			continue
		}
		var item struct {
			Barcode string `json:"barcode"`
		}
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			continue
		}
		if item.Barcode != "" {
			out = append(out, item.Barcode)
		}
	}
	return out
}

// solrVarFields holds decoded sm_bib_varfields entries. Each entry encodes
// one MARC field as "tag || {{code}}content || {{code}}content".
type solrVarFields []solrVarField

type solrVarField struct {
	Tag       string
	Subfields []platformSubfield
}

func (d solrDoc) varFields() solrVarFields {
	var out solrVarFields
	for _, raw := range d.VarFields {
		tag, data, found := strings.Cut(raw, " || ")
		if !found || !strings.Contains(data, "{{") {
			continue
		}
		field := solrVarField{Tag: tag}
		for _, chunk := range strings.Split(data, " || ") {
			code, content, ok := strings.Cut(chunk, "}}")
			if !ok {
				continue
			}
			field.Subfields = append(field.Subfields, platformSubfield{
				Tag:     strings.TrimPrefix(code, "{{"),
				Content: strings.TrimSpace(content),
			})
		}
		out = append(out, field)
	}
	return out
}

// values returns the contents of a tag's subfields, one string per field.
// An empty code joins all of a field's subfields with spaces.
func (f solrVarFields) values(tag, code string) []string {
	var out []string
	for _, field := range f {
		if field.Tag != tag {
			continue
		}
		if code == "" {
			if joined := joinContents(field.Subfields); joined != "" {
				out = append(out, joined)
			}
			continue
		}
		for _, sf := range field.Subfields {
			if sf.Tag == code && sf.Content != "" {
				out = append(out, sf.Content)
			}
		}
	}
	return out
}
