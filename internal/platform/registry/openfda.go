package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Label section field names in the openFDA drug label schema.
const (
	SectionIndications       = "indications_and_usage"
	SectionDosage            = "dosage_and_administration"
	SectionContraindications = "contraindications"
	SectionWarnings          = "warnings"
	SectionAdverseReactions  = "adverse_reactions"
	SectionDrugInteractions  = "drug_interactions"
)

// LabelClient queries the openFDA drug label endpoint.
type LabelClient struct {
	baseURL string
	client  *http.Client
}

func NewLabelClient(baseURL string, timeout time.Duration) *LabelClient {
	return &LabelClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// SearchDocuments lists label documents for a drug, by rxcui when available
// and by name otherwise. Results carry the registry's effective_time as the
// publication date; ordering is left to the caller.
func (c *LabelClient) SearchDocuments(ctx context.Context, rxcui, name string) ([]LabelDocument, error) {
	var search string
	if rxcui != "" {
		search = fmt.Sprintf("openfda.rxcui:%q", rxcui)
	} else {
		search = fmt.Sprintf("openfda.generic_name:%q openfda.brand_name:%q", name, name)
	}

	q := url.Values{}
	q.Set("search", search)
	q.Set("limit", "10")

	var payload struct {
		Results []struct {
			ID            string `json:"id"`
			EffectiveTime string `json:"effective_time"`
		} `json:"results"`
	}
	if err := getOpenFDA(ctx, c.client, c.baseURL+"/drug/label.json", q, &payload); err != nil {
		return nil, err
	}

	docs := make([]LabelDocument, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.ID == "" {
			continue
		}
		docs = append(docs, LabelDocument{ID: r.ID, Published: r.EffectiveTime})
	}
	return docs, nil
}

// GetSection fetches one named section of one label document as a single
// independent request, so section fetches can fan out and fail
// independently. Returns ErrNotFound when the document lacks the section.
func (c *LabelClient) GetSection(ctx context.Context, documentID, sectionField string) (string, error) {
	q := url.Values{}
	q.Set("search", fmt.Sprintf("id:%q", documentID))
	q.Set("limit", "1")

	var payload struct {
		Results []map[string]json.RawMessage `json:"results"`
	}
	if err := getOpenFDA(ctx, c.client, c.baseURL+"/drug/label.json", q, &payload); err != nil {
		return "", err
	}
	if len(payload.Results) == 0 {
		return "", ErrNotFound
	}

	raw, ok := payload.Results[0][sectionField]
	if !ok {
		return "", ErrNotFound
	}
	// Label sections arrive as an array of text blocks.
	var blocks []string
	if err := json.Unmarshal(raw, &blocks); err != nil {
		var single string
		if err2 := json.Unmarshal(raw, &single); err2 == nil {
			return single, nil
		}
		return "", fmt.Errorf("decode section %s: %w", sectionField, err)
	}
	if len(blocks) == 0 {
		return "", ErrNotFound
	}
	joined := blocks[0]
	for _, b := range blocks[1:] {
		joined += "\n" + b
	}
	return joined, nil
}

// AdverseClient queries the openFDA FAERS drug event endpoint.
type AdverseClient struct {
	baseURL string
	client  *http.Client
}

func NewAdverseClient(baseURL string, timeout time.Duration) *AdverseClient {
	return &AdverseClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func drugSearch(drugName string) string {
	return fmt.Sprintf("patient.drug.medicinalproduct:%q", drugName)
}

// CountReports returns the number of FAERS reports for a drug, optionally
// narrowed by a seriousness filter. The endpoint reports the total in its
// result metadata, so only one row is requested.
func (c *AdverseClient) CountReports(ctx context.Context, drugName string, filter ReportFilter) (int, error) {
	search := drugSearch(drugName)
	if filter != FilterAll {
		// url.Values encodes the spaces as "+", which openFDA reads as AND.
		search += " AND " + string(filter)
	}

	q := url.Values{}
	q.Set("search", search)
	q.Set("limit", "1")

	var payload struct {
		Meta struct {
			Results struct {
				Total int `json:"total"`
			} `json:"results"`
		} `json:"meta"`
	}
	err := getOpenFDA(ctx, c.client, c.baseURL+"/drug/event.json", q, &payload)
	if err == ErrNotFound {
		// FAERS answers 404 for zero-hit searches.
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return payload.Meta.Results.Total, nil
}

// TopReactions returns the most frequently reported reactions for a drug,
// in descending count order, capped at limit.
func (c *AdverseClient) TopReactions(ctx context.Context, drugName string, limit int) ([]Reaction, error) {
	q := url.Values{}
	q.Set("search", drugSearch(drugName))
	q.Set("count", "patient.reaction.reactionmeddrapt.exact")
	q.Set("limit", strconv.Itoa(limit))

	var payload struct {
		Results []struct {
			Term  string `json:"term"`
			Count int    `json:"count"`
		} `json:"results"`
	}
	err := getOpenFDA(ctx, c.client, c.baseURL+"/drug/event.json", q, &payload)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	reactions := make([]Reaction, 0, len(payload.Results))
	for _, r := range payload.Results {
		reactions = append(reactions, Reaction{Term: r.Term, Count: r.Count})
	}
	return reactions, nil
}

func getOpenFDA(ctx context.Context, client *http.Client, u string, q url.Values, out interface{}) error {
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("openfda request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("openfda returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode openfda response: %w", err)
	}
	return nil
}
