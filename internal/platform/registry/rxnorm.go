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

// RxNormClient talks to the RxNav REST API.
type RxNormClient struct {
	baseURL string
	client  *http.Client
}

func NewRxNormClient(baseURL string, timeout time.Duration) *RxNormClient {
	return &RxNormClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// SearchExact looks up a normalized name with exact matching. Returns an
// empty rxcui (and nil error) when the registry has no exact match.
func (c *RxNormClient) SearchExact(ctx context.Context, name string) (string, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Set("search", "1") // exact match only

	var payload struct {
		IDGroup struct {
			RxNormID []string `json:"rxnormId"`
		} `json:"idGroup"`
	}
	if err := c.getJSON(ctx, "/rxcui.json", q, &payload); err != nil {
		return "", err
	}
	if len(payload.IDGroup.RxNormID) == 0 {
		return "", nil
	}
	return payload.IDGroup.RxNormID[0], nil
}

// SearchApprox performs approximate-term matching and returns candidates in
// registry rank order, with names and term types filled from the concept
// properties endpoint.
func (c *RxNormClient) SearchApprox(ctx context.Context, term string, maxEntries int) ([]Concept, error) {
	q := url.Values{}
	q.Set("term", term)
	q.Set("maxEntries", strconv.Itoa(maxEntries))

	var payload struct {
		ApproximateGroup struct {
			Candidate []struct {
				RxCUI string `json:"rxcui"`
				Score string `json:"score"`
				Rank  string `json:"rank"`
			} `json:"candidate"`
		} `json:"approximateGroup"`
	}
	if err := c.getJSON(ctx, "/approximateTerm.json", q, &payload); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var concepts []Concept
	for _, cand := range payload.ApproximateGroup.Candidate {
		if cand.RxCUI == "" || seen[cand.RxCUI] {
			continue
		}
		seen[cand.RxCUI] = true

		concept := Concept{RxCUI: cand.RxCUI}
		if score, err := strconv.ParseFloat(cand.Score, 64); err == nil {
			concept.Score = &score
		}
		// The approximate endpoint reports only rxcui and score; the name
		// and term type come from the properties endpoint. A failed
		// property fetch drops the candidate rather than the whole search.
		props, err := c.GetProperties(ctx, cand.RxCUI)
		if err != nil {
			continue
		}
		concept.Name = props.Name
		concept.TTY = props.TTY
		concepts = append(concepts, concept)
	}
	return concepts, nil
}

// GetProperties fetches the canonical name and term type for an rxcui.
func (c *RxNormClient) GetProperties(ctx context.Context, rxcui string) (ConceptProperties, error) {
	var payload struct {
		Properties struct {
			RxCUI string `json:"rxcui"`
			Name  string `json:"name"`
			TTY   string `json:"tty"`
		} `json:"properties"`
	}
	path := fmt.Sprintf("/rxcui/%s/properties.json", url.PathEscape(rxcui))
	if err := c.getJSON(ctx, path, nil, &payload); err != nil {
		return ConceptProperties{}, err
	}
	if payload.Properties.RxCUI == "" {
		return ConceptProperties{}, ErrNotFound
	}
	return ConceptProperties{
		RxCUI: payload.Properties.RxCUI,
		Name:  payload.Properties.Name,
		TTY:   payload.Properties.TTY,
	}, nil
}

func (c *RxNormClient) getJSON(ctx context.Context, path string, q url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("rxnorm request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("rxnorm returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode rxnorm response: %w", err)
	}
	return nil
}
