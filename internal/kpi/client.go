// Package kpi talks to the external KPI-computation service. Raw measurement
// ingestion and derived-metric computation (ADG, adjusted weights, wool
// yield, weaning rate) live there; this service only consumes the results.
package kpi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client interface {
	FetchRecords(ctx context.Context, animalIDs []string) (map[string]map[string]float64, error)
}

type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) doReq(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("kpi %s %s: %d %s", method, path, resp.StatusCode, string(body))
	}
	return body, nil
}

// FetchRecords returns derived KPI values keyed by animal id, then KPI name.
// Animals unknown to the provider are simply absent from the result.
func (c *HTTPClient) FetchRecords(ctx context.Context, animalIDs []string) (map[string]map[string]float64, error) {
	path := "/api/v1/kpis?animal_ids=" + strings.Join(animalIDs, ",")
	data, err := c.doReq(ctx, "GET", path)
	if err != nil {
		return nil, err
	}
	var records map[string]map[string]float64
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}
