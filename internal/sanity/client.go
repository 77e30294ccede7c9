package sanity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	baseURL    string
	dataset    string
	token      string
	httpClient *http.Client
}

// APIError is returned for any non-2xx response from the Sanity HTTP API.
type APIError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sanity %s failed: status %d, body: %s", e.Operation, e.StatusCode, e.Body)
}

type Asset struct {
	ID  string `json:"_id"`
	URL string `json:"url"`
}

type assetResponse struct {
	Document Asset `json:"document"`
}

type MutationResult struct {
	ID        string `json:"id"`
	Operation string `json:"operation"`
}

type MutateResponse struct {
	TransactionID string           `json:"transactionId"`
	Results       []MutationResult `json:"results"`
}

type queryResponse struct {
	Result json.RawMessage `json:"result"`
}

// APIURL returns the versioned API root for a project. A non-empty host
// replaces the public https://<project>.api.sanity.io endpoint.
func APIURL(projectID, apiVersion, host string) string {
	if host != "" {
		return strings.TrimSuffix(host, "/") + "/" + apiVersion
	}
	return fmt.Sprintf("https://%s.api.sanity.io/%s", projectID, apiVersion)
}

func NewClient(baseURL, dataset, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		dataset: dataset,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// UploadImage stores binary image data in the dataset's asset store.
func (c *Client) UploadImage(ctx context.Context, data []byte, filename, mimeType string) (*Asset, error) {
	endpoint := fmt.Sprintf("%s/assets/images/%s?filename=%s", c.baseURL, c.dataset, url.QueryEscape(filename))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mimeType)

	var result assetResponse
	if err := c.do(req, "asset upload", &result); err != nil {
		return nil, err
	}
	if result.Document.ID == "" {
		return nil, fmt.Errorf("asset upload returned no document id")
	}

	return &result.Document, nil
}

// Query runs a GROQ query and decodes its result into out. Parameters are
// passed as $name query arguments, JSON encoded as the API expects.
func (c *Client) Query(ctx context.Context, groq string, params map[string]any, out any) error {
	values := url.Values{}
	values.Set("query", groq)
	for name, value := range params {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode query param %s: %w", name, err)
		}
		values.Set("$"+name, string(encoded))
	}

	endpoint := fmt.Sprintf("%s/data/query/%s?%s", c.baseURL, c.dataset, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	var result queryResponse
	if err := c.do(req, "query", &result); err != nil {
		return err
	}
	if len(result.Result) == 0 || string(result.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(result.Result, out); err != nil {
		return fmt.Errorf("failed to decode query result: %w", err)
	}

	return nil
}

// Create commits a single create mutation and returns the transaction summary.
func (c *Client) Create(ctx context.Context, document any) (*MutateResponse, error) {
	payload := map[string]any{
		"mutations": []map[string]any{{"create": document}},
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mutation: %w", err)
	}

	endpoint := fmt.Sprintf("%s/data/mutate/%s?returnIds=true", c.baseURL, c.dataset)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result MutateResponse
	if err := c.do(req, "mutation", &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *Client) do(req *http.Request, operation string, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Operation: operation, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w, body: %s", operation, err, string(body))
	}

	return nil
}
