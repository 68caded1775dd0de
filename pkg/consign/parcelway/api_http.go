package parcelway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vendelo/parcelbridge/pkg/consign"
)

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "parcelbridge/1.0"
	}

	return &HTTPAPIClient{
		baseURL:   cfg.BaseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreateShipments submits shipment concepts via POST /shipments.
func (c *HTTPAPIClient) CreateShipments(ctx context.Context, apiKey string, shipments []Shipment) ([]ShipmentID, error) {
	var body createShipmentsRequest
	body.Data.Shipments = shipments

	resp, err := c.doRequest(ctx, http.MethodPost, "/shipments", apiKey, &body, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.parseError(resp)
	}

	var result createShipmentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode shipments response: %w", err)
	}
	return result.Data.IDs, nil
}

// GetShipments fetches shipment state via GET /shipments/{ids}.
func (c *HTTPAPIClient) GetShipments(ctx context.Context, apiKey string, ids []int64) ([]ShipmentState, error) {
	path := "/shipments/" + joinIDs(ids)

	resp, err := c.doRequest(ctx, http.MethodGet, path, apiKey, nil, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result getShipmentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode shipments response: %w", err)
	}
	return result.Data.Shipments, nil
}

// CreateFulfilmentOrders hands orders to the fulfilment service via
// POST /fulfilment/orders.
func (c *HTTPAPIClient) CreateFulfilmentOrders(ctx context.Context, apiKey string, orders []FulfilmentOrder) error {
	var body createFulfilmentRequest
	body.Data.Orders = orders

	resp, err := c.doRequest(ctx, http.MethodPost, "/fulfilment/orders", apiKey, &body, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return c.parseError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// GetLabels renders labels via GET /shipment_labels/{ids} and returns the
// PDF bytes.
func (c *HTTPAPIClient) GetLabels(ctx context.Context, apiKey string, ids []int64, format string) ([]byte, error) {
	path := "/shipment_labels/" + joinIDs(ids)
	if format != "" {
		path += "?format=" + format
	}

	resp, err := c.doRequest(ctx, http.MethodGet, path, apiKey, nil, "application/pdf")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read label response: %w", err)
	}
	return pdf, nil
}

// doRequest performs an HTTP request with proper headers and authentication.
func (c *HTTPAPIClient) doRequest(ctx context.Context, method, path, apiKey string, body interface{}, accept string) (*http.Response, error) {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)
	// Parcelway expects the key base64-encoded in a bearer header.
	req.Header.Set("Authorization", "bearer "+base64.StdEncoding.EncodeToString([]byte(apiKey)))
	req.Header.Set("User-Agent", c.userAgent)

	return c.httpClient.Do(req)
}

// parseError extracts error information from an HTTP response.
func (c *HTTPAPIClient) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if len(apiErr.Errors) > 0 {
			e := apiErr.Errors[0]
			return consign.NewRemoteAPIError(strconv.Itoa(e.Code), e.Message).
				WithStatusCode(resp.StatusCode)
		}
		if apiErr.Message != "" {
			return consign.NewRemoteAPIError(fmt.Sprintf("HTTP_%d", resp.StatusCode), apiErr.Message).
				WithStatusCode(resp.StatusCode)
		}
	}

	return consign.NewRemoteAPIError(fmt.Sprintf("HTTP_%d", resp.StatusCode), string(body)).
		WithStatusCode(resp.StatusCode)
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ";")
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
