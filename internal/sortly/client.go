package sortly

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Sentinel errors for Sortly client failures. Sync is best-effort: callers
// log these and retry on the next cycle, they never fail a scan.
var (
	ErrSortlyUnreachable = errors.New("sortly unreachable")
	ErrSortlyAPIError    = errors.New("sortly api error")
	ErrSortlyTimeout     = errors.New("sortly request timeout")
)

// Client is the interface for talking to the Sortly inventory API.
type Client interface {
	ListItems(ctx context.Context, req ListItemsRequest) ([]Item, error)
	UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error
	Ping(ctx context.Context) error
}

// ListItemsRequest defines parameters for an items listing.
type ListItemsRequest struct {
	UpdatedSince time.Time
	PerPage      int
}

// Item is Sortly's view of one inventory entry. Folders show up in the same
// listing and must be skipped by consumers.
type Item struct {
	ID       int64         `json:"id"`
	Name     string        `json:"name"`
	Type     string        `json:"type"`
	Quantity int           `json:"quantity"`
	Location *ItemLocation `json:"location"`
	Parent   *ItemLocation `json:"parent"`
}

// ItemLocation is the folder or location an item sits in.
type ItemLocation struct {
	Name string `json:"name"`
}

// IsFolder reports whether the entry is a Sortly folder rather than an item.
func (i Item) IsFolder() bool {
	return i.Type == "folder"
}

// LocationName returns the item's location, falling back to its parent
// folder's name. Empty when Sortly reports neither.
func (i Item) LocationName() string {
	if i.Location != nil && i.Location.Name != "" {
		return i.Location.Name
	}
	if i.Parent != nil {
		return i.Parent.Name
	}
	return ""
}

// HTTPClient implements Client using Sortly's HTTP API.
type HTTPClient struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

// NewHTTPClient creates a new Sortly HTTP client.
func NewHTTPClient(baseURL, secretKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:   baseURL,
		secretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) ListItems(ctx context.Context, req ListItemsRequest) ([]Item, error) {
	params := url.Values{}
	if !req.UpdatedSince.IsZero() {
		params.Set("updated_since", req.UpdatedSince.UTC().Format(time.RFC3339))
	}
	if req.PerPage > 0 {
		params.Set("per_page", strconv.Itoa(req.PerPage))
	}

	u := fmt.Sprintf("%s/items", c.baseURL)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrSortlyAPIError, resp.StatusCode)
	}

	var listResp itemsResponse
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return nil, fmt.Errorf("decoding sortly response: %w", err)
	}

	if listResp.Data == nil {
		return []Item{}, nil
	}
	return listResp.Data, nil
}

func (c *HTTPClient) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	body, err := json.Marshal(map[string]int{"quantity": quantity})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	u := fmt.Sprintf("%s/items/%d", c.baseURL, itemID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%w: status %d", ErrSortlyAPIError, resp.StatusCode)
	}
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	_, err := c.ListItems(ctx, ListItemsRequest{PerPage: 1})
	return err
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrSortlyTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrSortlyTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrSortlyUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrSortlyUnreachable, err)
}

type itemsResponse struct {
	Data []Item `json:"data"`
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
