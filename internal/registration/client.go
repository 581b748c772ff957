package registration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/constants"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/httpclient"
)

// Request is the registration payload submitted for one recording.
type Request struct {
	ISRC            string   `json:"isrc"`
	Title           string   `json:"title"`
	Artist          string   `json:"artist"`
	Album           string   `json:"album"`
	DurationSeconds int      `json:"duration_seconds"`
	Territories     []string `json:"territories"`
	RightsHolder    string   `json:"rights_holder"`
	Language        string   `json:"language"`
	Explicit        bool     `json:"explicit"`
}

// InternationalRequest asks for an already registered ISRC to be extended
// to additional territories.
type InternationalRequest struct {
	ISRC        string   `json:"isrc"`
	Reference   string   `json:"reference"`
	Territories []string `json:"territories"`
}

// Response is the authority's answer. A rejection sets ErrorCode.
type Response struct {
	Success     bool     `json:"success"`
	Reference   string   `json:"reference,omitempty"`
	Authority   string   `json:"authority,omitempty"`
	ErrorCode   string   `json:"error_code,omitempty"`
	Message     string   `json:"message,omitempty"`
	Territories []string `json:"territories,omitempty"`
}

// Client submits registrations to an authority. An error means the call
// itself failed and says nothing about the ISRC.
type Client interface {
	Register(ctx context.Context, req Request) (Response, error)
	RegisterInternational(ctx context.Context, req InternationalRequest) (Response, error)
}

// HTTPClient talks to a registry over JSON.
type HTTPClient struct {
	client  *httpclient.Client
	baseURL string
	apiKey  string
}

func NewHTTPClient(client *httpclient.Client, baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

func (c *HTTPClient) Register(ctx context.Context, req Request) (Response, error) {
	return c.post(ctx, "/isrc/register", req)
}

func (c *HTTPClient) RegisterInternational(ctx context.Context, req InternationalRequest) (Response, error) {
	return c.post(ctx, "/isrc/international", req)
}

func (c *HTTPClient) post(ctx context.Context, path string, body any) (Response, error) {
	var headers map[string]string
	if c.apiKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + c.apiKey}
	}

	var resp Response
	if _, err := c.client.PostJSON(ctx, c.baseURL+path, headers, body, &resp); err != nil {
		return Response{}, fmt.Errorf("%w: registry %s: %v", domain.ErrTransientDependency, path, err)
	}
	return resp, nil
}

// SimulatedClient accepts every submission. It stands in for the registry
// when no REGISTRY_URL is configured.
type SimulatedClient struct {
	Authority string
	Now       func() time.Time

	mu  sync.Mutex
	seq int
}

func NewSimulatedClient(authority string) *SimulatedClient {
	if authority == "" {
		authority = constants.DefaultRegistryName
	}
	return &SimulatedClient{Authority: authority, Now: time.Now}
}

func (c *SimulatedClient) Register(_ context.Context, req Request) (Response, error) {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	return Response{
		Success:   true,
		Reference: fmt.Sprintf("REG-%s-%d-%04d", req.ISRC, c.Now().Unix(), seq),
		Authority: c.Authority,
	}, nil
}

func (c *SimulatedClient) RegisterInternational(_ context.Context, req InternationalRequest) (Response, error) {
	return Response{
		Success:     true,
		Reference:   req.Reference,
		Authority:   c.Authority,
		Territories: req.Territories,
	}, nil
}
