package weatherlinklive

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	currentConditionsPath = "/v1/current_conditions"

	defaultConnectTimeout = 3 * time.Second
	defaultRequestTimeout = 10 * time.Second
	maxResponseBytes      = 1 << 20
	maxRedirects          = 1
)

// Endpoint is the address of the WLL on the local network
type Endpoint struct {
	Host string `json:"ip_address"`
	Port int    `json:"port"`
}

// IsSet reports whether an address has been configured
func (e Endpoint) IsSet() bool {
	return strings.TrimSpace(e.Host) != ""
}

// BaseURL derives the device URL: https for port 443, no port suffix for 80
// (or an unset port), otherwise http with an explicit port.
func (e Endpoint) BaseURL() string {
	switch e.Port {
	case 0, 80:
		return "http://" + e.Host
	case 443:
		return "https://" + e.Host
	default:
		return "http://" + net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
	}
}

// Client fetches current conditions from a single WLL
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds an HTTP client for the endpoint. The WLL serves a
// self-signed certificate when reached over 443, so verification is off.
func NewClient(ep Endpoint, connectTimeout, requestTimeout time.Duration) (*Client, error) {
	if !ep.IsSet() {
		return nil, ErrNoEndpoint
	}
	base := ep.BaseURL()
	if _, err := url.ParseRequestURI(base + currentConditionsPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransportInitFailed, err)
	}

	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	dialer := &net.Dialer{Timeout: connectTimeout}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		TLSHandshakeTimeout: connectTimeout,
		MaxIdleConns:        2,
		IdleConnTimeout:     30 * time.Second,
	}

	return &Client{
		baseURL: base,
		http: &http.Client{
			Transport: transport,
			Timeout:   requestTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return fmt.Errorf("stopped after %d redirect", maxRedirects)
				}
				return nil
			},
		},
	}, nil
}

// BaseURL returns the URL prefix requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchConditions retrieves /v1/current_conditions and returns the
// normalized body text
func (c *Client) FetchConditions(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+currentConditionsPath, nil)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", ErrCommandFailed, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to connect to device: %v", ErrCommandFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: unexpected status code: %d", ErrCommandFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", ErrCommandFailed, err)
	}

	return NormalizeResponse(string(body)), nil
}

// Close releases idle connections held by the client
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// NormalizeResponse drops lines carrying an HTML comment marker, which some
// firmware versions inject, and joins the remaining lines after trimming
// spaces, carriage returns and newlines from both ends.
func NormalizeResponse(body string) string {
	if body == "" {
		return ""
	}

	var sb strings.Builder
	sb.Grow(len(body))
	for _, line := range strings.Split(body, "\n") {
		if strings.Contains(line, "<!-") {
			continue
		}
		sb.WriteString(strings.Trim(line, "\n\r "))
	}
	return sb.String()
}
