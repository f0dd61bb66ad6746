package douyin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ProxyProvider asks a proxy pool API for an address. The API is expected to
// answer {"ip": "...", "port": ...}.
type ProxyProvider struct {
	apiURL string
	client *http.Client
}

// NewProxyProvider returns a provider for apiURL. An empty apiURL disables it.
func NewProxyProvider(apiURL string) *ProxyProvider {
	return &ProxyProvider{
		apiURL: apiURL,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether an API URL was configured.
func (p *ProxyProvider) Enabled() bool {
	return p != nil && p.apiURL != ""
}

// Fetch returns a proxy URL such as "http://1.2.3.4:8080".
func (p *ProxyProvider) Fetch(ctx context.Context) (string, error) {
	if !p.Enabled() {
		return "", fmt.Errorf("fetch proxy: no proxy api configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("fetch proxy: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch proxy: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch proxy: unexpected status %d", resp.StatusCode)
	}

	var data struct {
		IP   string     `json:"ip"`
		Port flexString `json:"port"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decode proxy response: %w", err)
	}
	if data.IP == "" || data.Port == "" {
		return "", fmt.Errorf("%w: proxy response missing ip or port", ErrInvalidResponse)
	}
	return fmt.Sprintf("http://%s:%s", data.IP, data.Port), nil
}
