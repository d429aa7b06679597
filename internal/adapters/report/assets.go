package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"
)

const maxLogoBytes = 5 << 20

var errNoLogo = errors.New("no brand mark configured")

// LogoSource provides the brand mark: the local file when present, otherwise
// a one-time download kept in memory.
type LogoSource struct {
	path   string
	url    string
	client *http.Client

	mu         sync.Mutex
	downloaded []byte
}

// NewLogoSource creates a logo source. A non-positive timeout uses 8s.
func NewLogoSource(path, url string, timeout time.Duration) *LogoSource {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &LogoSource{
		path:   path,
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Load returns the logo bytes.
func (l *LogoSource) Load(ctx context.Context) ([]byte, error) {
	if l == nil {
		return nil, errNoLogo
	}
	if l.path != "" {
		if data, err := os.ReadFile(l.path); err == nil {
			return data, nil
		}
	}
	if l.url == "" {
		return nil, errNoLogo
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.downloaded != nil {
		return l.downloaded, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build logo request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download logo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to download logo: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxLogoBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read logo: %w", err)
	}
	l.downloaded = data
	return data, nil
}
