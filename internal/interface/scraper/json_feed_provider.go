package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"flightwatch-service/internal/domain/entity"
	"flightwatch-service/pkg/logger"
)

// maxFeedSize bounds how much of a remote feed is read
const maxFeedSize = 32 << 20

// JSONFeedProvider reads a snapshot that was already serialized as JSON, from a local
// file or an http(s) URL ending in .json
type JSONFeedProvider struct {
	source string
	client *http.Client
	logger logger.Logger
}

// NewJSONFeedProvider creates a provider for the given source
func NewJSONFeedProvider(source string, timeout time.Duration, logger logger.Logger) *JSONFeedProvider {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &JSONFeedProvider{
		source: source,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// CanHandle accepts local paths and remote .json documents
func (p *JSONFeedProvider) CanHandle(source string) bool {
	if !isRemote(source) {
		return source != ""
	}
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".json")
}

// Fetch reads and decodes the feed
func (p *JSONFeedProvider) Fetch(ctx context.Context) (entity.Snapshot, error) {
	var (
		data []byte
		err  error
	)
	if isRemote(p.source) {
		data, err = p.download(ctx)
	} else {
		data, err = os.ReadFile(p.source)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read feed %s: %w", p.source, err)
	}

	snapshot, err := entity.DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode feed %s: %w", p.source, err)
	}

	p.logger.Info("Flight feed loaded", "source", p.source, "flights", len(snapshot))
	return snapshot, nil
}

func (p *JSONFeedProvider) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxFeedSize))
}

func isRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
