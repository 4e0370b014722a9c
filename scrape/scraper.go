package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/markusmobius/go-trafilatura"
	"go.uber.org/zap"
)

const userAgent = "Webrag-Scraper/1.0"

// ErrNoContent means the page was fetched but no usable article text could
// be extracted from it.
var ErrNoContent = errors.New("no usable content extracted")

// Scraper fetches a page and extracts the main article text, using
// trafilatura first and readability as a fallback.
type Scraper struct {
	httpClient *http.Client
	logger     *zap.Logger
}

func NewScraper(logger *zap.Logger) *Scraper {
	return &Scraper{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

func (s *Scraper) FetchAndExtract(ctx context.Context, pageURL string) (string, error) {
	body, err := s.fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}

	text, err := s.extract(body, pageURL)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s", ErrNoContent, pageURL)
	}
	return text, nil
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s returned status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", pageURL, err)
	}
	return body, nil
}

func (s *Scraper) extract(body []byte, pageURL string) (string, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL %s: %w", pageURL, err)
	}

	opts := trafilatura.Options{
		OriginalURL: parsedURL,
	}
	result, err := trafilatura.Extract(bytes.NewReader(body), opts)
	if err == nil && strings.TrimSpace(result.ContentText) != "" {
		s.logger.Info("trafilatura_extraction_result",
			zap.String("url", pageURL),
			zap.String("title", result.Metadata.Title),
			zap.Int("text_length", len(result.ContentText)))
		return result.ContentText, nil
	}
	if err != nil {
		s.logger.Warn("trafilatura extraction failed, falling back to readability",
			zap.String("url", pageURL),
			zap.Error(err))
	}

	parser := readability.NewParser()
	article, err := parser.Parse(bytes.NewReader(body), parsedURL)
	if err != nil {
		return "", fmt.Errorf("readability extraction failed: %w", err)
	}

	// Readability falls back to the page <title> when the body has no
	// article text; a bare title is not usable content.
	text := strings.TrimSpace(article.TextContent)
	if text == "" || text == strings.TrimSpace(article.Title) {
		return "", fmt.Errorf("%w: %s", ErrNoContent, pageURL)
	}

	s.logger.Info("readability_extraction_result",
		zap.String("url", pageURL),
		zap.String("title", article.Title),
		zap.Int("text_length", len(text)))

	return text, nil
}
