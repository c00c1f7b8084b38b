package feed

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
)

// ExtractedContent is the reader-view rendering of an article page.
type ExtractedContent struct {
	Title       string
	Byline      string
	Excerpt     string
	SiteName    string
	ImageURL    string
	ContentHTML string
}

type ContentExtractor struct{}

func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{}
}

// Run extracts the readable article from raw page HTML. The page URL is
// used to resolve relative links inside the extracted content.
func (e *ContentExtractor) Run(data []byte, pageURL string) (*ExtractedContent, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("HTML data is empty")
	}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		parsedURL = nil
	}

	article, err := readability.FromReader(strings.NewReader(string(data)), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to extract content: %w", err)
	}

	if article.Content == "" {
		return nil, fmt.Errorf("no content extracted from HTML data")
	}

	slog.Debug("Content extracted successfully",
		"title", article.Title,
		"content_length", len(article.Content))

	return &ExtractedContent{
		Title:       article.Title,
		Byline:      article.Byline,
		Excerpt:     article.Excerpt,
		SiteName:    article.SiteName,
		ImageURL:    article.Image,
		ContentHTML: article.Content,
	}, nil
}
