package feed

import (
	"strings"
	"testing"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head><title>Test Article</title></head>
<body>
	<nav>Home | About | Contact</nav>
	<article>
		<h1>Test Article</h1>
		<p>This is the main content of the article. It contains several paragraphs of meaningful text that should be extracted by the readability algorithm.</p>
		<p>This is another paragraph with more content. The readability algorithm should identify this as the main content area and extract it properly.</p>
	</article>
	<footer>Copyright 2024</footer>
</body>
</html>`

func TestContentExtractorRun(t *testing.T) {
	extractor := NewContentExtractor()

	extracted, err := extractor.Run([]byte(articleHTML), "https://example.com/article")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if extracted.Title != "Test Article" {
		t.Errorf("Expected title 'Test Article', got: %s", extracted.Title)
	}
	if !strings.Contains(extracted.ContentHTML, "main content of the article") {
		t.Errorf("Expected article text extracted, got: %s", extracted.ContentHTML)
	}
}

func TestContentExtractorEmptyInput(t *testing.T) {
	extractor := NewContentExtractor()

	if _, err := extractor.Run(nil, "https://example.com/article"); err == nil {
		t.Error("Expected error for empty input")
	}
}
