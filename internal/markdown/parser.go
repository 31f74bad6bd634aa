package markdown

import (
	"bytes"
	"crypto/sha256"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// Parser renders user-written markdown into sanitized HTML. Rendered
// output is cached by content hash, so edits naturally miss the cache.
type Parser struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	cache  *lru.Cache[[sha256.Size]byte, string]
}

func NewParser(cacheSize int) *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithHardWraps(),
			goldmarkhtml.WithXHTML(),
		),
	)

	if cacheSize <= 0 {
		cacheSize = 1
	}
	// Only errors on a non-positive size
	cache, _ := lru.New[[sha256.Size]byte, string](cacheSize)

	return &Parser{
		md:     md,
		policy: bluemonday.UGCPolicy(),
		cache:  cache,
	}
}

func (p *Parser) Parse(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	err := p.md.Convert(source, &buf)
	if err != nil {
		return nil, err
	}
	return p.policy.SanitizeBytes(buf.Bytes()), nil
}

// Render returns the sanitized HTML for source. Bodies that fail to
// convert fall back to escaped plain text.
func (p *Parser) Render(source string) string {
	key := sha256.Sum256([]byte(source))
	if html, ok := p.cache.Get(key); ok {
		return html
	}

	out, err := p.Parse([]byte(source))
	html := string(out)
	if err != nil {
		html = "<p>" + bluemonday.StrictPolicy().Sanitize(source) + "</p>"
	}

	p.cache.Add(key, html)
	return html
}
