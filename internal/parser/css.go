package parser

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/shelfwatch/internal/catalog"
	"github.com/IshaanNene/shelfwatch/internal/config"
	"github.com/IshaanNene/shelfwatch/internal/types"
)

// CSSParser extracts products using CSS selectors via goquery.
type CSSParser struct {
	profile config.SiteProfile
	logger  *slog.Logger
}

// NewCSSParser creates a CSS selector parser bound to a site profile.
func NewCSSParser(profile config.SiteProfile, logger *slog.Logger) *CSSParser {
	return &CSSParser{
		profile: profile,
		logger:  logger.With("component", "css_parser"),
	}
}

// Name implements Parser.
func (p *CSSParser) Name() string { return "css" }

// Parse implements Parser. Every listing entry yields a product; fields
// that fail to match degrade independently to their zero values.
func (p *CSSParser) Parse(page *types.Response) ([]catalog.RawProduct, error) {
	doc, err := page.Document()
	if err != nil {
		return nil, &types.ParseError{URL: page.URL, Err: err}
	}

	container := doc.Find(p.profile.Container).First()
	if container.Length() == 0 {
		// Pagination naturally runs past the last page.
		p.logger.Debug("no product container on page", "url", page.URL)
		return nil, nil
	}

	var products []catalog.RawProduct
	container.Find(p.profile.Entry).Each(func(_ int, sel *goquery.Selection) {
		products = append(products, catalog.RawProduct{
			Title:    p.extract(sel, p.profile.Title, p.profile.TitleAttr),
			ImageURL: p.extract(sel, p.profile.Image, p.profile.ImageAttr),
			Price:    ParsePrice(p.extract(sel, p.profile.Price, ""), p.profile),
		})
	})

	p.logger.Debug("page parsed", "url", page.URL, "products", len(products))
	return products, nil
}

// extract applies one selector within a listing entry and returns the
// text or the named attribute of the first match.
func (p *CSSParser) extract(sel *goquery.Selection, selector, attribute string) string {
	if selector == "" {
		return ""
	}
	node := sel.Find(selector).First()
	if node.Length() == 0 {
		return ""
	}

	switch attribute {
	case "", "text":
		return strings.TrimSpace(node.Text())
	default:
		val, _ := node.Attr(attribute)
		return strings.TrimSpace(val)
	}
}
