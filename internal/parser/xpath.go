package parser

import (
	"bytes"
	"log/slog"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/shelfwatch/internal/catalog"
	"github.com/IshaanNene/shelfwatch/internal/config"
	"github.com/IshaanNene/shelfwatch/internal/types"
)

// XPathParser extracts products using XPath expressions.
type XPathParser struct {
	profile config.SiteProfile
	logger  *slog.Logger
}

// NewXPathParser creates an XPath parser bound to a site profile whose
// selectors are XPath expressions.
func NewXPathParser(profile config.SiteProfile, logger *slog.Logger) *XPathParser {
	return &XPathParser{
		profile: profile,
		logger:  logger.With("component", "xpath_parser"),
	}
}

// Name implements Parser.
func (p *XPathParser) Name() string { return "xpath" }

// Parse implements Parser.
func (p *XPathParser) Parse(page *types.Response) ([]catalog.RawProduct, error) {
	doc, err := html.Parse(bytes.NewReader(page.Body))
	if err != nil {
		return nil, &types.ParseError{URL: page.URL, Err: err}
	}

	container, err := htmlquery.Query(doc, p.profile.Container)
	if err != nil {
		p.logger.Warn("invalid container xpath", "selector", p.profile.Container, "error", err)
		return nil, nil
	}
	if container == nil {
		p.logger.Debug("no product container on page", "url", page.URL)
		return nil, nil
	}

	entries, err := htmlquery.QueryAll(container, p.profile.Entry)
	if err != nil {
		p.logger.Warn("invalid entry xpath", "selector", p.profile.Entry, "error", err)
		return nil, nil
	}

	var products []catalog.RawProduct
	for _, node := range entries {
		products = append(products, catalog.RawProduct{
			Title:    p.extract(node, p.profile.Title, p.profile.TitleAttr),
			ImageURL: p.extract(node, p.profile.Image, p.profile.ImageAttr),
			Price:    ParsePrice(p.extract(node, p.profile.Price, ""), p.profile),
		})
	}

	p.logger.Debug("page parsed", "url", page.URL, "products", len(products))
	return products, nil
}

// extract applies one XPath expression within a listing entry and
// returns the inner text or the named attribute of the first match.
func (p *XPathParser) extract(node *html.Node, selector, attribute string) string {
	if selector == "" {
		return ""
	}
	match, err := htmlquery.Query(node, selector)
	if err != nil {
		p.logger.Warn("invalid xpath", "selector", selector, "error", err)
		return ""
	}
	if match == nil {
		return ""
	}

	switch attribute {
	case "", "text":
		return strings.TrimSpace(htmlquery.InnerText(match))
	default:
		return strings.TrimSpace(htmlquery.SelectAttr(match, attribute))
	}
}
