package parser

import (
	"log/slog"
	"os"
	"testing"

	"github.com/IshaanNene/shelfwatch/internal/config"
	"github.com/IshaanNene/shelfwatch/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const testHTML = `<!DOCTYPE html>
<html>
<head><title>Shop</title></head>
<body>
    <ul class="products columns-4">
        <li class="product">
            <img class="attachment-woocommerce_thumbnail" src="https://cdn.example.com/img/drill-a.jpg">
            <span class="price">&#8377;1,500.00</span>
            <a class="button" data-title="Drill A" href="?add-to-cart=1">Add to cart</a>
        </li>
        <li class="product">
            <img class="attachment-woocommerce_thumbnail" src="https://cdn.example.com/img/drill-b.jpg">
            <span class="price">Starting at: &#8377;250.50</span>
            <a class="button" data-title="Drill B" href="?add-to-cart=2">Add to cart</a>
        </li>
        <li class="product">
            <span class="price">no price here</span>
            <a class="button" href="?add-to-cart=3">Add to cart</a>
        </li>
    </ul>
</body>
</html>`

const emptyHTML = `<!DOCTYPE html>
<html><body><p>Nothing for sale.</p></body></html>`

func makeResp(url, body string) *types.Response {
	return &types.Response{
		URL:         url,
		FinalURL:    url,
		StatusCode:  200,
		Body:        []byte(body),
		ContentType: "text/html",
	}
}

func xpathProfile() config.SiteProfile {
	return config.SiteProfile{
		Container:       "//ul[contains(@class, 'products')]",
		Entry:           ".//li",
		Title:           ".//a[contains(@class, 'button')]",
		TitleAttr:       "data-title",
		Image:           ".//img[contains(@class, 'attachment-woocommerce_thumbnail')]",
		ImageAttr:       "src",
		Price:           ".//span[contains(@class, 'price')]",
		PricePrefixes:   []string{"Starting at:"},
		CurrencySymbols: []string{"₹"},
	}
}

// --- CSS Parser Tests ---

func TestCSSParserExtract(t *testing.T) {
	p := NewCSSParser(config.DefaultProfile(), testLogger)

	products, err := p.Parse(makeResp("https://shop.example.com/?page=1", testHTML))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("expected 3 products, got %d", len(products))
	}

	if products[0].Title != "Drill A" {
		t.Errorf("expected title 'Drill A', got %q", products[0].Title)
	}
	if products[0].Price != 1500.0 {
		t.Errorf("expected price 1500.0, got %v", products[0].Price)
	}
	if products[0].ImageURL != "https://cdn.example.com/img/drill-a.jpg" {
		t.Errorf("unexpected image URL %q", products[0].ImageURL)
	}

	// "Starting at:" prefix is stripped before price extraction
	if products[1].Price != 250.5 {
		t.Errorf("expected price 250.5, got %v", products[1].Price)
	}
}

func TestCSSParserMissingFieldsDegrade(t *testing.T) {
	p := NewCSSParser(config.DefaultProfile(), testLogger)

	products, err := p.Parse(makeResp("https://shop.example.com/?page=1", testHTML))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	// Third entry has no data-title, no image, and unparseable price text.
	third := products[2]
	if third.Title != "" {
		t.Errorf("missing title attribute should yield empty string, got %q", third.Title)
	}
	if third.ImageURL != "" {
		t.Errorf("missing image should yield empty string, got %q", third.ImageURL)
	}
	if third.Price != 0.0 {
		t.Errorf("unparseable price should yield 0.0, got %v", third.Price)
	}
}

func TestCSSParserNoContainer(t *testing.T) {
	p := NewCSSParser(config.DefaultProfile(), testLogger)

	products, err := p.Parse(makeResp("https://shop.example.com/?page=99", emptyHTML))
	if err != nil {
		t.Fatalf("missing container must not error, got: %v", err)
	}
	if len(products) != 0 {
		t.Errorf("expected empty result past the last page, got %d", len(products))
	}
}

// --- XPath Parser Tests ---

func TestXPathParserExtract(t *testing.T) {
	p := NewXPathParser(xpathProfile(), testLogger)

	products, err := p.Parse(makeResp("https://shop.example.com/?page=1", testHTML))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("expected 3 products, got %d", len(products))
	}

	if products[0].Title != "Drill A" || products[0].Price != 1500.0 {
		t.Errorf("unexpected first product: %+v", products[0])
	}
	if products[1].Price != 250.5 {
		t.Errorf("expected price 250.5, got %v", products[1].Price)
	}
	if products[2].Title != "" || products[2].Price != 0.0 {
		t.Errorf("missing fields should degrade to defaults, got %+v", products[2])
	}
}

func TestXPathParserNoContainer(t *testing.T) {
	p := NewXPathParser(xpathProfile(), testLogger)

	products, err := p.Parse(makeResp("https://shop.example.com/?page=99", emptyHTML))
	if err != nil {
		t.Fatalf("missing container must not error, got: %v", err)
	}
	if len(products) != 0 {
		t.Errorf("expected empty result, got %d", len(products))
	}
}

// --- Price Extraction Tests ---

func TestParsePrice(t *testing.T) {
	profile := config.DefaultProfile()

	tests := []struct {
		input    string
		expected float64
	}{
		{"₹1,500.00", 1500.0},
		{"₹250.50", 250.5},
		{"Starting at: ₹99.00", 99.0},
		{"Starting at:₹99.00", 99.0},
		{"₹2,10,000.00", 210000.0},
		{"₹1,800.00 ₹1,500.00", 1800.0}, // sale markup: first value wins
		{"1500.00", 0.0},               // no currency symbol
		{"₹", 0.0},                     // empty numeric portion
		{"", 0.0},
		{"   ", 0.0},
		{"Out of stock", 0.0},
	}

	for _, tt := range tests {
		got := ParsePrice(tt.input, profile)
		if got != tt.expected {
			t.Errorf("ParsePrice(%q): expected %v, got %v", tt.input, tt.expected, got)
		}
	}
}

func TestParsePriceMultipleSymbols(t *testing.T) {
	profile := config.SiteProfile{
		CurrencySymbols: []string{"₹", "$"},
	}

	if got := ParsePrice("$12.99", profile); got != 12.99 {
		t.Errorf("expected 12.99, got %v", got)
	}
	// Earliest symbol in the text wins regardless of config order.
	if got := ParsePrice("$5.00 or ₹400", profile); got != 5.0 {
		t.Errorf("expected 5.0, got %v", got)
	}
}

// --- Factory Tests ---

func TestNewParserEngines(t *testing.T) {
	cssParser, err := New(config.ParserConfig{Engine: "css", Profile: config.DefaultProfile()}, testLogger)
	if err != nil || cssParser.Name() != "css" {
		t.Errorf("expected css parser, got %v (err=%v)", cssParser, err)
	}

	xpathParser, err := New(config.ParserConfig{Engine: "xpath", Profile: xpathProfile()}, testLogger)
	if err != nil || xpathParser.Name() != "xpath" {
		t.Errorf("expected xpath parser, got %v (err=%v)", xpathParser, err)
	}

	if _, err := New(config.ParserConfig{Engine: "divination"}, testLogger); err == nil {
		t.Error("expected error for unknown engine")
	}
}

// --- Benchmarks ---

func BenchmarkCSSParse(b *testing.B) {
	p := NewCSSParser(config.DefaultProfile(), testLogger)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Parse(makeResp("https://shop.example.com/?page=1", testHTML))
	}
}

func BenchmarkXPathParse(b *testing.B) {
	p := NewXPathParser(xpathProfile(), testLogger)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Parse(makeResp("https://shop.example.com/?page=1", testHTML))
	}
}
