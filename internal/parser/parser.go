package parser

import (
	"fmt"
	"log/slog"

	"github.com/IshaanNene/shelfwatch/internal/catalog"
	"github.com/IshaanNene/shelfwatch/internal/config"
	"github.com/IshaanNene/shelfwatch/internal/types"
)

// Parser extracts raw products from one catalogue page. Parsing is
// tolerant by contract: a page without the product container yields an
// empty slice and a nil error, and missing fields degrade to zero
// values. The error return is reserved for unreadable input; callers
// treat it as an empty page.
type Parser interface {
	Parse(page *types.Response) ([]catalog.RawProduct, error)
	Name() string
}

// New returns the parser for the configured engine. The profile's
// selector strings are interpreted in the dialect of that engine.
func New(cfg config.ParserConfig, logger *slog.Logger) (Parser, error) {
	switch cfg.Engine {
	case "css", "":
		return NewCSSParser(cfg.Profile, logger), nil
	case "xpath":
		return NewXPathParser(cfg.Profile, logger), nil
	default:
		return nil, fmt.Errorf("unknown parser engine %q", cfg.Engine)
	}
}
