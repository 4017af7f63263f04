package catalog

// Catalogue is the working set of one crawl session: a mapping from
// product title to its current price and image path, with stable
// first-insertion ordering so saves emit an ordered sequence. It is
// owned exclusively by the session that built it and is not safe for
// concurrent use.
type Catalogue struct {
	entries map[string]entry
	order   []string
}

type entry struct {
	price     float64
	imagePath string
}

// New returns an empty catalogue.
func New() *Catalogue {
	return &Catalogue{entries: make(map[string]entry)}
}

// FromProducts seeds a catalogue from a persisted sequence. A repeated
// title keeps its first position in the order; the last record's values
// win.
func FromProducts(products []Product) *Catalogue {
	c := New()
	for _, p := range products {
		c.Insert(p.Title, p.Price, p.ImagePath)
	}
	return c
}

// Len returns the number of distinct titles.
func (c *Catalogue) Len() int { return len(c.entries) }

// Lookup returns the stored price and image path for a title.
func (c *Catalogue) Lookup(title string) (price float64, imagePath string, ok bool) {
	e, ok := c.entries[title]
	return e.price, e.imagePath, ok
}

// Insert adds a title or overwrites an existing one in place, keeping
// its original position in the order.
func (c *Catalogue) Insert(title string, price float64, imagePath string) {
	if _, exists := c.entries[title]; !exists {
		c.order = append(c.order, title)
	}
	c.entries[title] = entry{price: price, imagePath: imagePath}
}

// SetPrice updates the price of an existing title, leaving its image
// path untouched. Unknown titles are ignored.
func (c *Catalogue) SetPrice(title string, price float64) {
	e, ok := c.entries[title]
	if !ok {
		return
	}
	e.price = price
	c.entries[title] = e
}

// Products returns the catalogue as an ordered sequence of persisted
// records.
func (c *Catalogue) Products() []Product {
	products := make([]Product, 0, len(c.order))
	for _, title := range c.order {
		e := c.entries[title]
		products = append(products, Product{
			Title:     title,
			Price:     e.price,
			ImagePath: e.imagePath,
		})
	}
	return products
}
