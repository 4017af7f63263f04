package catalog

// RawProduct is one product as extracted from a listing page. It lives
// only for the duration of one page's reconciliation; the title is its
// only identity.
type RawProduct struct {
	Title    string
	Price    float64
	ImageURL string
}

// Product is the persisted form of a catalogue entry. The field names
// follow the on-disk format: an ordered array of records with exactly
// these three fields.
type Product struct {
	Title     string  `json:"product_title" bson:"product_title"`
	Price     float64 `json:"product_price" bson:"product_price"`
	ImagePath string  `json:"path_to_image" bson:"path_to_image"`
}

// Stats counts reconciliation outcomes accumulated across a session.
type Stats struct {
	Inserted int
	Updated  int
	Skipped  int
}

// Merge adds the counts of a per-page delta into s.
func (s *Stats) Merge(delta Stats) {
	s.Inserted += delta.Inserted
	s.Updated += delta.Updated
	s.Skipped += delta.Skipped
}
