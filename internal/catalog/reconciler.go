package catalog

import (
	"context"
	"log/slog"
)

// ImageDownloader stores a remote image locally and returns the local
// path. Implemented by the media package.
type ImageDownloader interface {
	Download(ctx context.Context, imageURL, title string) (string, error)
}

// Reconciler merges freshly scraped products into the working catalogue.
// Per product, keyed by title: a new title is inserted and its image
// downloaded; an unchanged price is skipped with no write and no network
// activity; a changed price is updated in place with the image path
// preserved.
type Reconciler struct {
	images ImageDownloader
	logger *slog.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(images ImageDownloader, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		images: images,
		logger: logger.With("component", "reconciler"),
	}
}

// Reconcile applies one page's raw products to the catalogue and returns
// the per-page stats delta. A duplicate title within the page resolves
// to the later occurrence's price. An image download failure degrades to
// an empty path and never aborts the rest of the page.
func (r *Reconciler) Reconcile(ctx context.Context, cat *Catalogue, raws []RawProduct) Stats {
	var stats Stats

	for _, raw := range raws {
		price, _, ok := cat.Lookup(raw.Title)
		switch {
		case !ok:
			path, err := r.images.Download(ctx, raw.ImageURL, raw.Title)
			if err != nil {
				r.logger.Warn("image download failed, storing empty path",
					"title", raw.Title,
					"url", raw.ImageURL,
					"error", err,
				)
				path = ""
			}
			cat.Insert(raw.Title, raw.Price, path)
			stats.Inserted++
			r.logger.Debug("product inserted", "title", raw.Title, "price", raw.Price)

		case price == raw.Price:
			stats.Skipped++

		default:
			cat.SetPrice(raw.Title, raw.Price)
			stats.Updated++
			r.logger.Debug("price updated", "title", raw.Title, "old", price, "new", raw.Price)
		}
	}

	return stats
}
