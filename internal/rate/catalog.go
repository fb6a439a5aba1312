package rate

import (
	"context"

	"github.com/google/uuid"
)

// CatalogAdapter mirrors a rate into the processor's item catalog. Keeping it
// behind an interface keeps the port boundary honest instead of inlining
// placeholder catalog IDs at the call sites.
type CatalogAdapter interface {
	UpsertItem(ctx context.Context, r *Rate) (string, error)
}

// NoopCatalog satisfies CatalogAdapter without an external call. Used when the
// processor has no catalog, and in tests.
type NoopCatalog struct{}

func (NoopCatalog) UpsertItem(ctx context.Context, r *Rate) (string, error) {
	return "item_" + uuid.NewString(), nil
}
