package ports

import (
	"context"

	"github.com/soundtier/tierbeat/internal/core/domain"
)

// SavedTierlist is a tierlist persisted under a shareable identifier.
type SavedTierlist struct {
	ID   string
	Name string
	domain.Tierlist
}

// TierlistRepository persists shareable tierlists.
type TierlistRepository interface {
	GetByID(ctx context.Context, id string) (SavedTierlist, error)
	Save(ctx context.Context, t SavedTierlist) error
}
