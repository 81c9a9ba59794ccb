package directory

import (
	"context"
	"errors"

	"github.com/shinyyama/marketplace-inbox/internal/repository"
	"gorm.io/gorm"
)

// Listings resolves listing titles from the listings table.
type Listings struct {
	repo repository.ListingRepository
}

func NewListings(repo repository.ListingRepository) *Listings {
	return &Listings{repo: repo}
}

// ListingTitle reports ok=false for listings that were removed.
func (l *Listings) ListingTitle(ctx context.Context, id uint64) (string, bool, error) {
	listing, err := l.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return listing.Title, true, nil
}
