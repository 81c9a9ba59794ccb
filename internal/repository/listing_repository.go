package repository

import (
	"context"
	"sync/atomic"

	"github.com/shinyyama/marketplace-inbox/internal/model"
	"gorm.io/gorm"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *model.Listing) error
	FindByID(ctx context.Context, id uint64) (*model.Listing, error)
	SetDB(db *gorm.DB)
}

type listingRepository struct {
	db atomic.Pointer[gorm.DB]
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	r := &listingRepository{}
	r.db.Store(db)
	return r
}

func (r *listingRepository) Create(ctx context.Context, listing *model.Listing) error {
	db := r.db.Load()
	if db == nil {
		return ErrDBNotReady
	}
	return wrapStoreErr(db.WithContext(ctx).Create(listing).Error)
}

// FindByID returns gorm.ErrRecordNotFound when no listing has the id.
func (r *listingRepository) FindByID(ctx context.Context, id uint64) (*model.Listing, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	var listing model.Listing
	if err := db.WithContext(ctx).First(&listing, id).Error; err != nil {
		return nil, wrapStoreErr(err)
	}
	return &listing, nil
}

// SetDB swaps the connection once the database becomes reachable after startup.
func (r *listingRepository) SetDB(db *gorm.DB) {
	r.db.Store(db)
}
