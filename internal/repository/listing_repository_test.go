package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shinyyama/marketplace-inbox/internal/model"
	"github.com/shinyyama/marketplace-inbox/internal/repository"
	"github.com/shinyyama/marketplace-inbox/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestListingRepository(t *testing.T) {
	repo := repository.NewListingRepository(testutil.NewDB(t))
	ctx := context.Background()

	listing := &model.Listing{SellerUID: "bob", Title: "Road bike", Description: "54cm frame", Price: 30000}
	require.NoError(t, repo.Create(ctx, listing))
	require.NotZero(t, listing.ID)

	got, err := repo.FindByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Road bike", got.Title)

	_, err = repo.FindByID(ctx, listing.ID+100)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
