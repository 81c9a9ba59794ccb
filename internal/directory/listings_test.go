package directory

import (
	"context"
	"testing"

	"github.com/shinyyama/marketplace-inbox/internal/model"
	"github.com/shinyyama/marketplace-inbox/internal/repository"
	"github.com/shinyyama/marketplace-inbox/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingTitle(t *testing.T) {
	gdb := testutil.NewDB(t)
	repo := repository.NewListingRepository(gdb)
	ctx := context.Background()
	bike := &model.Listing{SellerUID: "bob", Title: "Road bike", Price: 12000}
	require.NoError(t, repo.Create(ctx, bike))

	listings := NewListings(repo)

	title, ok, err := listings.ListingTitle(ctx, bike.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Road bike", title)

	_, ok, err = listings.ListingTitle(ctx, bike.ID+100)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListingTitleWithoutDatabase(t *testing.T) {
	listings := NewListings(repository.NewListingRepository(nil))
	_, _, err := listings.ListingTitle(context.Background(), 1)
	assert.ErrorIs(t, err, repository.ErrDBNotReady)
}
