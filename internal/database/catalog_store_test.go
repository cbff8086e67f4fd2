package database

import (
	"context"
	"testing"

	"storefront-api/internal/errdefs"
	"storefront-api/internal/models"
	"storefront-api/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogStore(t *testing.T) {
	ctx := context.Background()
	store := NewCatalogStore(testutil.OpenCatalogDB(t))

	doc := testutil.File("B1", models.FileTypeDocumentation, 500)
	db := testutil.File("B1", models.FileTypeDatabase, 1200)
	other := testutil.File("B2", models.FileTypeDocumentation, 300)
	for _, f := range []*models.ProjectFile{&doc, &db, &other} {
		require.NoError(t, store.CreateFile(ctx, f))
	}

	files, err := store.ListFiles(ctx, "B1")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.True(t, decimal.NewFromInt(500).Equal(files[0].Price))

	all, err := store.ListFiles(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	batches, err := store.ListBatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B1", "B2"}, batches)

	require.NoError(t, store.UpdateFile(ctx, doc.ID, map[string]interface{}{"price": decimal.NewFromInt(700)}))
	updated, err := store.GetFile(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(700).Equal(updated.Price))

	require.NoError(t, store.DeleteFile(ctx, other.ID))
	_, err = store.GetFile(ctx, other.ID)
	assert.ErrorIs(t, err, errdefs.ErrNotFound)
	assert.ErrorIs(t, store.DeleteFile(ctx, other.ID), errdefs.ErrNotFound)
}
