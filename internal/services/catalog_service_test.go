package services

import (
	"context"
	"testing"

	"storefront-api/internal/database"
	"storefront-api/internal/errdefs"
	"storefront-api/internal/models"
	"storefront-api/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogService(t *testing.T) *CatalogService {
	t.Helper()
	return NewCatalogService(database.NewCatalogStore(testutil.OpenCatalogDB(t)))
}

func TestCatalogService_CreateFile(t *testing.T) {
	ctx := context.Background()
	svc := newCatalogService(t)

	file, err := svc.CreateFile(ctx, CatalogFileInput{
		Batch:   " B2 ",
		Type:    models.FileTypeDocumentation,
		Price:   decimal.RequireFromString("750.50"),
		FileURL: "https://files.example.com/b2/doc.pdf",
	})
	require.NoError(t, err)
	assert.NotZero(t, file.ID)
	assert.Equal(t, "B2", file.Batch)
	assert.Equal(t, "B2 Documentation", file.Name)

	stored, err := svc.GetFile(ctx, file.ID)
	require.NoError(t, err)
	assert.True(t, stored.Price.Equal(decimal.RequireFromString("750.5")))
}

func TestCatalogService_CreateFileValidation(t *testing.T) {
	ctx := context.Background()
	svc := newCatalogService(t)

	valid := CatalogFileInput{
		Batch:   "B2",
		Type:    models.FileTypeDatabase,
		Price:   decimal.NewFromInt(1000),
		FileURL: "https://files.example.com/b2/db.sql",
	}

	tests := []struct {
		name   string
		modify func(in *CatalogFileInput)
	}{
		{"missing batch", func(in *CatalogFileInput) { in.Batch = "" }},
		{"unknown type", func(in *CatalogFileInput) { in.Type = "Slides" }},
		{"zero price", func(in *CatalogFileInput) { in.Price = decimal.Zero }},
		{"negative price", func(in *CatalogFileInput) { in.Price = decimal.NewFromInt(-5) }},
		{"sub-cent price", func(in *CatalogFileInput) { in.Price = decimal.RequireFromString("10.001") }},
		{"relative url", func(in *CatalogFileInput) { in.FileURL = "/files/db.sql" }},
		{"ftp url", func(in *CatalogFileInput) { in.FileURL = "ftp://files.example.com/db.sql" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.modify(&in)
			_, err := svc.CreateFile(ctx, in)
			assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)
		})
	}

	files, err := svc.ListFiles(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestCatalogService_UpdateFile(t *testing.T) {
	ctx := context.Background()
	svc := newCatalogService(t)

	file, err := svc.CreateFile(ctx, CatalogFileInput{
		Batch: "B1", Type: models.FileTypeDatabase, Price: decimal.NewFromInt(1000),
		FileURL: "https://files.example.com/b1/db.sql",
	})
	require.NoError(t, err)

	price := decimal.NewFromInt(1200)
	updated, err := svc.UpdateFile(ctx, file.ID, CatalogFileUpdate{Price: &price})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(price))
	assert.Equal(t, "B1", updated.Batch)

	_, err = svc.UpdateFile(ctx, file.ID, CatalogFileUpdate{})
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)

	badType := models.FileType("Video")
	_, err = svc.UpdateFile(ctx, file.ID, CatalogFileUpdate{Type: &badType})
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)

	_, err = svc.UpdateFile(ctx, 9999, CatalogFileUpdate{Price: &price})
	assert.ErrorIs(t, err, errdefs.ErrNotFound)
}

func TestCatalogService_DeleteFile(t *testing.T) {
	ctx := context.Background()
	svc := newCatalogService(t)

	file, err := svc.CreateFile(ctx, CatalogFileInput{
		Batch: "B1", Type: models.FileTypeDocumentation, Price: decimal.NewFromInt(500),
		FileURL: "https://files.example.com/b1/doc.pdf",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFile(ctx, file.ID))
	assert.ErrorIs(t, svc.DeleteFile(ctx, file.ID), errdefs.ErrNotFound)

	batches, err := svc.ListBatches(ctx)
	require.NoError(t, err)
	assert.Empty(t, batches)
}
