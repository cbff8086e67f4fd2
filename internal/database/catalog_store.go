package database

import (
	"context"
	"fmt"

	"storefront-api/internal/errdefs"
	"storefront-api/internal/models"

	"gorm.io/gorm"
)

// CatalogStore holds the purchasable project files
type CatalogStore struct {
	db *gorm.DB
}

// NewCatalogStore creates a new catalog store
func NewCatalogStore(db *gorm.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// ListFiles returns catalog rows, limited to one batch when batch is non-empty
func (s *CatalogStore) ListFiles(ctx context.Context, batch string) ([]models.ProjectFile, error) {
	query := s.db.WithContext(ctx).Order("batch ASC").Order("id ASC")
	if batch != "" {
		query = query.Where("batch = ?", batch)
	}

	var files []models.ProjectFile
	if err := query.Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

// ListBatches returns distinct batch names
func (s *CatalogStore) ListBatches(ctx context.Context) ([]string, error) {
	var batches []string
	err := s.db.WithContext(ctx).Model(&models.ProjectFile{}).
		Distinct("batch").
		Order("batch ASC").
		Pluck("batch", &batches).Error
	return batches, err
}

// GetFile gets a catalog row by id
func (s *CatalogStore) GetFile(ctx context.Context, id uint) (*models.ProjectFile, error) {
	var file models.ProjectFile
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&file).Error; err != nil {
		return nil, translate(err)
	}
	return &file, nil
}

// CreateFile adds a catalog row
func (s *CatalogStore) CreateFile(ctx context.Context, file *models.ProjectFile) error {
	if err := s.db.WithContext(ctx).Create(file).Error; err != nil {
		return fmt.Errorf("failed to create project file: %w", err)
	}
	return nil
}

// UpdateFile applies column updates to a catalog row
func (s *CatalogStore) UpdateFile(ctx context.Context, id uint, updates map[string]interface{}) error {
	result := s.db.WithContext(ctx).Model(&models.ProjectFile{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update project file: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errdefs.ErrNotFound
	}
	return nil
}

// DeleteFile soft deletes a catalog row
func (s *CatalogStore) DeleteFile(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ProjectFile{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete project file: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errdefs.ErrNotFound
	}
	return nil
}
