package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"storefront-api/internal/errdefs"
	"storefront-api/internal/models"

	"github.com/shopspring/decimal"
)

// CatalogStore is the catalog persistence used by CatalogService
type CatalogStore interface {
	CatalogReader
	ListBatches(ctx context.Context) ([]string, error)
	GetFile(ctx context.Context, id uint) (*models.ProjectFile, error)
	CreateFile(ctx context.Context, file *models.ProjectFile) error
	UpdateFile(ctx context.Context, id uint, updates map[string]interface{}) error
	DeleteFile(ctx context.Context, id uint) error
}

// CatalogService provides catalog browsing and admin management
type CatalogService struct {
	store CatalogStore
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

func (s *CatalogService) ListFiles(ctx context.Context, batch string) ([]models.ProjectFile, error) {
	return s.store.ListFiles(ctx, strings.TrimSpace(batch))
}

func (s *CatalogService) ListBatches(ctx context.Context) ([]string, error) {
	return s.store.ListBatches(ctx)
}

func (s *CatalogService) GetFile(ctx context.Context, id uint) (*models.ProjectFile, error) {
	return s.store.GetFile(ctx, id)
}

// CatalogFileInput describes a catalog row to create
type CatalogFileInput struct {
	Batch       string
	Type        models.FileType
	Name        string
	Description string
	Price       decimal.Decimal
	FileURL     string
}

// CreateFile validates and stores a new catalog row
func (s *CatalogService) CreateFile(ctx context.Context, in CatalogFileInput) (*models.ProjectFile, error) {
	file := &models.ProjectFile{
		Batch:       strings.TrimSpace(in.Batch),
		Type:        in.Type,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		FileURL:     strings.TrimSpace(in.FileURL),
	}
	if file.Name == "" {
		file.Name = fmt.Sprintf("%s %s", file.Batch, file.Type)
	}

	var problems []string
	if file.Batch == "" {
		problems = append(problems, "batch is required")
	}
	if !file.Type.IsValid() {
		problems = append(problems, fmt.Sprintf("type must be %s or %s", models.FileTypeDocumentation, models.FileTypeDatabase))
	}
	if err := validatePrice(file.Price); err != nil {
		problems = append(problems, err.Error())
	}
	if err := validateFileURL(file.FileURL); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", errdefs.ErrInvalidArgument, strings.Join(problems, "; "))
	}

	if err := s.store.CreateFile(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// CatalogFileUpdate holds the fields to change; nil fields are kept
type CatalogFileUpdate struct {
	Batch       *string
	Type        *models.FileType
	Name        *string
	Description *string
	Price       *decimal.Decimal
	FileURL     *string
}

// UpdateFile applies a partial update and returns the stored row
func (s *CatalogService) UpdateFile(ctx context.Context, id uint, in CatalogFileUpdate) (*models.ProjectFile, error) {
	updates := make(map[string]interface{})
	if in.Batch != nil {
		batch := strings.TrimSpace(*in.Batch)
		if batch == "" {
			return nil, fmt.Errorf("%w: batch cannot be empty", errdefs.ErrInvalidArgument)
		}
		updates["batch"] = batch
	}
	if in.Type != nil {
		if !in.Type.IsValid() {
			return nil, fmt.Errorf("%w: unknown type %q", errdefs.ErrInvalidArgument, *in.Type)
		}
		updates["type"] = *in.Type
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Price != nil {
		if err := validatePrice(*in.Price); err != nil {
			return nil, fmt.Errorf("%w: %v", errdefs.ErrInvalidArgument, err)
		}
		updates["price"] = *in.Price
	}
	if in.FileURL != nil {
		fileURL := strings.TrimSpace(*in.FileURL)
		if err := validateFileURL(fileURL); err != nil {
			return nil, fmt.Errorf("%w: %v", errdefs.ErrInvalidArgument, err)
		}
		updates["file_url"] = fileURL
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", errdefs.ErrInvalidArgument)
	}

	if err := s.store.UpdateFile(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.store.GetFile(ctx, id)
}

// DeleteFile removes a catalog row. Payments referencing it are kept.
func (s *CatalogService) DeleteFile(ctx context.Context, id uint) error {
	return s.store.DeleteFile(ctx, id)
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return fmt.Errorf("price must be positive")
	}
	if price.Exponent() < -2 && !price.Equal(price.Round(2)) {
		return fmt.Errorf("price has more than 2 decimals")
	}
	return nil
}

func validateFileURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || raw == "" || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("file_url must be an absolute http(s) URL")
	}
	return nil
}
