package services

import (
	"context"
	"fmt"

	"storefront-api/internal/errdefs"
	"storefront-api/internal/models"
	"storefront-api/pkg/logging"

	"github.com/shopspring/decimal"
)

// Package selects which deliverables of a batch are bought
type Package string

const (
	PackageDocumentationOnly Package = "documentation-only"
	PackageDatabaseOnly      Package = "database-only"
	PackageComplete          Package = "complete"
)

// ParsePackage validates a package selector
func ParsePackage(s string) (Package, error) {
	switch p := Package(s); p {
	case PackageDocumentationOnly, PackageDatabaseOnly, PackageComplete:
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown package %q", errdefs.ErrInvalidArgument, s)
}

// Fallback prices used when the catalog has no entry of a type, or cannot be
// read at all, so that checkout still shows a price.
var (
	DefaultDocumentationPrice = decimal.NewFromInt(500)
	DefaultDatabasePrice      = decimal.NewFromInt(1000)
)

// PricedPackage is the resolved content and price of a package
type PricedPackage struct {
	Package     Package              `json:"package"`
	Files       []models.ProjectFile `json:"files"`
	TotalAmount decimal.Decimal      `json:"total_amount"`
}

// ChargeAmount is the whole-shilling amount sent to the payment processor
func (p *PricedPackage) ChargeAmount() int64 {
	return p.TotalAmount.Ceil().IntPart()
}

// Covers reports whether record paid for this package: the charged amount
// matches and the record's file is part of the package.
func (p *PricedPackage) Covers(record *models.PaymentRecord) error {
	if record == nil {
		return errdefs.ErrPaymentNotCompleted
	}
	if p.ChargeAmount() != record.Amount {
		return fmt.Errorf("%w: package %s costs %d, payment %d charged %d",
			errdefs.ErrPurchaseMismatch, p.Package, p.ChargeAmount(), record.ID, record.Amount)
	}
	for _, f := range p.Files {
		if f.ID == record.ProjectID {
			return nil
		}
	}
	return fmt.Errorf("%w: file %d is not part of package %s", errdefs.ErrPurchaseMismatch, record.ProjectID, p.Package)
}

// CatalogReader is the read side of the catalog store
type CatalogReader interface {
	ListFiles(ctx context.Context, batch string) ([]models.ProjectFile, error)
}

// PricingService derives package prices from the catalog on every request
type PricingService struct {
	catalog CatalogReader
}

// NewPricingService creates a new pricing service
func NewPricingService(catalog CatalogReader) *PricingService {
	return &PricingService{catalog: catalog}
}

// Resolve prices pkg for one batch. A catalog read failure does not fail the
// request; the default prices are used instead.
func (s *PricingService) Resolve(ctx context.Context, batch string, pkg Package) (*PricedPackage, error) {
	files, err := s.catalog.ListFiles(ctx, batch)
	if err != nil {
		logging.Errorf("Catalog read failed, using default prices - batch: %s, error: %v", batch, err)
		files = nil
	}
	return ResolvePackage(pkg, files)
}

// ResolvePackage prices pkg against the given catalog rows. Within a type the
// most expensive row is charged, not the sum: rows of the same type are
// alternative versions of one deliverable.
func ResolvePackage(pkg Package, catalog []models.ProjectFile) (*PricedPackage, error) {
	docs := filterByType(catalog, models.FileTypeDocumentation)
	dbs := filterByType(catalog, models.FileTypeDatabase)

	priced := &PricedPackage{Package: pkg}
	switch pkg {
	case PackageDocumentationOnly:
		priced.Files = docs
		priced.TotalAmount = maxPrice(docs, DefaultDocumentationPrice)
	case PackageDatabaseOnly:
		priced.Files = dbs
		priced.TotalAmount = maxPrice(dbs, DefaultDatabasePrice)
	case PackageComplete:
		priced.Files = append(append([]models.ProjectFile{}, docs...), dbs...)
		priced.TotalAmount = maxPrice(docs, DefaultDocumentationPrice).Add(maxPrice(dbs, DefaultDatabasePrice))
	default:
		return nil, fmt.Errorf("%w: unknown package %q", errdefs.ErrInvalidArgument, pkg)
	}
	return priced, nil
}

func filterByType(files []models.ProjectFile, fileType models.FileType) []models.ProjectFile {
	out := []models.ProjectFile{}
	for _, f := range files {
		if f.Type == fileType {
			out = append(out, f)
		}
	}
	return out
}

func maxPrice(files []models.ProjectFile, fallback decimal.Decimal) decimal.Decimal {
	if len(files) == 0 {
		return fallback
	}
	highest := files[0].Price
	for _, f := range files[1:] {
		if f.Price.GreaterThan(highest) {
			highest = f.Price
		}
	}
	return highest
}
