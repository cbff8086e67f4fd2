package models

import "github.com/shopspring/decimal"

// FileType classifies a catalog entry
type FileType string

const (
	FileTypeDocumentation FileType = "Documentation"
	FileTypeDatabase      FileType = "Database"
)

// IsValid reports whether t is a known file type
func (t FileType) IsValid() bool {
	return t == FileTypeDocumentation || t == FileTypeDatabase
}

// ProjectFile is a purchasable catalog entry. Several rows of the same type in
// one batch are alternative versions of the same deliverable.
type ProjectFile struct {
	BaseModel

	Batch       string          `json:"batch" gorm:"not null;size:100;index"`
	Type        FileType        `json:"type" gorm:"not null;size:20;index"`
	Name        string          `json:"name" gorm:"size:255"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	FileURL     string          `json:"file_url" gorm:"not null;type:varchar(1000)"`
}

// TableName 指定表名
func (ProjectFile) TableName() string {
	return "project_files"
}
