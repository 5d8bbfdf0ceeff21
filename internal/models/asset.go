package models

// Asset is a catalog entry for anything a desk trades. Seeded with the
// major crypto assets; OTC-only symbols are added on first use and
// flagged as custom. Assets are never deleted so historical trades
// always resolve.
type Asset struct {
	Base
	Symbol   string `gorm:"uniqueIndex;not null;size:10" json:"symbol"`
	Name     string `gorm:"not null" json:"name"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
	IsCustom bool   `gorm:"default:false" json:"is_custom"`
}
