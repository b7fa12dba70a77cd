package catalog

import "time"

type Service struct {
	ID                   string `gorm:"type:char(36);primaryKey"`
	Name                 string `gorm:"type:varchar(255);not null"`
	Category             string `gorm:"type:varchar(64);not null"`
	MinQuantity          int    `gorm:"not null"`
	MaxQuantity          int    `gorm:"not null"`
	UnitPriceCents       int    `gorm:"not null"`
	IsOnSale             bool   `gorm:"not null;default:false"`
	DiscountedPriceCents int    `gorm:"not null;default:0"`
	OrderCount           int    `gorm:"not null;default:0"`
	Active               bool   `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Service) TableName() string { return "services" }

// ServiceSnapshot is what an order captures at checkout time. Price changes
// after checkout never affect an existing order.
type ServiceSnapshot struct {
	ServiceID            string
	Name                 string
	MinQuantity          int
	MaxQuantity          int
	UnitPriceCents       int
	IsOnSale             bool
	DiscountedPriceCents int
}

// EffectiveUnitPriceCents returns the sale price when the snapshot was taken
// during an active sale, the list price otherwise.
func (s ServiceSnapshot) EffectiveUnitPriceCents() int {
	if s.IsOnSale && s.DiscountedPriceCents > 0 && s.DiscountedPriceCents < s.UnitPriceCents {
		return s.DiscountedPriceCents
	}
	return s.UnitPriceCents
}
