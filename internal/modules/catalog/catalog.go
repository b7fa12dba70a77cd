package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Catalog is the seam the lifecycle engine consumes: a price/quantity snapshot
// at checkout and an order counter bump after a committed order creation.
type Catalog interface {
	Snapshot(ctx context.Context, serviceID string) (ServiceSnapshot, error)
	IncrementOrderCount(ctx context.Context, serviceID string) error
}

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Snapshot(ctx context.Context, serviceID string) (ServiceSnapshot, error) {
	var svc Service
	if err := r.db.WithContext(ctx).First(&svc, "id = ?", serviceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ServiceSnapshot{}, ErrServiceNotFound
		}
		return ServiceSnapshot{}, err
	}
	if !svc.Active {
		return ServiceSnapshot{}, ErrServiceUnavailable
	}
	return ServiceSnapshot{
		ServiceID:            svc.ID,
		Name:                 svc.Name,
		MinQuantity:          svc.MinQuantity,
		MaxQuantity:          svc.MaxQuantity,
		UnitPriceCents:       svc.UnitPriceCents,
		IsOnSale:             svc.IsOnSale,
		DiscountedPriceCents: svc.DiscountedPriceCents,
	}, nil
}

func (r *Repo) IncrementOrderCount(ctx context.Context, serviceID string) error {
	return r.db.WithContext(ctx).Model(&Service{}).
		Where("id = ?", serviceID).
		UpdateColumn("order_count", gorm.Expr("order_count + 1")).Error
}
