package orders

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// Repo is the read side. All writes go through the lifecycle coordinator.
type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

type ListParams struct {
	CustomerEmail string
	Page          int
	PageSize      int
	Status        string // optional filter
}

type ListResult struct {
	Items []Order
	Total int64
}

func (r *Repo) List(ctx context.Context, in ListParams) (ListResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 || size > 100 {
		size = 20
	}

	q := r.db.WithContext(ctx).Model(&Order{})
	if email := strings.TrimSpace(in.CustomerEmail); email != "" {
		q = q.Where("customer_email = ?", email)
	}
	if status := strings.TrimSpace(in.Status); status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return ListResult{}, err
	}

	var items []Order
	if err := q.
		Order("created_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&items).Error; err != nil {
		return ListResult{}, err
	}

	return ListResult{Items: items, Total: total}, nil
}

// GetByNumber loads an order and its full history, oldest entry first.
func (r *Repo) GetByNumber(ctx context.Context, orderNumber string) (Order, []OrderEvent, error) {
	var o Order
	if err := r.db.WithContext(ctx).First(&o, "order_number = ?", orderNumber).Error; err != nil {
		return Order{}, nil, err
	}
	var events []OrderEvent
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&events, "order_id = ?", o.ID).Error; err != nil {
		return Order{}, nil, err
	}
	return o, events, nil
}
