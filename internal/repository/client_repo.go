package repository

import (
	"context"
	"errors"

	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/model"
	"gorm.io/gorm"
)

var (
	ErrClientNotFound  = errors.New("client not found")
	ErrDuplicateClient = errors.New("client already exists")
)

type ClientRepo struct {
	db *gorm.DB
}

func NewClientRepo(db *gorm.DB) *ClientRepo {
	return &ClientRepo{db: db}
}

func (r *ClientRepo) Exists(ctx context.Context, id string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Client{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *ClientRepo) Create(ctx context.Context, c *model.Client) error {
	err := r.db.WithContext(ctx).Create(c).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateClient
	}
	return err
}

func (r *ClientRepo) Get(ctx context.Context, id string) (*model.Client, error) {
	var c model.Client
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListSummaries returns every client without loading photo blobs, newest
// registration first.
func (r *ClientRepo) ListSummaries(ctx context.Context) ([]model.ClientSummary, error) {
	out := []model.ClientSummary{}
	err := r.db.WithContext(ctx).
		Model(&model.Client{}).
		Select(`id, name, address, phone, registered_at,
			photo1 IS NOT NULL AS has_photo1,
			photo2 IS NOT NULL AS has_photo2,
			photo3 IS NOT NULL AS has_photo3`).
		Order("registered_at DESC").
		Order("id").
		Scan(&out).Error
	return out, err
}
