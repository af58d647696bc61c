package repository

import (
	"context"
	"errors"

	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/model"
	"gorm.io/gorm"
)

var ErrFileNotFound = errors.New("file not found")

type FileRepo struct {
	db *gorm.DB
}

func NewFileRepo(db *gorm.DB) *FileRepo {
	return &FileRepo{db: db}
}

// CreateBatch inserts all records in one transaction; either every row is
// written (and IDs are filled in) or none is.
func (r *FileRepo) CreateBatch(ctx context.Context, files []model.ClientFile) error {
	if len(files) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&files).Error
	})
}

func (r *FileRepo) ListByClient(ctx context.Context, clientID string) ([]model.ClientFile, error) {
	out := []model.ClientFile{}
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("uploaded_at DESC").Order("id DESC").
		Find(&out).Error
	return out, err
}

func (r *FileRepo) Get(ctx context.Context, id uint) (*model.ClientFile, error) {
	var f model.ClientFile
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FileRepo) List(ctx context.Context) ([]model.ClientFile, error) {
	out := []model.ClientFile{}
	err := r.db.WithContext(ctx).
		Order("uploaded_at DESC").Order("id DESC").
		Find(&out).Error
	return out, err
}
