package repository

import (
	"context"

	"gorm.io/gorm"

	"classsite/internal/model"
)

// Content is any of the site's listable record types.
type Content interface {
	model.Announcement | model.Assignment | model.Resource | model.GalleryItem | model.Rule
}

// ContentRepository defines CRUD for one content table.
type ContentRepository[T Content] interface {
	List(ctx context.Context) ([]T, error)
	FindByID(ctx context.Context, id uint) (*T, error)
	Create(ctx context.Context, item *T) error
	Update(ctx context.Context, id uint, item *T) (*T, error)
	Delete(ctx context.Context, id uint) error
}

type contentRepository[T Content] struct {
	db    *gorm.DB
	order string
}

// NewContentRepository builds a GORM-backed repository listing rows in order.
func NewContentRepository[T Content](db *gorm.DB, order string) ContentRepository[T] {
	return &contentRepository[T]{db: db, order: order}
}

func (r *contentRepository[T]) List(ctx context.Context) ([]T, error) {
	var items []T
	if err := r.db.WithContext(ctx).Order(r.order).Find(&items).Error; err != nil {
		return nil, translate("list content", err)
	}
	return items, nil
}

func (r *contentRepository[T]) FindByID(ctx context.Context, id uint) (*T, error) {
	var item T
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, translate("find content", err)
	}
	return &item, nil
}

func (r *contentRepository[T]) Create(ctx context.Context, item *T) error {
	return translate("create content", r.db.WithContext(ctx).Create(item).Error)
}

// Update replaces every editable column of row id with item's values.
func (r *contentRepository[T]) Update(ctx context.Context, id uint, item *T) (*T, error) {
	if _, err := r.FindByID(ctx, id); err != nil {
		return nil, err
	}

	err := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).
		Select("*").Omit("id", "created_at").
		Updates(item).Error
	if err != nil {
		return nil, translate("update content", err)
	}
	return r.FindByID(ctx, id)
}

func (r *contentRepository[T]) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return translate("delete content", res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("delete content", gorm.ErrRecordNotFound)
	}
	return nil
}
