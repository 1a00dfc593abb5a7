package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"classsite/internal/repository"
)

type defaulter interface {
	ApplyDefaults()
}

// ContentService exposes CRUD for one kind of site content.
type ContentService[T repository.Content] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, item *T) (*T, error)
	Update(ctx context.Context, id uint, item *T) (*T, error)
	Delete(ctx context.Context, id uint) error
}

type contentService[T repository.Content] struct {
	repo repository.ContentRepository[T]
	log  *logrus.Entry
}

// NewContentService builds a ContentService; kind names the content in logs.
func NewContentService[T repository.Content](repo repository.ContentRepository[T], log *logrus.Logger, kind string) ContentService[T] {
	return &contentService[T]{repo: repo, log: log.WithField("kind", kind)}
}

func (s *contentService[T]) List(ctx context.Context) ([]T, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (s *contentService[T]) Create(ctx context.Context, item *T) (*T, error) {
	applyDefaults(item)
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	s.log.Info("content.created")
	return item, nil
}

func (s *contentService[T]) Update(ctx context.Context, id uint, item *T) (*T, error) {
	applyDefaults(item)
	updated, err := s.repo.Update(ctx, id, item)
	if err != nil {
		return nil, err
	}
	s.log.WithField("id", id).Info("content.updated")
	return updated, nil
}

func (s *contentService[T]) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("id", id).Info("content.deleted")
	return nil
}

func applyDefaults(item any) {
	if d, ok := item.(defaulter); ok {
		d.ApplyDefaults()
	}
}
