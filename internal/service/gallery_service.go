package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	apperrors "classsite/internal/errors"
	"classsite/internal/media"
	"classsite/internal/model"
	"classsite/internal/repository"
)

// GalleryImageTypes maps accepted gallery upload content types to file extensions.
var GalleryImageTypes = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

const maxGalleryTitle = 200

// GalleryService is the gallery ContentService plus photo uploads.
// Deleting an item also removes its stored photo.
type GalleryService interface {
	ContentService[model.GalleryItem]
	// Upload stores the photo and creates an item for it. An empty title
	// falls back to filename.
	Upload(ctx context.Context, r io.Reader, size int64, contentType, filename, title string) (*model.GalleryItem, error)
}

type galleryService struct {
	ContentService[model.GalleryItem]
	repo  repository.ContentRepository[model.GalleryItem]
	store media.Store
	log   *logrus.Entry
	now   func() time.Time
}

// NewGalleryService builds a GalleryService.
func NewGalleryService(repo repository.ContentRepository[model.GalleryItem], store media.Store, log *logrus.Logger) GalleryService {
	return &galleryService{
		ContentService: NewContentService[model.GalleryItem](repo, log, "gallery"),
		repo:           repo,
		store:          store,
		log:            log.WithField("kind", "gallery"),
		now:            time.Now,
	}
}

func (s *galleryService) Upload(ctx context.Context, r io.Reader, size int64, contentType, filename, title string) (*model.GalleryItem, error) {
	ext, ok := GalleryImageTypes[contentType]
	if !ok {
		return nil, apperrors.Validation("unsupported file type, upload png, jpg, gif, webp or svg")
	}

	key := fmt.Sprintf("gallery/gallery-%d%s", s.now().Unix(), ext)
	url, err := s.store.Put(ctx, key, r, size, contentType)
	if err != nil {
		return nil, apperrors.Storage("store gallery image", err)
	}

	item := &model.GalleryItem{
		Title: galleryTitle(title, filename),
		URL:   url,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		if derr := s.store.Delete(ctx, key); derr != nil {
			s.log.WithError(derr).WithField("key", key).Warn("gallery.orphan_cleanup_failed")
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"id": item.ID, "url": url}).Info("gallery.uploaded")
	return item, nil
}

func (s *galleryService) Delete(ctx context.Context, id uint) error {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ContentService.Delete(ctx, id); err != nil {
		return err
	}

	// Links to external images are left alone.
	if key, ok := s.store.KeyFromURL(item.URL); ok {
		if err := s.store.Delete(ctx, key); err != nil {
			s.log.WithError(err).WithField("key", key).Warn("gallery.image_delete_failed")
		}
	}
	return nil
}

func galleryTitle(title, filename string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = strings.TrimSpace(path.Base(strings.ReplaceAll(filename, "\\", "/")))
		if title == "." || title == "/" {
			title = ""
		}
	}
	if utf8.RuneCountInString(title) > maxGalleryTitle {
		title = string([]rune(title)[:maxGalleryTitle])
	}
	return title
}
