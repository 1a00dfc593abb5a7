package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "classsite/internal/errors"
	"classsite/internal/media"
	"classsite/internal/model"
	"classsite/internal/repository"
)

// ScheduleImageTypes maps accepted upload content types to file extensions.
var ScheduleImageTypes = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/svg+xml": ".svg",
}

var siteKeys = []string{
	model.SettingSchoolName,
	model.SettingClassName,
	model.SettingSubtitle,
	model.SettingTeacherName,
	model.SettingContactEmail,
	model.SettingScheduleImage,
}

// SiteService manages site settings and the timetable image.
type SiteService interface {
	GetSite(ctx context.Context) (*model.SiteInfo, error)
	// UpdateSite overwrites the editable header fields; empty values are cleared.
	UpdateSite(ctx context.Context, in model.SiteInfo) (*model.SiteInfo, error)
	// GetSchedule returns the stored timetable document with the image URL
	// merged in, or nil when neither is set.
	GetSchedule(ctx context.Context) (map[string]interface{}, error)
	UploadScheduleImage(ctx context.Context, r io.Reader, size int64, contentType string) (string, error)
	DeleteScheduleImage(ctx context.Context) error
}

type siteService struct {
	settings repository.SettingRepository
	store    media.Store
	log      *logrus.Logger
	now      func() time.Time
}

// NewSiteService builds a SiteService.
func NewSiteService(settings repository.SettingRepository, store media.Store, log *logrus.Logger) SiteService {
	return &siteService{settings: settings, store: store, log: log, now: time.Now}
}

func (s *siteService) GetSite(ctx context.Context) (*model.SiteInfo, error) {
	values, err := s.settings.Get(ctx, siteKeys...)
	if err != nil {
		return nil, err
	}
	return &model.SiteInfo{
		SchoolName:    values[model.SettingSchoolName],
		ClassName:     values[model.SettingClassName],
		Subtitle:      values[model.SettingSubtitle],
		TeacherName:   values[model.SettingTeacherName],
		ContactEmail:  values[model.SettingContactEmail],
		ScheduleImage: values[model.SettingScheduleImage],
	}, nil
}

func (s *siteService) UpdateSite(ctx context.Context, in model.SiteInfo) (*model.SiteInfo, error) {
	values := map[string]*string{
		model.SettingSchoolName:   normalize(in.SchoolName),
		model.SettingClassName:    normalize(in.ClassName),
		model.SettingSubtitle:     normalize(in.Subtitle),
		model.SettingTeacherName:  normalize(in.TeacherName),
		model.SettingContactEmail: normalize(in.ContactEmail),
	}
	if err := s.settings.Set(ctx, values); err != nil {
		return nil, err
	}
	s.log.Info("site.updated")
	return s.GetSite(ctx)
}

func (s *siteService) GetSchedule(ctx context.Context) (map[string]interface{}, error) {
	values, err := s.settings.Get(ctx, model.SettingSchedule, model.SettingScheduleImage)
	if err != nil {
		return nil, err
	}

	result := map[string]interface{}{}
	if doc := values[model.SettingSchedule]; doc != nil && *doc != "" {
		if err := json.Unmarshal([]byte(*doc), &result); err != nil {
			result = map[string]interface{}{"value": *doc}
		}
	}
	if img := values[model.SettingScheduleImage]; img != nil && *img != "" {
		result["scheduleImage"] = *img
	}
	if len(result) == 0 {
		return nil, nil
	}
	return result, nil
}

func (s *siteService) UploadScheduleImage(ctx context.Context, r io.Reader, size int64, contentType string) (string, error) {
	ext, ok := ScheduleImageTypes[contentType]
	if !ok {
		return "", apperrors.Validation("unsupported file type, upload png, jpg or svg")
	}

	key := fmt.Sprintf("schedule/schedule-%d%s", s.now().Unix(), ext)
	url, err := s.store.Put(ctx, key, r, size, contentType)
	if err != nil {
		return "", apperrors.Storage("store schedule image", err)
	}

	if err := s.settings.Set(ctx, map[string]*string{model.SettingScheduleImage: &url}); err != nil {
		return "", err
	}
	s.log.WithField("url", url).Info("schedule.image_uploaded")
	return url, nil
}

func (s *siteService) DeleteScheduleImage(ctx context.Context) error {
	values, err := s.settings.Get(ctx, model.SettingScheduleImage)
	if err != nil {
		return err
	}
	img := values[model.SettingScheduleImage]
	if img == nil || *img == "" {
		return nil
	}

	if key, ok := s.store.KeyFromURL(*img); ok {
		if err := s.store.Delete(ctx, key); err != nil {
			// The setting is cleared regardless.
			s.log.WithError(err).WithField("key", key).Warn("schedule.image_delete_failed")
		}
	}

	if err := s.settings.Set(ctx, map[string]*string{model.SettingScheduleImage: nil}); err != nil {
		return err
	}
	s.log.Info("schedule.image_deleted")
	return nil
}

func normalize(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
