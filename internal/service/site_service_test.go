package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "classsite/internal/errors"
	"classsite/internal/logging"
	"classsite/internal/media"
	"classsite/internal/model"
)

type memorySettings struct {
	mu     sync.Mutex
	values map[string]*string
}

func newMemorySettings() *memorySettings {
	return &memorySettings{values: make(map[string]*string)}
}

func (m *memorySettings) Get(_ context.Context, keys ...string) (map[string]*string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*string)
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memorySettings) Set(_ context.Context, values map[string]*string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func strPtr(s string) *string { return &s }

func newSiteFixture(t *testing.T) (*siteService, *memorySettings, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := media.NewLocalStore(dir, "/media")
	require.NoError(t, err)
	settings := newMemorySettings()
	svc := NewSiteService(settings, store, logging.Discard()).(*siteService)
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }
	return svc, settings, dir
}

func TestSiteService_UpdateSiteClearsBlankValues(t *testing.T) {
	svc, settings, _ := newSiteFixture(t)
	ctx := context.Background()
	settings.values[model.SettingSubtitle] = strPtr("old subtitle")

	site, err := svc.UpdateSite(ctx, model.SiteInfo{
		SchoolName: strPtr(" North Elementary "),
		Subtitle:   strPtr("  "),
	})
	require.NoError(t, err)
	require.NotNil(t, site.SchoolName)
	assert.Equal(t, "North Elementary", *site.SchoolName)
	assert.Nil(t, site.Subtitle)
	assert.Nil(t, site.ClassName)
}

func TestSiteService_GetSchedule(t *testing.T) {
	svc, settings, _ := newSiteFixture(t)
	ctx := context.Background()

	schedule, err := svc.GetSchedule(ctx)
	require.NoError(t, err)
	assert.Nil(t, schedule)

	settings.values[model.SettingSchedule] = strPtr(`{"mon":["math","art"]}`)
	settings.values[model.SettingScheduleImage] = strPtr("/media/schedule/s.png")
	schedule, err = svc.GetSchedule(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/media/schedule/s.png", schedule["scheduleImage"])
	assert.Equal(t, []interface{}{"math", "art"}, schedule["mon"])

	settings.values[model.SettingSchedule] = strPtr("not json")
	schedule, err = svc.GetSchedule(ctx)
	require.NoError(t, err)
	assert.Equal(t, "not json", schedule["value"])
}

func TestSiteService_ScheduleImageLifecycle(t *testing.T) {
	svc, settings, dir := newSiteFixture(t)
	ctx := context.Background()

	_, err := svc.UploadScheduleImage(ctx, strings.NewReader("gif"), 3, "image/gif")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	url, err := svc.UploadScheduleImage(ctx, strings.NewReader("<svg/>"), 6, "image/svg+xml")
	require.NoError(t, err)
	assert.Equal(t, "/media/schedule/schedule-1700000000.svg", url)
	assert.Equal(t, url, *settings.values[model.SettingScheduleImage])

	path := filepath.Join(dir, "schedule", "schedule-1700000000.svg")
	_, err = os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteScheduleImage(ctx))
	assert.Nil(t, settings.values[model.SettingScheduleImage])
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Nothing to delete.
	assert.NoError(t, svc.DeleteScheduleImage(ctx))
}
