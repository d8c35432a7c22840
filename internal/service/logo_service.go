package service

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/noteduco342/OMCalendar-backend/internal/models"
	"github.com/noteduco342/OMCalendar-backend/internal/repository"
	"github.com/noteduco342/OMCalendar-backend/internal/storage"
	"go.uber.org/zap"
)

// LogoService stores company logos in object storage.
type LogoService struct {
	store   repository.Store
	objects storage.ObjectStore
}

func NewLogoService(store repository.Store, objects storage.ObjectStore) *LogoService {
	return &LogoService{store: store, objects: objects}
}

// Upload re-encodes the image and replaces the company's logo. publicBaseURL is the
// API root the media route is served under.
func (s *LogoService) Upload(ctx context.Context, companyID uint, r io.Reader, publicBaseURL string) (*models.Company, error) {
	if s.objects == nil {
		return nil, storage.ErrNotConfigured
	}
	company, err := loadCompany(s.store, companyID)
	if err != nil {
		return nil, err
	}

	img, err := storage.ProcessImage(r, storage.DefaultLogoOptions())
	if err != nil {
		return nil, err
	}

	key := storage.LogoKey(companyID, uuid.NewString())
	if _, err := s.objects.PutObject(ctx, key, bytes.NewReader(img.Data), img.Size(), img.ContentType); err != nil {
		return nil, err
	}

	oldKey := strings.TrimSpace(company.LogoKey)
	url := strings.TrimRight(publicBaseURL, "/") + "/media/" + key
	if err := s.store.Companies().SetLogo(companyID, key, url); err != nil {
		s.removeObject(ctx, companyID, key)
		return nil, notFound(err, "company %d not found", companyID)
	}
	if oldKey != "" && oldKey != key {
		s.removeObject(ctx, companyID, oldKey)
	}
	return loadCompany(s.store, companyID)
}

func (s *LogoService) Delete(ctx context.Context, companyID uint) (*models.Company, error) {
	if s.objects == nil {
		return nil, storage.ErrNotConfigured
	}
	company, err := loadCompany(s.store, companyID)
	if err != nil {
		return nil, err
	}

	oldKey := strings.TrimSpace(company.LogoKey)
	if err := s.store.Companies().SetLogo(companyID, "", ""); err != nil {
		return nil, notFound(err, "company %d not found", companyID)
	}
	if oldKey != "" {
		s.removeObject(ctx, companyID, oldKey)
	}
	return loadCompany(s.store, companyID)
}

// Open streams a stored logo. The key must live under the logo prefix.
func (s *LogoService) Open(ctx context.Context, key string) (io.ReadCloser, storage.ObjectStat, error) {
	if s.objects == nil {
		return nil, storage.ObjectStat{}, storage.ErrNotConfigured
	}
	key, err := storage.SafeJoinKey(storage.LogoPrefix, key)
	if err != nil {
		return nil, storage.ObjectStat{}, err
	}
	return s.objects.GetObject(ctx, key)
}

func (s *LogoService) removeObject(ctx context.Context, companyID uint, key string) {
	if err := s.objects.DeleteObject(ctx, key); err != nil {
		zap.L().Warn("logo object delete failed", zap.Uint("company_id", companyID), zap.String("key", key), zap.Error(err))
	}
}
