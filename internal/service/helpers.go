package service

import (
	"errors"

	"github.com/noteduco342/OMCalendar-backend/internal/apperr"
	"github.com/noteduco342/OMCalendar-backend/internal/models"
	"github.com/noteduco342/OMCalendar-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// notFound turns a missing-row error into apperr.ErrNotFound and passes anything else through.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(format, args...)
	}
	return err
}

// conflict turns a unique-key violation into apperr.ErrConflict and passes anything else through.
func conflict(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict(format, args...)
	}
	return err
}

func loadUser(s repository.Store, id uint) (*models.User, error) {
	user, err := s.Users().FindByID(id)
	if err != nil {
		return nil, notFound(err, "user %d not found", id)
	}
	return user, nil
}

func loadCompany(s repository.Store, id uint) (*models.Company, error) {
	company, err := s.Companies().FindByID(id)
	if err != nil {
		return nil, notFound(err, "company %d not found", id)
	}
	return company, nil
}

func loadMessage(s repository.Store, id uint) (*models.Message, error) {
	message, err := s.Messages().FindByID(id)
	if err != nil {
		return nil, notFound(err, "message %d not found", id)
	}
	return message, nil
}

// dedupe drops repeated ids, keeping first occurrences in order.
func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func idSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
