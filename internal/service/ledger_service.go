package service

import (
	"github.com/noteduco342/OMCalendar-backend/internal/repository"
)

// LedgerService reads and writes per-user seen state.
type LedgerService struct {
	store repository.Store
}

func NewLedgerService(store repository.Store) *LedgerService {
	return &LedgerService{store: store}
}

func (s *LedgerService) MarkSeen(messageID, userID uint) error {
	return s.SetSeen(messageID, userID, true)
}

// SetSeen fails with apperr.ErrNotFound unless the user is a recipient of the message.
func (s *LedgerService) SetSeen(messageID, userID uint, seen bool) error {
	err := s.store.Ledger().SetSeen(messageID, userID, seen)
	return notFound(err, "user %d is not a recipient of message %d", userID, messageID)
}

func (s *LedgerService) IsSeen(messageID, userID uint) (bool, error) {
	entry, err := s.store.Ledger().Find(messageID, userID)
	if err != nil {
		return false, notFound(err, "user %d is not a recipient of message %d", userID, messageID)
	}
	return entry.Seen, nil
}
