package repository

import (
	"gorm.io/gorm"
)

var _ Store = (*GormStore)(nil)

// GormStore hands out repositories bound to one *gorm.DB, which may be a transaction.
type GormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Users() UserRepositoryInterface {
	return NewUserRepository(s.db)
}

func (s *GormStore) Companies() CompanyRepositoryInterface {
	return NewCompanyRepository(s.db)
}

func (s *GormStore) Messages() MessageRepositoryInterface {
	return NewMessageRepository(s.db)
}

func (s *GormStore) Ledger() MessageUserRepositoryInterface {
	return NewMessageUserRepository(s.db)
}

func (s *GormStore) RefreshTokens() RefreshTokenRepositoryInterface {
	return NewRefreshTokenRepository(s.db)
}

func (s *GormStore) Transaction(fn func(tx Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
