package repository

import (
	"time"

	"github.com/noteduco342/OMCalendar-backend/internal/models"
)

// UserRepositoryInterface defines the contract for user repository operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	FindByID(id uint) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	FindByIDs(ids []uint) ([]models.User, error)
	List() ([]models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
}

// CompanyRepositoryInterface defines the contract for companies and their memberships
type CompanyRepositoryInterface interface {
	Create(company *models.Company) error
	FindByID(id uint) (*models.Company, error)
	FindByIDs(ids []uint) ([]models.Company, error)
	List() ([]models.Company, error)
	Update(company *models.Company) error
	SetLogo(companyID uint, key, url string) error
	Delete(id uint) error

	AddMember(companyID, userID uint) error
	RemoveMember(companyID, userID uint) error
	IsMember(companyID, userID uint) (bool, error)
	MemberUserIDs(companyID uint) ([]uint, error)
	UserCompanyIDs(userID uint) ([]uint, error)
	GetMembers(companyID uint) ([]models.User, error)
	GetUserCompanies(userID uint) ([]models.Company, error)
	DeleteMembershipsForUser(userID uint) error
	DeleteMembershipsForCompany(companyID uint) error
}

// MessageRepositoryInterface defines the contract for messages and their recipient lists
type MessageRepositoryInterface interface {
	Create(message *models.Message) error
	FindByID(id uint) (*models.Message, error)
	FindByIDForUpdate(id uint) (*models.Message, error)
	List() ([]models.Message, error)
	Update(message *models.Message) error
	Delete(id uint) error

	IDsByCompany(companyID uint) ([]uint, error)
	DeleteByIDs(ids []uint) error

	AddRecipient(messageID, userID uint) error
	RecipientUserIDs(messageID uint) ([]uint, error)
	DeleteRecipientsForMessages(messageIDs []uint) error
	DeleteRecipientsForUser(userID uint) error

	FindBySeen(seen bool) ([]models.Message, error)
	FindByPriority(level models.PriorityLevel) ([]models.Message, error)
	FindByDateRange(start, end time.Time) ([]models.Message, error)
	FindByRecipient(userID uint) ([]models.Message, error)
	FindByCompany(companyID uint) ([]models.Message, error)
	FindByCompanyAndRecipient(companyID, userID uint) ([]models.Message, error)
}

// MessageUserRepositoryInterface defines the contract for per-user seen state
type MessageUserRepositoryInterface interface {
	Create(entry *models.MessageUser) error
	Find(messageID, userID uint) (*models.MessageUser, error)
	SetSeen(messageID, userID uint, seen bool) error
	FindMessagesByUserAndSeen(userID uint, seen bool) ([]models.Message, error)
	FindMessagesByUserCompanyAndSeen(userID, companyID uint, seen bool) ([]models.Message, error)
	DeleteForMessages(messageIDs []uint) error
	DeleteForUser(userID uint) error
}

// RefreshTokenRepositoryInterface defines the contract for refresh token repository operations
type RefreshTokenRepositoryInterface interface {
	Create(token *models.RefreshToken) error
	FindValidByHash(tokenHash string) (*models.RefreshToken, error)
	RevokeByHash(tokenHash string) (int64, error)
	DeleteForUser(userID uint) error
}

// Store groups the repositories that share one unit of work.
type Store interface {
	Users() UserRepositoryInterface
	Companies() CompanyRepositoryInterface
	Messages() MessageRepositoryInterface
	Ledger() MessageUserRepositoryInterface
	RefreshTokens() RefreshTokenRepositoryInterface

	// Transaction runs fn against a Store bound to one database transaction.
	// Returning an error from fn rolls back every write made through tx.
	Transaction(fn func(tx Store) error) error
}
