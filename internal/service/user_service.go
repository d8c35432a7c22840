package service

import (
	"errors"
	"strings"

	"github.com/noteduco342/OMCalendar-backend/internal/apperr"
	"github.com/noteduco342/OMCalendar-backend/internal/models"
	"github.com/noteduco342/OMCalendar-backend/internal/repository"
	"github.com/noteduco342/OMCalendar-backend/internal/validation"
	"gorm.io/gorm"
)

type UserService struct {
	store repository.Store
}

func NewUserService(store repository.Store) *UserService {
	return &UserService{store: store}
}

type CreateUserInput struct {
	FirstName  string `json:"firstname" validate:"max=100"`
	SecondName string `json:"secondname" validate:"max=100"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	Role       string `json:"role"`
}

type UpdateUserInput struct {
	FirstName  *string `json:"firstname" validate:"omitempty,max=100"`
	SecondName *string `json:"secondname" validate:"omitempty,max=100"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Password   *string `json:"password"`
	Role       *string `json:"role"`
}

// createUser is shared by admin user creation and self signup.
func createUser(users repository.UserRepositoryInterface, input CreateUserInput) (*models.User, error) {
	email := validation.NormalizeEmail(input.Email)
	if !validation.ValidateEmail(email) {
		return nil, apperr.InvalidArgument("invalid email address")
	}
	if !validation.ValidatePassword(input.Password) {
		return nil, apperr.InvalidArgument("password must be at least %d characters", validation.PasswordMinLength())
	}
	role, ok := models.ParseRole(input.Role)
	if !ok {
		return nil, apperr.InvalidArgument("unknown role %q", input.Role)
	}

	if _, err := users.FindByEmail(email); err == nil {
		return nil, apperr.Conflict("email %s is already registered", email)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName:    strings.TrimSpace(input.FirstName),
		SecondName:   strings.TrimSpace(input.SecondName),
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
	}
	if err := users.Create(user); err != nil {
		return nil, conflict(err, "email %s is already registered", email)
	}
	return user, nil
}

func (s *UserService) Create(input CreateUserInput) (*models.User, error) {
	return createUser(s.store.Users(), input)
}

func (s *UserService) Get(userID uint) (*models.User, error) {
	return loadUser(s.store, userID)
}

func (s *UserService) GetByEmail(email string) (*models.User, error) {
	email = validation.NormalizeEmail(email)
	user, err := s.store.Users().FindByEmail(email)
	if err != nil {
		return nil, notFound(err, "user with email %s not found", email)
	}
	return user, nil
}

func (s *UserService) List() ([]models.User, error) {
	return s.store.Users().List()
}

// Update applies only the fields present in input.
func (s *UserService) Update(userID uint, input UpdateUserInput) (*models.User, error) {
	err := s.store.Transaction(func(tx repository.Store) error {
		user, err := loadUser(tx, userID)
		if err != nil {
			return err
		}

		if input.FirstName != nil {
			user.FirstName = strings.TrimSpace(*input.FirstName)
		}
		if input.SecondName != nil {
			user.SecondName = strings.TrimSpace(*input.SecondName)
		}
		if input.Email != nil {
			email := validation.NormalizeEmail(*input.Email)
			if !validation.ValidateEmail(email) {
				return apperr.InvalidArgument("invalid email address")
			}
			if email != user.Email {
				if other, err := tx.Users().FindByEmail(email); err == nil && other.ID != user.ID {
					return apperr.Conflict("email %s is already registered", email)
				} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				user.Email = email
			}
		}
		if input.Password != nil {
			if !validation.ValidatePassword(*input.Password) {
				return apperr.InvalidArgument("password must be at least %d characters", validation.PasswordMinLength())
			}
			hashed, err := hashPassword(*input.Password)
			if err != nil {
				return err
			}
			user.PasswordHash = hashed
		}
		if input.Role != nil {
			role, ok := models.ParseRole(*input.Role)
			if !ok {
				return apperr.InvalidArgument("unknown role %q", *input.Role)
			}
			user.Role = role
		}

		return conflict(tx.Users().Update(user), "email %s is already registered", user.Email)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(userID)
}

// Delete removes the user together with its seen state, recipient entries,
// memberships and refresh tokens.
func (s *UserService) Delete(userID uint) error {
	return s.store.Transaction(func(tx repository.Store) error {
		if _, err := loadUser(tx, userID); err != nil {
			return err
		}
		if err := tx.Ledger().DeleteForUser(userID); err != nil {
			return err
		}
		if err := tx.Messages().DeleteRecipientsForUser(userID); err != nil {
			return err
		}
		if err := tx.Companies().DeleteMembershipsForUser(userID); err != nil {
			return err
		}
		if err := tx.RefreshTokens().DeleteForUser(userID); err != nil {
			return err
		}
		return tx.Users().Delete(userID)
	})
}

func (s *UserService) AssignCompany(userID, companyID uint) (*models.User, error) {
	err := s.store.Transaction(func(tx repository.Store) error {
		return link(tx, companyID, userID)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(userID)
}

// AssignCompanies links the user to every listed company it is not yet a member of.
func (s *UserService) AssignCompanies(userID uint, companyIDs []uint) (*models.User, error) {
	err := s.store.Transaction(func(tx repository.Store) error {
		if _, err := loadUser(tx, userID); err != nil {
			return err
		}
		companies, err := tx.Companies().FindByIDs(dedupe(companyIDs))
		if err != nil {
			return err
		}
		if len(companies) == 0 {
			return apperr.Conflict("no companies found")
		}
		current, err := tx.Companies().UserCompanyIDs(userID)
		if err != nil {
			return err
		}
		linked := idSet(current)

		added := 0
		for _, c := range companies {
			if _, ok := linked[c.ID]; ok {
				continue
			}
			if err := tx.Companies().AddMember(c.ID, userID); err != nil {
				return conflict(err, "user %d is already associated with company %d", userID, c.ID)
			}
			added++
		}
		if added == 0 {
			return apperr.Conflict("all provided companies are already associated with user %d", userID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(userID)
}

// RemoveCompany unlinks the user from the company. Removing a missing link is not an error.
func (s *UserService) RemoveCompany(userID, companyID uint) (*models.User, error) {
	err := s.store.Transaction(func(tx repository.Store) error {
		return unlink(tx, companyID, userID)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(userID)
}

func (s *UserService) ListCompanies(userID uint) ([]models.Company, error) {
	if _, err := loadUser(s.store, userID); err != nil {
		return nil, err
	}
	return s.store.Companies().GetUserCompanies(userID)
}

// ListMessagesByCompany returns the company's messages addressed to the user.
func (s *UserService) ListMessagesByCompany(userID, companyID uint) ([]models.Message, error) {
	if _, err := loadUser(s.store, userID); err != nil {
		return nil, err
	}
	if _, err := loadCompany(s.store, companyID); err != nil {
		return nil, err
	}
	return s.store.Messages().FindByCompanyAndRecipient(companyID, userID)
}

func link(tx repository.Store, companyID, userID uint) error {
	if _, err := loadUser(tx, userID); err != nil {
		return err
	}
	if _, err := loadCompany(tx, companyID); err != nil {
		return err
	}
	linked, err := tx.Companies().IsMember(companyID, userID)
	if err != nil {
		return err
	}
	if linked {
		return apperr.Conflict("user %d is already associated with company %d", userID, companyID)
	}
	return conflict(tx.Companies().AddMember(companyID, userID),
		"user %d is already associated with company %d", userID, companyID)
}

func unlink(tx repository.Store, companyID, userID uint) error {
	if _, err := loadUser(tx, userID); err != nil {
		return err
	}
	if _, err := loadCompany(tx, companyID); err != nil {
		return err
	}
	return tx.Companies().RemoveMember(companyID, userID)
}
