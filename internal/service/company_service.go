package service

import (
	"context"
	"strings"

	"github.com/noteduco342/OMCalendar-backend/internal/apperr"
	"github.com/noteduco342/OMCalendar-backend/internal/models"
	"github.com/noteduco342/OMCalendar-backend/internal/repository"
	"github.com/noteduco342/OMCalendar-backend/internal/storage"
	"go.uber.org/zap"
)

type CompanyService struct {
	store   repository.Store
	objects storage.ObjectStore
}

// NewCompanyService accepts a nil object store; logos are then left in place on delete.
func NewCompanyService(store repository.Store, objects storage.ObjectStore) *CompanyService {
	return &CompanyService{store: store, objects: objects}
}

type CompanyInput struct {
	Name                     string   `json:"name" validate:"required,max=200"`
	Location                 string   `json:"location"`
	LinkedInProfile          string   `json:"linkedin_profile" validate:"omitempty,url"`
	Emails                   []string `json:"emails" validate:"omitempty,dive,email"`
	PhoneNumbers             []string `json:"phone_numbers"`
	Comments                 string   `json:"comments"`
	CommunicationPeriodicity string   `json:"communication_periodicity"`
}

type CompanyUpdateInput struct {
	Name                     *string   `json:"name" validate:"omitempty,max=200"`
	Location                 *string   `json:"location"`
	LinkedInProfile          *string   `json:"linkedin_profile"`
	Emails                   *[]string `json:"emails"`
	PhoneNumbers             *[]string `json:"phone_numbers"`
	Comments                 *string   `json:"comments"`
	CommunicationPeriodicity *string   `json:"communication_periodicity"`
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (s *CompanyService) Create(input CompanyInput) (*models.Company, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.InvalidArgument("company name is required")
	}
	company := &models.Company{
		Name:                     name,
		Location:                 strings.TrimSpace(input.Location),
		LinkedInProfile:          strings.TrimSpace(input.LinkedInProfile),
		Emails:                   cleanList(input.Emails),
		PhoneNumbers:             cleanList(input.PhoneNumbers),
		Comments:                 input.Comments,
		CommunicationPeriodicity: strings.TrimSpace(input.CommunicationPeriodicity),
	}
	if err := s.store.Companies().Create(company); err != nil {
		return nil, err
	}
	return company, nil
}

func (s *CompanyService) Get(companyID uint) (*models.Company, error) {
	return loadCompany(s.store, companyID)
}

func (s *CompanyService) List() ([]models.Company, error) {
	return s.store.Companies().List()
}

// Update applies only the fields present in input.
func (s *CompanyService) Update(companyID uint, input CompanyUpdateInput) (*models.Company, error) {
	err := s.store.Transaction(func(tx repository.Store) error {
		company, err := loadCompany(tx, companyID)
		if err != nil {
			return err
		}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return apperr.InvalidArgument("company name is required")
			}
			company.Name = name
		}
		if input.Location != nil {
			company.Location = strings.TrimSpace(*input.Location)
		}
		if input.LinkedInProfile != nil {
			company.LinkedInProfile = strings.TrimSpace(*input.LinkedInProfile)
		}
		if input.Emails != nil {
			company.Emails = cleanList(*input.Emails)
		}
		if input.PhoneNumbers != nil {
			company.PhoneNumbers = cleanList(*input.PhoneNumbers)
		}
		if input.Comments != nil {
			company.Comments = *input.Comments
		}
		if input.CommunicationPeriodicity != nil {
			company.CommunicationPeriodicity = strings.TrimSpace(*input.CommunicationPeriodicity)
		}
		return tx.Companies().Update(company)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(companyID)
}

// Delete removes the company, its messages with their recipients and seen state,
// and its memberships. The stored logo is removed after commit on a best-effort basis.
func (s *CompanyService) Delete(ctx context.Context, companyID uint) error {
	var logoKey string
	err := s.store.Transaction(func(tx repository.Store) error {
		company, err := loadCompany(tx, companyID)
		if err != nil {
			return err
		}
		logoKey = company.LogoKey

		messageIDs, err := tx.Messages().IDsByCompany(companyID)
		if err != nil {
			return err
		}
		if err := tx.Ledger().DeleteForMessages(messageIDs); err != nil {
			return err
		}
		if err := tx.Messages().DeleteRecipientsForMessages(messageIDs); err != nil {
			return err
		}
		if err := tx.Messages().DeleteByIDs(messageIDs); err != nil {
			return err
		}
		if err := tx.Companies().DeleteMembershipsForCompany(companyID); err != nil {
			return err
		}
		return tx.Companies().Delete(companyID)
	})
	if err != nil {
		return err
	}

	if logoKey != "" && s.objects != nil {
		if err := s.objects.DeleteObject(ctx, logoKey); err != nil {
			zap.L().Warn("company logo cleanup failed", zap.Uint("company_id", companyID), zap.String("key", logoKey), zap.Error(err))
		}
	}
	return nil
}

func (s *CompanyService) AssignUser(companyID, userID uint) (*models.Company, error) {
	err := s.store.Transaction(func(tx repository.Store) error {
		return link(tx, companyID, userID)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(companyID)
}

// RemoveUser unlinks the user from the company. Removing a missing link is not an error.
func (s *CompanyService) RemoveUser(companyID, userID uint) (*models.Company, error) {
	err := s.store.Transaction(func(tx repository.Store) error {
		return unlink(tx, companyID, userID)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(companyID)
}

// AssignUsers links every listed user that is not yet a member of the company.
func (s *CompanyService) AssignUsers(companyID uint, userIDs []uint) (*models.Company, error) {
	err := s.store.Transaction(func(tx repository.Store) error {
		if _, err := loadCompany(tx, companyID); err != nil {
			return err
		}
		users, err := tx.Users().FindByIDs(dedupe(userIDs))
		if err != nil {
			return err
		}
		if len(users) == 0 {
			return apperr.Conflict("no users found")
		}
		current, err := tx.Companies().MemberUserIDs(companyID)
		if err != nil {
			return err
		}
		linked := idSet(current)

		added := 0
		for _, u := range users {
			if _, ok := linked[u.ID]; ok {
				continue
			}
			if err := tx.Companies().AddMember(companyID, u.ID); err != nil {
				return conflict(err, "user %d is already associated with company %d", u.ID, companyID)
			}
			added++
		}
		if added == 0 {
			return apperr.Conflict("all provided users are already associated with company %d", companyID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(companyID)
}

func (s *CompanyService) ListUsers(companyID uint) ([]models.User, error) {
	if _, err := loadCompany(s.store, companyID); err != nil {
		return nil, err
	}
	return s.store.Companies().GetMembers(companyID)
}
