package service

import (
	"strings"
	"time"

	"github.com/noteduco342/OMCalendar-backend/internal/apperr"
	"github.com/noteduco342/OMCalendar-backend/internal/models"
	"github.com/noteduco342/OMCalendar-backend/internal/repository"
	"github.com/noteduco342/OMCalendar-backend/internal/validation"
	"gorm.io/datatypes"
)

type MessageService struct {
	store repository.Store
}

func NewMessageService(store repository.Store) *MessageService {
	return &MessageService{store: store}
}

type MessageInput struct {
	Type          string `json:"type" validate:"required"`
	Description   string `json:"description"`
	Date          string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	MandatoryFlag bool   `json:"mandatory_flag"`
	ClientName    string `json:"client_name"`
	Designation   string `json:"designation"`
	PriorityLevel string `json:"priority_level" validate:"required"`
	Seen          bool   `json:"seen"`
	CompanyID     *uint  `json:"company_id"`
}

// MessageUpdateInput leaves nil fields untouched. An empty Date clears the date.
type MessageUpdateInput struct {
	Type          *string `json:"type"`
	Description   *string `json:"description"`
	Date          *string `json:"date"`
	MandatoryFlag *bool   `json:"mandatory_flag"`
	ClientName    *string `json:"client_name"`
	Designation   *string `json:"designation"`
	PriorityLevel *string `json:"priority_level"`
	Seen          *bool   `json:"seen"`
}

func parseType(s string) (models.MessageType, error) {
	t, ok := models.ParseMessageType(s)
	if !ok {
		return "", apperr.InvalidArgument("unknown message type %q", s)
	}
	return t, nil
}

func parsePriority(s string) (models.PriorityLevel, error) {
	p, ok := models.ParsePriorityLevel(s)
	if !ok {
		return "", apperr.InvalidArgument("unknown priority level %q", s)
	}
	return p, nil
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperr.InvalidArgument("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

func parseOptionalDate(s string) (*datatypes.Date, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return models.NewDate(t), nil
}

func (s *MessageService) Create(input MessageInput) (*models.Message, error) {
	msgType, err := parseType(input.Type)
	if err != nil {
		return nil, err
	}
	priority, err := parsePriority(input.PriorityLevel)
	if err != nil {
		return nil, err
	}
	date, err := parseOptionalDate(input.Date)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		Type:          msgType,
		Description:   validation.TrimAndLimit(input.Description, validation.MaxDescriptionLength()),
		Date:          date,
		MandatoryFlag: input.MandatoryFlag,
		ClientName:    strings.TrimSpace(input.ClientName),
		Designation:   strings.TrimSpace(input.Designation),
		PriorityLevel: priority,
		Seen:          input.Seen,
	}

	err = s.store.Transaction(func(tx repository.Store) error {
		if input.CompanyID != nil {
			if _, err := loadCompany(tx, *input.CompanyID); err != nil {
				return err
			}
			companyID := *input.CompanyID
			message.CompanyID = &companyID
		}
		return tx.Messages().Create(message)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(message.ID)
}

func (s *MessageService) Get(messageID uint) (*models.Message, error) {
	return loadMessage(s.store, messageID)
}

func (s *MessageService) ListAll() ([]models.Message, error) {
	return s.store.Messages().List()
}

// Update applies only the fields present in input.
func (s *MessageService) Update(messageID uint, input MessageUpdateInput) (*models.Message, error) {
	err := s.store.Transaction(func(tx repository.Store) error {
		message, err := loadMessage(tx, messageID)
		if err != nil {
			return err
		}
		if input.Type != nil {
			if message.Type, err = parseType(*input.Type); err != nil {
				return err
			}
		}
		if input.PriorityLevel != nil {
			if message.PriorityLevel, err = parsePriority(*input.PriorityLevel); err != nil {
				return err
			}
		}
		if input.Date != nil {
			if message.Date, err = parseOptionalDate(*input.Date); err != nil {
				return err
			}
		}
		if input.Description != nil {
			message.Description = validation.TrimAndLimit(*input.Description, validation.MaxDescriptionLength())
		}
		if input.ClientName != nil {
			message.ClientName = strings.TrimSpace(*input.ClientName)
		}
		if input.Designation != nil {
			message.Designation = strings.TrimSpace(*input.Designation)
		}
		if input.MandatoryFlag != nil {
			message.MandatoryFlag = *input.MandatoryFlag
		}
		if input.Seen != nil {
			message.Seen = *input.Seen
		}
		return tx.Messages().Update(message)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(messageID)
}

// Delete removes the message with its recipient list and seen state.
func (s *MessageService) Delete(messageID uint) error {
	return s.store.Transaction(func(tx repository.Store) error {
		if _, err := loadMessage(tx, messageID); err != nil {
			return err
		}
		ids := []uint{messageID}
		if err := tx.Ledger().DeleteForMessages(ids); err != nil {
			return err
		}
		if err := tx.Messages().DeleteRecipientsForMessages(ids); err != nil {
			return err
		}
		return tx.Messages().Delete(messageID)
	})
}

// AssignUsersAndCompany optionally sets the message's company and optionally adds
// recipients, creating an unseen ledger entry for each new recipient. An empty
// userIDs leaves recipients untouched. Everything happens in one transaction with the
// message row locked.
func (s *MessageService) AssignUsersAndCompany(messageID uint, companyID *uint, userIDs []uint) (*models.Message, error) {
	err := s.store.Transaction(func(tx repository.Store) error {
		message, err := tx.Messages().FindByIDForUpdate(messageID)
		if err != nil {
			return notFound(err, "message %d not found", messageID)
		}

		if companyID != nil {
			if _, err := loadCompany(tx, *companyID); err != nil {
				return err
			}
			id := *companyID
			message.CompanyID = &id
			if err := tx.Messages().Update(message); err != nil {
				return err
			}
		}

		if len(userIDs) == 0 {
			return nil
		}

		users, err := tx.Users().FindByIDs(dedupe(userIDs))
		if err != nil {
			return err
		}
		if len(users) == 0 {
			return apperr.Conflict("no users found")
		}
		current, err := tx.Messages().RecipientUserIDs(messageID)
		if err != nil {
			return err
		}
		assigned := idSet(current)

		added := 0
		for _, u := range users {
			if _, ok := assigned[u.ID]; ok {
				continue
			}
			if err := tx.Messages().AddRecipient(messageID, u.ID); err != nil {
				return conflict(err, "user %d is already assigned to message %d", u.ID, messageID)
			}
			if err := tx.Ledger().Create(&models.MessageUser{MessageID: messageID, UserID: u.ID, Seen: false}); err != nil {
				return conflict(err, "user %d is already assigned to message %d", u.ID, messageID)
			}
			added++
		}
		if added == 0 {
			return apperr.Conflict("all provided users are already assigned to message %d", messageID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(messageID)
}

// ListBySeen filters on the legacy message-wide flag.
func (s *MessageService) ListBySeen(seen bool) ([]models.Message, error) {
	return s.store.Messages().FindBySeen(seen)
}

func (s *MessageService) ListByPriority(level string) ([]models.Message, error) {
	priority, err := parsePriority(level)
	if err != nil {
		return nil, err
	}
	return s.store.Messages().FindByPriority(priority)
}

// ListByDateRange returns messages dated between start and end, both days included.
func (s *MessageService) ListByDateRange(start, end *time.Time) ([]models.Message, error) {
	if start == nil || end == nil {
		return nil, apperr.InvalidArgument("start and end dates are required")
	}
	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	if from.After(to) {
		return nil, apperr.InvalidArgument("start date must not be after end date")
	}
	return s.store.Messages().FindByDateRange(from, to)
}

func (s *MessageService) ListByUser(userID uint) ([]models.Message, error) {
	return s.store.Messages().FindByRecipient(userID)
}

func (s *MessageService) ListByCompany(companyID uint) ([]models.Message, error) {
	return s.store.Messages().FindByCompany(companyID)
}

// ListNotSeenByUser returns the messages the user has not marked seen yet.
func (s *MessageService) ListNotSeenByUser(userID uint) ([]models.Message, error) {
	return s.store.Ledger().FindMessagesByUserAndSeen(userID, false)
}

func (s *MessageService) ListNotSeenByUserForCompany(userID, companyID uint) ([]models.Message, error) {
	return s.store.Ledger().FindMessagesByUserCompanyAndSeen(userID, companyID, false)
}
