package repository

import (
	"time"

	"github.com/noteduco342/OMCalendar-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func withRecipients(db *gorm.DB) *gorm.DB {
	return db.Preload("Recipients", func(db *gorm.DB) *gorm.DB {
		return db.Order("message_recipients.created_at ASC, message_recipients.user_id ASC")
	})
}

func (r *MessageRepository) Create(message *models.Message) error {
	return r.db.Omit(clause.Associations).Create(message).Error
}

func (r *MessageRepository) FindByID(id uint) (*models.Message, error) {
	var message models.Message
	if err := withRecipients(r.db).First(&message, id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// FindByIDForUpdate locks the message row until the surrounding transaction ends.
func (r *MessageRepository) FindByIDForUpdate(id uint) (*models.Message, error) {
	var message models.Message
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&message, id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepository) List() ([]models.Message, error) {
	return r.find(r.db)
}

func (r *MessageRepository) Update(message *models.Message) error {
	return r.db.Omit(clause.Associations).Save(message).Error
}

func (r *MessageRepository) Delete(id uint) error {
	return r.db.Delete(&models.Message{}, id).Error
}

func (r *MessageRepository) IDsByCompany(companyID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Message{}).
		Where("company_id = ?", companyID).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *MessageRepository) DeleteByIDs(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Where("id IN ?", ids).Delete(&models.Message{}).Error
}

func (r *MessageRepository) AddRecipient(messageID, userID uint) error {
	recipient := models.MessageRecipient{
		MessageID: messageID,
		UserID:    userID,
	}
	return r.db.Omit(clause.Associations).Create(&recipient).Error
}

func (r *MessageRepository) RecipientUserIDs(messageID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.MessageRecipient{}).
		Where("message_id = ?", messageID).
		Order("created_at ASC, user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *MessageRepository) DeleteRecipientsForMessages(messageIDs []uint) error {
	if len(messageIDs) == 0 {
		return nil
	}
	return r.db.Where("message_id IN ?", messageIDs).Delete(&models.MessageRecipient{}).Error
}

func (r *MessageRepository) DeleteRecipientsForUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.MessageRecipient{}).Error
}

func (r *MessageRepository) FindBySeen(seen bool) ([]models.Message, error) {
	return r.find(r.db.Where("messages.seen = ?", seen))
}

func (r *MessageRepository) FindByPriority(level models.PriorityLevel) ([]models.Message, error) {
	return r.find(r.db.Where("messages.priority_level = ?", level))
}

// FindByDateRange matches messages dated within [start, end], both days included.
func (r *MessageRepository) FindByDateRange(start, end time.Time) ([]models.Message, error) {
	return r.find(r.db.Where("messages.date BETWEEN ? AND ?", start.Format(models.DateLayout), end.Format(models.DateLayout)))
}

func (r *MessageRepository) FindByRecipient(userID uint) ([]models.Message, error) {
	return r.find(r.db.
		Joins("JOIN message_recipients ON message_recipients.message_id = messages.id").
		Where("message_recipients.user_id = ?", userID))
}

func (r *MessageRepository) FindByCompany(companyID uint) ([]models.Message, error) {
	return r.find(r.db.Where("messages.company_id = ?", companyID))
}

func (r *MessageRepository) FindByCompanyAndRecipient(companyID, userID uint) ([]models.Message, error) {
	return r.find(r.db.
		Joins("JOIN message_recipients ON message_recipients.message_id = messages.id").
		Where("messages.company_id = ? AND message_recipients.user_id = ?", companyID, userID))
}

func (r *MessageRepository) find(q *gorm.DB) ([]models.Message, error) {
	var messages []models.Message
	err := withRecipients(q).Order("messages.id ASC").Find(&messages).Error
	return messages, err
}
