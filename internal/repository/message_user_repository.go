package repository

import (
	"github.com/noteduco342/OMCalendar-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageUserRepository struct {
	db *gorm.DB
}

func NewMessageUserRepository(db *gorm.DB) *MessageUserRepository {
	return &MessageUserRepository{db: db}
}

func (r *MessageUserRepository) Create(entry *models.MessageUser) error {
	return r.db.Omit(clause.Associations).Create(entry).Error
}

func (r *MessageUserRepository) Find(messageID, userID uint) (*models.MessageUser, error) {
	var entry models.MessageUser
	err := r.db.Where("message_id = ? AND user_id = ?", messageID, userID).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// SetSeen returns gorm.ErrRecordNotFound when the user is not a recipient of the message.
func (r *MessageUserRepository) SetSeen(messageID, userID uint, seen bool) error {
	res := r.db.Model(&models.MessageUser{}).
		Where("message_id = ? AND user_id = ?", messageID, userID).
		Update("seen", seen)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *MessageUserRepository) FindMessagesByUserAndSeen(userID uint, seen bool) ([]models.Message, error) {
	var messages []models.Message
	err := withRecipients(r.db).
		Joins("JOIN message_users ON message_users.message_id = messages.id").
		Where("message_users.user_id = ? AND message_users.seen = ?", userID, seen).
		Order("messages.id ASC").
		Find(&messages).Error
	return messages, err
}

func (r *MessageUserRepository) FindMessagesByUserCompanyAndSeen(userID, companyID uint, seen bool) ([]models.Message, error) {
	var messages []models.Message
	err := withRecipients(r.db).
		Joins("JOIN message_users ON message_users.message_id = messages.id").
		Where("message_users.user_id = ? AND message_users.seen = ? AND messages.company_id = ?", userID, seen, companyID).
		Order("messages.id ASC").
		Find(&messages).Error
	return messages, err
}

func (r *MessageUserRepository) DeleteForMessages(messageIDs []uint) error {
	if len(messageIDs) == 0 {
		return nil
	}
	return r.db.Where("message_id IN ?", messageIDs).Delete(&models.MessageUser{}).Error
}

func (r *MessageUserRepository) DeleteForUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.MessageUser{}).Error
}
