package repository

import (
	"github.com/noteduco342/OMCalendar-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func withCompanies(db *gorm.DB) *gorm.DB {
	return db.Preload("Memberships", func(db *gorm.DB) *gorm.DB {
		return db.Order("user_companies.created_at ASC, user_companies.company_id ASC")
	}).Preload("Memberships.Company")
}

func (r *UserRepository) Create(user *models.User) error {
	return r.db.Omit(clause.Associations).Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*models.User, error) {
	var user models.User
	if err := withCompanies(r.db).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByIDs(ids []uint) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.Where("id IN ?", ids).Order("id ASC").Find(&users).Error
	return users, err
}

func (r *UserRepository) List() ([]models.User, error) {
	var users []models.User
	err := withCompanies(r.db).Order("id ASC").Find(&users).Error
	return users, err
}

func (r *UserRepository) Update(user *models.User) error {
	return r.db.Omit(clause.Associations).Save(user).Error
}

func (r *UserRepository) Delete(id uint) error {
	return r.db.Delete(&models.User{}, id).Error
}
