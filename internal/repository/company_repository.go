package repository

import (
	"github.com/noteduco342/OMCalendar-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func withMembersAndMessages(db *gorm.DB) *gorm.DB {
	return db.Preload("Members", func(db *gorm.DB) *gorm.DB {
		return db.Order("user_companies.created_at ASC, user_companies.user_id ASC")
	}).Preload("Members.User").Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("messages.id ASC")
	})
}

func (r *CompanyRepository) Create(company *models.Company) error {
	return r.db.Omit(clause.Associations).Create(company).Error
}

func (r *CompanyRepository) FindByID(id uint) (*models.Company, error) {
	var company models.Company
	if err := withMembersAndMessages(r.db).First(&company, id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *CompanyRepository) FindByIDs(ids []uint) ([]models.Company, error) {
	var companies []models.Company
	if len(ids) == 0 {
		return companies, nil
	}
	err := r.db.Where("id IN ?", ids).Order("id ASC").Find(&companies).Error
	return companies, err
}

func (r *CompanyRepository) List() ([]models.Company, error) {
	var companies []models.Company
	err := withMembersAndMessages(r.db).Order("id ASC").Find(&companies).Error
	return companies, err
}

// Update saves the profile columns. Logo columns are written by SetLogo only.
func (r *CompanyRepository) Update(company *models.Company) error {
	return r.db.Omit(clause.Associations, "logo_url", "logo_key").Save(company).Error
}

// SetLogo writes only the logo columns.
func (r *CompanyRepository) SetLogo(companyID uint, key, url string) error {
	res := r.db.Model(&models.Company{}).Where("id = ?", companyID).
		Updates(map[string]any{"logo_key": key, "logo_url": url})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CompanyRepository) Delete(id uint) error {
	return r.db.Delete(&models.Company{}, id).Error
}

func (r *CompanyRepository) AddMember(companyID, userID uint) error {
	member := models.UserCompany{
		CompanyID: companyID,
		UserID:    userID,
	}
	return r.db.Omit(clause.Associations).Create(&member).Error
}

func (r *CompanyRepository) RemoveMember(companyID, userID uint) error {
	return r.db.Where("company_id = ? AND user_id = ?", companyID, userID).Delete(&models.UserCompany{}).Error
}

func (r *CompanyRepository) IsMember(companyID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.UserCompany{}).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *CompanyRepository) MemberUserIDs(companyID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.UserCompany{}).
		Where("company_id = ?", companyID).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *CompanyRepository) UserCompanyIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.UserCompany{}).
		Where("user_id = ?", userID).
		Order("company_id ASC").
		Pluck("company_id", &ids).Error
	return ids, err
}

func (r *CompanyRepository) GetMembers(companyID uint) ([]models.User, error) {
	var members []models.User
	err := r.db.Joins("JOIN user_companies ON user_companies.user_id = users.id").
		Where("user_companies.company_id = ?", companyID).
		Order("users.id ASC").
		Find(&members).Error
	return members, err
}

func (r *CompanyRepository) GetUserCompanies(userID uint) ([]models.Company, error) {
	var companies []models.Company
	err := r.db.Joins("JOIN user_companies ON user_companies.company_id = companies.id").
		Where("user_companies.user_id = ?", userID).
		Order("companies.id ASC").
		Find(&companies).Error
	return companies, err
}

func (r *CompanyRepository) DeleteMembershipsForUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.UserCompany{}).Error
}

func (r *CompanyRepository) DeleteMembershipsForCompany(companyID uint) error {
	return r.db.Where("company_id = ?", companyID).Delete(&models.UserCompany{}).Error
}
