package models

import (
	"time"

	"gorm.io/datatypes"
)

type Company struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name                     string                      `gorm:"size:200;not null" json:"name"`
	LogoURL                  string                      `json:"logo"`
	LogoKey                  string                      `json:"-"`
	Location                 string                      `json:"location"`
	LinkedInProfile          string                      `json:"linkedin_profile"`
	Emails                   datatypes.JSONSlice[string] `json:"emails"`
	PhoneNumbers             datatypes.JSONSlice[string] `json:"phone_numbers"`
	Comments                 string                      `gorm:"type:text" json:"comments"`
	CommunicationPeriodicity string                      `json:"communication_periodicity"`

	Members  []UserCompany `gorm:"foreignKey:CompanyID" json:"-"`
	Messages []Message     `gorm:"foreignKey:CompanyID" json:"-"`
}

// UserCompany is the membership join between users and companies.
type UserCompany struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CompanyID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"company_id"`
	CreatedAt time.Time `json:"created_at"`

	User    User    `gorm:"foreignKey:UserID" json:"-"`
	Company Company `gorm:"foreignKey:CompanyID" json:"-"`
}

func (UserCompany) TableName() string {
	return "user_companies"
}

type UserSummary struct {
	ID         uint   `json:"id"`
	FirstName  string `json:"firstname"`
	SecondName string `json:"secondname"`
	Email      string `json:"email"`
}

type CompanyResponse struct {
	ID                       uint          `json:"id"`
	Name                     string        `json:"name"`
	Logo                     string        `json:"logo"`
	Location                 string        `json:"location"`
	LinkedInProfile          string        `json:"linkedin_profile"`
	Emails                   []string      `json:"emails"`
	PhoneNumbers             []string      `json:"phone_numbers"`
	Comments                 string        `json:"comments"`
	CommunicationPeriodicity string        `json:"communication_periodicity"`
	Users                    []UserSummary `json:"users"`
	MessageIDs               []uint        `json:"message_ids"`
}

func (c *Company) ToResponse() CompanyResponse {
	users := make([]UserSummary, 0, len(c.Members))
	for _, m := range c.Members {
		if m.User.ID == 0 {
			continue
		}
		users = append(users, UserSummary{
			ID:         m.User.ID,
			FirstName:  m.User.FirstName,
			SecondName: m.User.SecondName,
			Email:      m.User.Email,
		})
	}
	messageIDs := make([]uint, 0, len(c.Messages))
	for _, m := range c.Messages {
		messageIDs = append(messageIDs, m.ID)
	}
	return CompanyResponse{
		ID:                       c.ID,
		Name:                     c.Name,
		Logo:                     c.LogoURL,
		Location:                 c.Location,
		LinkedInProfile:          c.LinkedInProfile,
		Emails:                   nonNilStrings(c.Emails),
		PhoneNumbers:             nonNilStrings(c.PhoneNumbers),
		Comments:                 c.Comments,
		CommunicationPeriodicity: c.CommunicationPeriodicity,
		Users:                    users,
		MessageIDs:               messageIDs,
	}
}

func CompaniesToResponse(companies []Company) []CompanyResponse {
	out := make([]CompanyResponse, 0, len(companies))
	for i := range companies {
		out = append(out, companies[i].ToResponse())
	}
	return out
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
