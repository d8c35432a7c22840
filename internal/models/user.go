package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// ParseRole accepts a role name in any case. An empty string yields RoleUser.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case "", RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	FirstName    string `gorm:"size:100" json:"firstname"`
	SecondName   string `gorm:"size:100" json:"secondname"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         Role   `gorm:"type:varchar(10);not null;default:USER" json:"role"`

	Memberships []UserCompany `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) IdentityID() uint       { return u.ID }
func (u *User) IdentityEmail() string  { return u.Email }
func (u *User) CredentialHash() string { return u.PasswordHash }
func (u *User) AuthorityRole() string  { return string(u.Role) }

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type CompanySummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type UserResponse struct {
	ID         uint             `json:"id"`
	FirstName  string           `json:"firstname"`
	SecondName string           `json:"secondname"`
	Email      string           `json:"email"`
	Role       Role             `json:"role"`
	Companies  []CompanySummary `json:"companies"`
	CreatedAt  time.Time        `json:"created_at"`
}

func (u *User) ToResponse() UserResponse {
	companies := make([]CompanySummary, 0, len(u.Memberships))
	for _, m := range u.Memberships {
		if m.Company.ID == 0 {
			continue
		}
		companies = append(companies, CompanySummary{ID: m.Company.ID, Name: m.Company.Name})
	}
	return UserResponse{
		ID:         u.ID,
		FirstName:  u.FirstName,
		SecondName: u.SecondName,
		Email:      u.Email,
		Role:       u.Role,
		Companies:  companies,
		CreatedAt:  u.CreatedAt,
	}
}

func UsersToResponse(users []User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToResponse())
	}
	return out
}
