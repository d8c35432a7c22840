package models

import (
	"testing"
	"time"
)

func TestUserToResponse(t *testing.T) {
	user := &User{
		ID:         1,
		FirstName:  "Ada",
		SecondName: "Lovelace",
		Email:      "ada@example.com",
		Role:       RoleAdmin,
		Memberships: []UserCompany{
			{UserID: 1, CompanyID: 3, Company: Company{ID: 3, Name: "Acme"}},
			{UserID: 1, CompanyID: 4},
		},
	}

	response := user.ToResponse()

	if response.ID != user.ID {
		t.Errorf("ToResponse ID = %d, want %d", response.ID, user.ID)
	}
	if response.Email != user.Email {
		t.Errorf("ToResponse Email = %q, want %q", response.Email, user.Email)
	}
	if response.Role != RoleAdmin {
		t.Errorf("ToResponse Role = %q, want %q", response.Role, RoleAdmin)
	}
	if len(response.Companies) != 1 || response.Companies[0].Name != "Acme" {
		t.Errorf("ToResponse Companies = %+v, want only loaded company Acme", response.Companies)
	}
}

func TestUserIdentity(t *testing.T) {
	user := &User{ID: 9, Email: "x@example.com", PasswordHash: "h", Role: RoleUser}
	if user.IdentityID() != 9 || user.IdentityEmail() != "x@example.com" || user.CredentialHash() != "h" {
		t.Fatalf("identity accessors mismatch: %+v", user)
	}
	if user.AuthorityRole() != "USER" {
		t.Errorf("AuthorityRole = %q, want USER", user.AuthorityRole())
	}
	if user.IsAdmin() {
		t.Errorf("IsAdmin = true for USER")
	}
}

func TestCompanyToResponse(t *testing.T) {
	company := &Company{
		ID:   7,
		Name: "Acme",
		Members: []UserCompany{
			{UserID: 2, CompanyID: 7, User: User{ID: 2, Email: "b@example.com"}},
		},
		Messages: []Message{{ID: 11}, {ID: 12}},
	}

	response := company.ToResponse()

	if response.Emails == nil || response.PhoneNumbers == nil {
		t.Errorf("nil contact lists should render as empty")
	}
	if len(response.Users) != 1 || response.Users[0].ID != 2 {
		t.Errorf("Users = %+v", response.Users)
	}
	if len(response.MessageIDs) != 2 || response.MessageIDs[1] != 12 {
		t.Errorf("MessageIDs = %v", response.MessageIDs)
	}
}

func TestMessageToResponse(t *testing.T) {
	companyID := uint(5)
	message := &Message{
		ID:            1,
		Type:          TypeMeeting,
		Date:          NewDate(time.Date(2024, 3, 9, 15, 4, 5, 0, time.UTC)),
		PriorityLevel: PriorityHigh,
		CompanyID:     &companyID,
		Recipients: []MessageRecipient{
			{MessageID: 1, UserID: 4},
			{MessageID: 1, UserID: 2},
		},
	}

	response := message.ToResponse()

	if response.Date == nil || *response.Date != "2024-03-09" {
		t.Errorf("Date = %v, want 2024-03-09", response.Date)
	}
	if response.CompanyID == nil || *response.CompanyID != companyID {
		t.Errorf("CompanyID = %v, want %d", response.CompanyID, companyID)
	}
	if len(response.UserIDs) != 2 || response.UserIDs[0] != 4 || response.UserIDs[1] != 2 {
		t.Errorf("UserIDs = %v, want [4 2]", response.UserIDs)
	}

	message.Date = nil
	if got := message.ToResponse().Date; got != nil {
		t.Errorf("Date = %v, want nil", *got)
	}
}

func TestParseEnums(t *testing.T) {
	tests := []struct {
		name  string
		parse func(string) bool
		input string
		ok    bool
	}{
		{"type upper", func(s string) bool { _, ok := ParseMessageType(s); return ok }, "EMAIL", true},
		{"type lower", func(s string) bool { _, ok := ParseMessageType(s); return ok }, "phone_call", true},
		{"type unknown", func(s string) bool { _, ok := ParseMessageType(s); return ok }, "FAX", false},
		{"type empty", func(s string) bool { _, ok := ParseMessageType(s); return ok }, "", false},
		{"priority", func(s string) bool { _, ok := ParsePriorityLevel(s); return ok }, "critical", true},
		{"priority unknown", func(s string) bool { _, ok := ParsePriorityLevel(s); return ok }, "URGENT", false},
		{"role admin", func(s string) bool { _, ok := ParseRole(s); return ok }, "admin", true},
		{"role empty", func(s string) bool { _, ok := ParseRole(s); return ok }, "", true},
		{"role unknown", func(s string) bool { _, ok := ParseRole(s); return ok }, "ROOT", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.parse(tt.input); got != tt.ok {
				t.Errorf("parse(%q) ok = %v, want %v", tt.input, got, tt.ok)
			}
		})
	}
}

func TestRefreshTokenState(t *testing.T) {
	now := time.Now()
	token := &RefreshToken{ExpiresAt: now.Add(time.Minute)}
	if token.IsRevoked() || token.IsExpired(now) {
		t.Fatalf("fresh token reported revoked or expired")
	}
	token.RevokedAt = &now
	if !token.IsRevoked() {
		t.Errorf("IsRevoked = false after revoke")
	}
	if !token.IsExpired(now.Add(time.Minute)) {
		t.Errorf("IsExpired = false at expiry instant")
	}
}
