package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/noteduco342/OMCalendar-backend/internal/models"
	"github.com/stretchr/testify/require"
)

// TestHelper seeds rows straight into a MemStore, bypassing service validation.
type TestHelper struct {
	t     *testing.T
	store *MemStore
}

func NewTestHelper(t *testing.T, store *MemStore) *TestHelper {
	return &TestHelper{t: t, store: store}
}

// SetupTestEnv sets the environment the services read at call time.
func (h *TestHelper) SetupTestEnv() {
	h.t.Setenv("JWT_SECRET", "test-secret-key-for-testing-only")
	h.t.Setenv("PASSWORD_MIN_LENGTH", "10")
}

// CreateTestUser stores a USER named name with email name@example.com.
func (h *TestHelper) CreateTestUser(name string) *models.User {
	h.t.Helper()
	if name == "" {
		name = "testuser"
	}
	user := &models.User{
		FirstName:    name,
		Email:        fmt.Sprintf("%s@example.com", name),
		PasswordHash: "hashed_password_123",
		Role:         models.RoleUser,
	}
	require.NoError(h.t, h.store.Users().Create(user))
	return user
}

func (h *TestHelper) CreateTestCompany(name string) *models.Company {
	h.t.Helper()
	if name == "" {
		name = "Test Company"
	}
	company := &models.Company{Name: name}
	require.NoError(h.t, h.store.Companies().Create(company))
	return company
}

// CreateTestMessage stores a MEDIUM priority email. date is YYYY-MM-DD or empty.
func (h *TestHelper) CreateTestMessage(companyID *uint, date string) *models.Message {
	h.t.Helper()
	message := &models.Message{
		Type:          models.TypeEmail,
		PriorityLevel: models.PriorityMedium,
		CompanyID:     companyID,
	}
	if date != "" {
		d, err := time.Parse(models.DateLayout, date)
		require.NoError(h.t, err)
		message.Date = models.NewDate(d)
	}
	require.NoError(h.t, h.store.Messages().Create(message))
	return message
}

// RequireLedgerMatchesRecipients checks that seen state exists for exactly the recipient pairs.
func (h *TestHelper) RequireLedgerMatchesRecipients() {
	h.t.Helper()
	require.Equal(h.t, h.store.RecipientPairs(), h.store.LedgerPairs(), "ledger rows must mirror recipient rows")
}
