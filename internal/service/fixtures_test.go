package service

import (
	"testing"

	"github.com/noteduco342/OMCalendar-backend/internal/models"
	"github.com/noteduco342/OMCalendar-backend/internal/testutil"
)

func seedUser(t *testing.T, s *testutil.MemStore, name string) *models.User {
	t.Helper()
	return testutil.NewTestHelper(t, s).CreateTestUser(name)
}

func seedCompany(t *testing.T, s *testutil.MemStore, name string) *models.Company {
	t.Helper()
	return testutil.NewTestHelper(t, s).CreateTestCompany(name)
}

func seedMessage(t *testing.T, s *testutil.MemStore, companyID *uint, date string) *models.Message {
	t.Helper()
	return testutil.NewTestHelper(t, s).CreateTestMessage(companyID, date)
}

func ptr[T any](v T) *T {
	return &v
}

func requireLedgerMatchesRecipients(t *testing.T, s *testutil.MemStore) {
	t.Helper()
	testutil.NewTestHelper(t, s).RequireLedgerMatchesRecipients()
}

func ids[T any](items []T, id func(T) uint) []uint {
	out := make([]uint, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func messageIDs(messages []models.Message) []uint {
	return ids(messages, func(m models.Message) uint { return m.ID })
}

func userIDs(users []models.User) []uint {
	return ids(users, func(u models.User) uint { return u.ID })
}

func companyIDs(companies []models.Company) []uint {
	return ids(companies, func(c models.Company) uint { return c.ID })
}
