package testutil

import (
	"errors"
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/noteduco342/OMCalendar-backend/internal/models"
	"github.com/noteduco342/OMCalendar-backend/internal/repository"
	"gorm.io/gorm"
)

// ErrInjected is returned by ledger writes for users listed in MemStore.FailLedgerFor.
var ErrInjected = errors.New("injected failure")

// memState is the in-memory database behind MemStore. Association fields are
// never stored; they are rebuilt on read the way the gorm preloads do.
type memState struct {
	clock       int64
	nextID      map[string]uint
	users       map[uint]models.User
	companies   map[uint]models.Company
	messages    map[uint]models.Message
	memberships []models.UserCompany
	recipients  []models.MessageRecipient
	ledger      []models.MessageUser
	tokens      map[uint]models.RefreshToken
}

func (st *memState) clone() *memState {
	return &memState{
		clock:       st.clock,
		nextID:      maps.Clone(st.nextID),
		users:       maps.Clone(st.users),
		companies:   maps.Clone(st.companies),
		messages:    maps.Clone(st.messages),
		memberships: slices.Clone(st.memberships),
		recipients:  slices.Clone(st.recipients),
		ledger:      slices.Clone(st.ledger),
		tokens:      maps.Clone(st.tokens),
	}
}

var _ repository.Store = (*MemStore)(nil)

// MemStore implements repository.Store. Transaction restores the pre-call
// state when fn fails, and deletes refuse to orphan referencing rows.
type MemStore struct {
	st *memState

	// ledger writes for these user ids fail
	FailLedgerFor map[uint]bool
	// StaleLinkReads makes the already-linked checks (IsMember, MemberUserIDs,
	// UserCompanyIDs, RecipientUserIDs) see no rows, as a transaction racing a
	// concurrent insert would. Inserts still hit the unique keys.
	StaleLinkReads bool
	// StaleTokenReads makes FindValidByHash ignore revocation, as a read taken
	// before a concurrent revoke committed would.
	StaleTokenReads bool
	Transactions    int
}

func NewMemStore() *MemStore {
	return &MemStore{
		st: &memState{
			nextID:    map[string]uint{},
			users:     map[uint]models.User{},
			companies: map[uint]models.Company{},
			messages:  map[uint]models.Message{},
			tokens:    map[uint]models.RefreshToken{},
		},
		FailLedgerFor: map[uint]bool{},
	}
}

func (s *MemStore) Users() repository.UserRepositoryInterface                 { return memUsers{s} }
func (s *MemStore) Companies() repository.CompanyRepositoryInterface          { return memCompanies{s} }
func (s *MemStore) Messages() repository.MessageRepositoryInterface           { return memMessages{s} }
func (s *MemStore) Ledger() repository.MessageUserRepositoryInterface         { return memLedger{s} }
func (s *MemStore) RefreshTokens() repository.RefreshTokenRepositoryInterface { return memTokens{s} }

func (s *MemStore) Transaction(fn func(tx repository.Store) error) error {
	s.Transactions++
	snapshot := s.st.clone()
	if err := fn(s); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *MemStore) tick() time.Time {
	s.st.clock++
	return time.Unix(1700000000+s.st.clock, 0).UTC()
}

func (s *MemStore) next(table string) uint {
	s.st.nextID[table]++
	return s.st.nextID[table]
}

func sortedKeys[V any](m map[uint]V) []uint {
	keys := slices.Collect(maps.Keys(m))
	slices.Sort(keys)
	return keys
}

func (s *MemStore) userView(u models.User) *models.User {
	u.Memberships = nil
	for _, m := range s.st.memberships {
		if m.UserID == u.ID {
			m.Company = s.st.companies[m.CompanyID]
			u.Memberships = append(u.Memberships, m)
		}
	}
	return &u
}

func (s *MemStore) companyView(c models.Company) *models.Company {
	c.Members = nil
	c.Messages = nil
	for _, m := range s.st.memberships {
		if m.CompanyID == c.ID {
			m.User = s.st.users[m.UserID]
			c.Members = append(c.Members, m)
		}
	}
	for _, id := range sortedKeys(s.st.messages) {
		if msg := s.st.messages[id]; msg.CompanyID != nil && *msg.CompanyID == c.ID {
			c.Messages = append(c.Messages, msg)
		}
	}
	return &c
}

func (s *MemStore) messageView(m models.Message) models.Message {
	m.Recipients = nil
	for _, r := range s.st.recipients {
		if r.MessageID == m.ID {
			m.Recipients = append(m.Recipients, r)
		}
	}
	return m
}

func (s *MemStore) filterMessages(keep func(models.Message) bool) []models.Message {
	var out []models.Message
	for _, id := range sortedKeys(s.st.messages) {
		if m := s.st.messages[id]; keep(m) {
			out = append(out, s.messageView(m))
		}
	}
	return out
}

func (s *MemStore) userReferenced(id uint) bool {
	for _, m := range s.st.memberships {
		if m.UserID == id {
			return true
		}
	}
	for _, r := range s.st.recipients {
		if r.UserID == id {
			return true
		}
	}
	for _, e := range s.st.ledger {
		if e.UserID == id {
			return true
		}
	}
	for _, t := range s.st.tokens {
		if t.UserID == id {
			return true
		}
	}
	return false
}

func (s *MemStore) messageReferenced(id uint) bool {
	for _, r := range s.st.recipients {
		if r.MessageID == id {
			return true
		}
	}
	for _, e := range s.st.ledger {
		if e.MessageID == id {
			return true
		}
	}
	return false
}

type memUsers struct{ s *MemStore }

func (r memUsers) Create(user *models.User) error {
	for _, u := range r.s.st.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = r.s.next("users")
	user.CreatedAt = r.s.tick()
	stored := *user
	stored.Memberships = nil
	r.s.st.users[user.ID] = stored
	return nil
}

func (r memUsers) FindByID(id uint) (*models.User, error) {
	u, ok := r.s.st.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.s.userView(u), nil
}

func (r memUsers) FindByEmail(email string) (*models.User, error) {
	for _, u := range r.s.st.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memUsers) FindByIDs(ids []uint) ([]models.User, error) {
	want := idSet(ids)
	var out []models.User
	for _, id := range sortedKeys(r.s.st.users) {
		if _, ok := want[id]; ok {
			out = append(out, r.s.st.users[id])
		}
	}
	return out, nil
}

func (r memUsers) List() ([]models.User, error) {
	var out []models.User
	for _, id := range sortedKeys(r.s.st.users) {
		out = append(out, *r.s.userView(r.s.st.users[id]))
	}
	return out, nil
}

func (r memUsers) Update(user *models.User) error {
	for _, u := range r.s.st.users {
		if u.Email == user.Email && u.ID != user.ID {
			return gorm.ErrDuplicatedKey
		}
	}
	stored := *user
	stored.Memberships = nil
	r.s.st.users[user.ID] = stored
	return nil
}

func (r memUsers) Delete(id uint) error {
	if r.s.userReferenced(id) {
		return gorm.ErrForeignKeyViolated
	}
	delete(r.s.st.users, id)
	return nil
}

type memCompanies struct{ s *MemStore }

func (r memCompanies) Create(company *models.Company) error {
	company.ID = r.s.next("companies")
	company.CreatedAt = r.s.tick()
	stored := *company
	stored.Members, stored.Messages = nil, nil
	r.s.st.companies[company.ID] = stored
	return nil
}

func (r memCompanies) FindByID(id uint) (*models.Company, error) {
	c, ok := r.s.st.companies[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.s.companyView(c), nil
}

func (r memCompanies) FindByIDs(ids []uint) ([]models.Company, error) {
	want := idSet(ids)
	var out []models.Company
	for _, id := range sortedKeys(r.s.st.companies) {
		if _, ok := want[id]; ok {
			out = append(out, r.s.st.companies[id])
		}
	}
	return out, nil
}

func (r memCompanies) List() ([]models.Company, error) {
	var out []models.Company
	for _, id := range sortedKeys(r.s.st.companies) {
		out = append(out, *r.s.companyView(r.s.st.companies[id]))
	}
	return out, nil
}

func (r memCompanies) Update(company *models.Company) error {
	stored := *company
	stored.Members, stored.Messages = nil, nil
	if prev, ok := r.s.st.companies[company.ID]; ok {
		stored.LogoKey, stored.LogoURL = prev.LogoKey, prev.LogoURL
	}
	r.s.st.companies[company.ID] = stored
	return nil
}

func (r memCompanies) SetLogo(companyID uint, key, url string) error {
	c, ok := r.s.st.companies[companyID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.LogoKey, c.LogoURL = key, url
	c.UpdatedAt = r.s.tick()
	r.s.st.companies[companyID] = c
	return nil
}

func (r memCompanies) Delete(id uint) error {
	for _, m := range r.s.st.memberships {
		if m.CompanyID == id {
			return gorm.ErrForeignKeyViolated
		}
	}
	for _, msg := range r.s.st.messages {
		if msg.CompanyID != nil && *msg.CompanyID == id {
			return gorm.ErrForeignKeyViolated
		}
	}
	delete(r.s.st.companies, id)
	return nil
}

func (r memCompanies) AddMember(companyID, userID uint) error {
	if _, ok := r.s.st.users[userID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	if _, ok := r.s.st.companies[companyID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	for _, m := range r.s.st.memberships {
		if m.CompanyID == companyID && m.UserID == userID {
			return gorm.ErrDuplicatedKey
		}
	}
	r.s.st.memberships = append(r.s.st.memberships, models.UserCompany{
		UserID: userID, CompanyID: companyID, CreatedAt: r.s.tick(),
	})
	return nil
}

func (r memCompanies) RemoveMember(companyID, userID uint) error {
	r.s.st.memberships = slices.DeleteFunc(r.s.st.memberships, func(m models.UserCompany) bool {
		return m.CompanyID == companyID && m.UserID == userID
	})
	return nil
}

func (r memCompanies) IsMember(companyID, userID uint) (bool, error) {
	if r.s.StaleLinkReads {
		return false, nil
	}
	return slices.ContainsFunc(r.s.st.memberships, func(m models.UserCompany) bool {
		return m.CompanyID == companyID && m.UserID == userID
	}), nil
}

func (r memCompanies) MemberUserIDs(companyID uint) ([]uint, error) {
	if r.s.StaleLinkReads {
		return nil, nil
	}
	return r.memberIDs(companyID), nil
}

func (r memCompanies) memberIDs(companyID uint) []uint {
	var ids []uint
	for _, m := range r.s.st.memberships {
		if m.CompanyID == companyID {
			ids = append(ids, m.UserID)
		}
	}
	slices.Sort(ids)
	return ids
}

func (r memCompanies) UserCompanyIDs(userID uint) ([]uint, error) {
	if r.s.StaleLinkReads {
		return nil, nil
	}
	return r.companyIDs(userID), nil
}

func (r memCompanies) companyIDs(userID uint) []uint {
	var ids []uint
	for _, m := range r.s.st.memberships {
		if m.UserID == userID {
			ids = append(ids, m.CompanyID)
		}
	}
	slices.Sort(ids)
	return ids
}

func (r memCompanies) GetMembers(companyID uint) ([]models.User, error) {
	ids := r.memberIDs(companyID)
	return memUsers(r).FindByIDs(ids)
}

func (r memCompanies) GetUserCompanies(userID uint) ([]models.Company, error) {
	ids := r.companyIDs(userID)
	return r.FindByIDs(ids)
}

func (r memCompanies) DeleteMembershipsForUser(userID uint) error {
	r.s.st.memberships = slices.DeleteFunc(r.s.st.memberships, func(m models.UserCompany) bool { return m.UserID == userID })
	return nil
}

func (r memCompanies) DeleteMembershipsForCompany(companyID uint) error {
	r.s.st.memberships = slices.DeleteFunc(r.s.st.memberships, func(m models.UserCompany) bool { return m.CompanyID == companyID })
	return nil
}

type memMessages struct{ s *MemStore }

func (r memMessages) Create(message *models.Message) error {
	if message.CompanyID != nil {
		if _, ok := r.s.st.companies[*message.CompanyID]; !ok {
			return gorm.ErrForeignKeyViolated
		}
	}
	message.ID = r.s.next("messages")
	message.CreatedAt = r.s.tick()
	stored := *message
	stored.Recipients, stored.Company = nil, nil
	r.s.st.messages[message.ID] = stored
	return nil
}

func (r memMessages) FindByID(id uint) (*models.Message, error) {
	m, ok := r.s.st.messages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	view := r.s.messageView(m)
	return &view, nil
}

func (r memMessages) FindByIDForUpdate(id uint) (*models.Message, error) {
	m, ok := r.s.st.messages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &m, nil
}

func (r memMessages) List() ([]models.Message, error) {
	return r.s.filterMessages(func(models.Message) bool { return true }), nil
}

func (r memMessages) Update(message *models.Message) error {
	stored := *message
	stored.Recipients, stored.Company = nil, nil
	r.s.st.messages[message.ID] = stored
	return nil
}

func (r memMessages) Delete(id uint) error {
	if r.s.messageReferenced(id) {
		return gorm.ErrForeignKeyViolated
	}
	delete(r.s.st.messages, id)
	return nil
}

func (r memMessages) IDsByCompany(companyID uint) ([]uint, error) {
	var ids []uint
	for _, m := range r.s.filterMessages(func(m models.Message) bool {
		return m.CompanyID != nil && *m.CompanyID == companyID
	}) {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (r memMessages) DeleteByIDs(ids []uint) error {
	for _, id := range ids {
		if err := r.Delete(id); err != nil {
			return err
		}
	}
	return nil
}

func (r memMessages) AddRecipient(messageID, userID uint) error {
	if _, ok := r.s.st.messages[messageID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	if _, ok := r.s.st.users[userID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	for _, rc := range r.s.st.recipients {
		if rc.MessageID == messageID && rc.UserID == userID {
			return gorm.ErrDuplicatedKey
		}
	}
	r.s.st.recipients = append(r.s.st.recipients, models.MessageRecipient{
		MessageID: messageID, UserID: userID, CreatedAt: r.s.tick(),
	})
	return nil
}

func (r memMessages) RecipientUserIDs(messageID uint) ([]uint, error) {
	if r.s.StaleLinkReads {
		return nil, nil
	}
	var ids []uint
	for _, rc := range r.s.st.recipients {
		if rc.MessageID == messageID {
			ids = append(ids, rc.UserID)
		}
	}
	return ids, nil
}

func (r memMessages) DeleteRecipientsForMessages(messageIDs []uint) error {
	set := idSet(messageIDs)
	r.s.st.recipients = slices.DeleteFunc(r.s.st.recipients, func(rc models.MessageRecipient) bool {
		_, ok := set[rc.MessageID]
		return ok
	})
	return nil
}

func (r memMessages) DeleteRecipientsForUser(userID uint) error {
	r.s.st.recipients = slices.DeleteFunc(r.s.st.recipients, func(rc models.MessageRecipient) bool { return rc.UserID == userID })
	return nil
}

func (r memMessages) FindBySeen(seen bool) ([]models.Message, error) {
	return r.s.filterMessages(func(m models.Message) bool { return m.Seen == seen }), nil
}

func (r memMessages) FindByPriority(level models.PriorityLevel) ([]models.Message, error) {
	return r.s.filterMessages(func(m models.Message) bool { return m.PriorityLevel == level }), nil
}

func (r memMessages) FindByDateRange(start, end time.Time) ([]models.Message, error) {
	return r.s.filterMessages(func(m models.Message) bool {
		if m.Date == nil {
			return false
		}
		d := time.Time(*m.Date)
		return !d.Before(start) && !d.After(end)
	}), nil
}

func (r memMessages) isRecipient(messageID, userID uint) bool {
	return slices.ContainsFunc(r.s.st.recipients, func(rc models.MessageRecipient) bool {
		return rc.MessageID == messageID && rc.UserID == userID
	})
}

func (r memMessages) FindByRecipient(userID uint) ([]models.Message, error) {
	return r.s.filterMessages(func(m models.Message) bool { return r.isRecipient(m.ID, userID) }), nil
}

func (r memMessages) FindByCompany(companyID uint) ([]models.Message, error) {
	return r.s.filterMessages(func(m models.Message) bool {
		return m.CompanyID != nil && *m.CompanyID == companyID
	}), nil
}

func (r memMessages) FindByCompanyAndRecipient(companyID, userID uint) ([]models.Message, error) {
	return r.s.filterMessages(func(m models.Message) bool {
		return m.CompanyID != nil && *m.CompanyID == companyID && r.isRecipient(m.ID, userID)
	}), nil
}

type memLedger struct{ s *MemStore }

func (r memLedger) Create(entry *models.MessageUser) error {
	if r.s.FailLedgerFor[entry.UserID] {
		return ErrInjected
	}
	for _, e := range r.s.st.ledger {
		if e.MessageID == entry.MessageID && e.UserID == entry.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	entry.CreatedAt = r.s.tick()
	r.s.st.ledger = append(r.s.st.ledger, *entry)
	return nil
}

func (r memLedger) index(messageID, userID uint) int {
	return slices.IndexFunc(r.s.st.ledger, func(e models.MessageUser) bool {
		return e.MessageID == messageID && e.UserID == userID
	})
}

func (r memLedger) Find(messageID, userID uint) (*models.MessageUser, error) {
	i := r.index(messageID, userID)
	if i < 0 {
		return nil, gorm.ErrRecordNotFound
	}
	entry := r.s.st.ledger[i]
	return &entry, nil
}

func (r memLedger) SetSeen(messageID, userID uint, seen bool) error {
	if r.s.FailLedgerFor[userID] {
		return ErrInjected
	}
	i := r.index(messageID, userID)
	if i < 0 {
		return gorm.ErrRecordNotFound
	}
	r.s.st.ledger[i].Seen = seen
	r.s.st.ledger[i].UpdatedAt = r.s.tick()
	return nil
}

func (r memLedger) seenState(messageID, userID uint) (bool, bool) {
	i := r.index(messageID, userID)
	if i < 0 {
		return false, false
	}
	return r.s.st.ledger[i].Seen, true
}

func (r memLedger) FindMessagesByUserAndSeen(userID uint, seen bool) ([]models.Message, error) {
	return r.s.filterMessages(func(m models.Message) bool {
		got, ok := r.seenState(m.ID, userID)
		return ok && got == seen
	}), nil
}

func (r memLedger) FindMessagesByUserCompanyAndSeen(userID, companyID uint, seen bool) ([]models.Message, error) {
	return r.s.filterMessages(func(m models.Message) bool {
		got, ok := r.seenState(m.ID, userID)
		return ok && got == seen && m.CompanyID != nil && *m.CompanyID == companyID
	}), nil
}

func (r memLedger) DeleteForMessages(messageIDs []uint) error {
	set := idSet(messageIDs)
	r.s.st.ledger = slices.DeleteFunc(r.s.st.ledger, func(e models.MessageUser) bool {
		_, ok := set[e.MessageID]
		return ok
	})
	return nil
}

func (r memLedger) DeleteForUser(userID uint) error {
	r.s.st.ledger = slices.DeleteFunc(r.s.st.ledger, func(e models.MessageUser) bool { return e.UserID == userID })
	return nil
}

type memTokens struct{ s *MemStore }

func (r memTokens) Create(token *models.RefreshToken) error {
	for _, t := range r.s.st.tokens {
		if t.TokenHash == token.TokenHash {
			return gorm.ErrDuplicatedKey
		}
	}
	token.ID = r.s.next("refresh_tokens")
	r.s.st.tokens[token.ID] = *token
	return nil
}

func (r memTokens) FindValidByHash(tokenHash string) (*models.RefreshToken, error) {
	now := time.Now()
	for _, t := range r.s.st.tokens {
		if t.TokenHash == tokenHash && (r.s.StaleTokenReads || !t.IsRevoked()) && !t.IsExpired(now) {
			return &t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memTokens) RevokeByHash(tokenHash string) (int64, error) {
	now := time.Now()
	var n int64
	for id, t := range r.s.st.tokens {
		if t.TokenHash == tokenHash && t.RevokedAt == nil {
			t.RevokedAt = &now
			r.s.st.tokens[id] = t
			n++
		}
	}
	return n, nil
}

func (r memTokens) DeleteForUser(userID uint) error {
	for id, t := range r.s.st.tokens {
		if t.UserID == userID {
			delete(r.s.st.tokens, id)
		}
	}
	return nil
}

// LedgerPairs and RecipientPairs return sorted "message:user" keys for invariant checks.
func (s *MemStore) LedgerPairs() [][2]uint {
	var out [][2]uint
	for _, e := range s.st.ledger {
		out = append(out, [2]uint{e.MessageID, e.UserID})
	}
	sortPairs(out)
	return out
}

func (s *MemStore) RecipientPairs() [][2]uint {
	var out [][2]uint
	for _, r := range s.st.recipients {
		out = append(out, [2]uint{r.MessageID, r.UserID})
	}
	sortPairs(out)
	return out
}

func sortPairs(p [][2]uint) {
	sort.Slice(p, func(i, j int) bool {
		if p[i][0] != p[j][0] {
			return p[i][0] < p[j][0]
		}
		return p[i][1] < p[j][1]
	})
}

// TokenCount returns the number of stored refresh tokens, revoked ones included.
func (s *MemStore) TokenCount() int {
	return len(s.st.tokens)
}

func idSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
