package application

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ericfisherdev/gatekeep/internal/domain/model"
)

// --- In-memory port implementations for service tests ---

type memSiteStore struct {
	sites map[string]model.SiteCredential
	err   error
}

func newMemSiteStore(creds ...model.SiteCredential) *memSiteStore {
	s := &memSiteStore{sites: make(map[string]model.SiteCredential)}
	for _, c := range creds {
		s.sites[c.SiteID] = c
	}
	return s
}

func (m *memSiteStore) GetBySiteID(_ context.Context, siteID string) (*model.SiteCredential, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.sites[siteID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *memSiteStore) Add(_ context.Context, c model.SiteCredential) (model.SiteCredential, error) {
	m.sites[c.SiteID] = c
	return c, nil
}

func (m *memSiteStore) SetActive(_ context.Context, siteID string, active bool) error {
	c, ok := m.sites[siteID]
	if !ok {
		return model.ErrNotFound
	}
	c.Active = active
	m.sites[siteID] = c
	return nil
}

func (m *memSiteStore) ListAll(_ context.Context) ([]model.SiteCredential, error) {
	out := make([]model.SiteCredential, 0, len(m.sites))
	for _, c := range m.sites {
		out = append(out, c)
	}
	return out, nil
}

// memTokenStore mirrors the SQLite ledger semantics against an injectable clock.
type memTokenStore struct {
	mu     sync.Mutex
	tokens map[string]model.IssuedToken
	now    func() time.Time
	err    error
}

func newMemTokenStore(now func() time.Time) *memTokenStore {
	return &memTokenStore{tokens: make(map[string]model.IssuedToken), now: now}
}

func (m *memTokenStore) Record(_ context.Context, t model.IssuedToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.tokens[t.Value] = t
	return nil
}

func (m *memTokenStore) Get(_ context.Context, value string) (*model.IssuedToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.tokens[value]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *memTokenStore) IsValid(_ context.Context, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[value]
	return ok && t.ExpiresAt.After(m.now()), nil
}

func (m *memTokenStore) Revoke(_ context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, value)
	return nil
}

func (m *memTokenStore) ListBySubject(_ context.Context, userID string) ([]model.IssuedToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.IssuedToken
	for _, t := range m.tokens {
		if t.SubjectUserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.After(out[j].IssuedAt) })
	return out, nil
}

func (m *memTokenStore) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, t := range m.tokens {
		if !t.ExpiresAt.After(before) {
			delete(m.tokens, k)
			n++
		}
	}
	return n, nil
}

type memUserStore struct {
	users     map[string]model.UserAccount
	createErr error
	creates   int
}

func newMemUserStore(users ...model.UserAccount) *memUserStore {
	s := &memUserStore{users: make(map[string]model.UserAccount)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (m *memUserStore) Create(_ context.Context, u model.UserAccount) error {
	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	m.users[u.ID] = u
	return nil
}

func (m *memUserStore) GetByID(_ context.Context, id string) (*model.UserAccount, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *memUserStore) GetByUsername(_ context.Context, username string) (*model.UserAccount, error) {
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memUserStore) UsernameExists(_ context.Context, username string) (bool, error) {
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserStore) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserStore) TouchLastAccess(_ context.Context, id string, at time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return model.ErrNotFound
	}
	u.LastAccessAt = &at
	m.users[id] = u
	return nil
}

type memRoleStore struct {
	roles map[int64]model.Role
}

func newMemRoleStore() *memRoleStore {
	return &memRoleStore{roles: map[int64]model.Role{
		1: {ID: 1, Name: "admin", Active: true},
		2: {ID: 2, Name: "user", Active: true},
		3: {ID: 3, Name: "retired", Active: false},
	}}
}

func (m *memRoleStore) GetByID(_ context.Context, id int64) (*model.Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memRoleStore) Add(_ context.Context, r model.Role) (model.Role, error) {
	r.ID = int64(len(m.roles) + 1)
	m.roles[r.ID] = r
	return r, nil
}

func (m *memRoleStore) ListAll(_ context.Context) ([]model.Role, error) {
	out := make([]model.Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, r)
	}
	return out, nil
}

type memCustomerStore struct {
	customers map[int64]model.Customer
	nextID    int64
	updates   int
}

func newMemCustomerStore(customers ...model.Customer) *memCustomerStore {
	s := &memCustomerStore{customers: make(map[int64]model.Customer)}
	for _, c := range customers {
		s.customers[c.ID] = c
		if c.ID > s.nextID {
			s.nextID = c.ID
		}
	}
	return s
}

func (m *memCustomerStore) Create(_ context.Context, c model.Customer) (model.Customer, error) {
	m.nextID++
	c.ID = m.nextID
	m.customers[c.ID] = c
	return c, nil
}

func (m *memCustomerStore) GetByID(_ context.Context, id int64) (*model.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *memCustomerStore) List(_ context.Context, req model.PageRequest) (model.Page[model.Customer], error) {
	page := model.Page[model.Customer]{Items: []model.Customer{}, Page: req.Page, PageSize: req.PageSize}
	for _, c := range m.customers {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(req.Query)) {
			page.Items = append(page.Items, c)
		}
	}
	page.Total = len(page.Items)
	return page, nil
}

func (m *memCustomerStore) Update(_ context.Context, c model.Customer) error {
	if _, ok := m.customers[c.ID]; !ok {
		return model.ErrNotFound
	}
	m.updates++
	m.customers[c.ID] = c
	return nil
}

func (m *memCustomerStore) Delete(_ context.Context, id int64) error {
	if _, ok := m.customers[id]; !ok {
		return model.ErrNotFound
	}
	delete(m.customers, id)
	return nil
}

type memPostStore struct {
	posts   map[int64]model.Post
	nextID  int64
	updates int
}

func newMemPostStore(posts ...model.Post) *memPostStore {
	s := &memPostStore{posts: make(map[int64]model.Post)}
	for _, p := range posts {
		s.posts[p.ID] = p
		if p.ID > s.nextID {
			s.nextID = p.ID
		}
	}
	return s
}

func (m *memPostStore) Create(_ context.Context, p model.Post) (model.Post, error) {
	m.nextID++
	p.ID = m.nextID
	m.posts[p.ID] = p
	return p, nil
}

func (m *memPostStore) GetByID(_ context.Context, id int64) (*model.Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memPostStore) List(_ context.Context, req model.PageRequest) (model.Page[model.Post], error) {
	page := model.Page[model.Post]{Items: []model.Post{}, Page: req.Page, PageSize: req.PageSize}
	for _, p := range m.posts {
		page.Items = append(page.Items, p)
	}
	page.Total = len(page.Items)
	return page, nil
}

func (m *memPostStore) Search(_ context.Context, term string) ([]model.Post, error) {
	out := []model.Post{}
	for _, p := range m.posts {
		if strings.Contains(p.Title, term) || strings.Contains(p.Body, term) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPostStore) ListByCustomer(_ context.Context, customerID int64) ([]model.Post, error) {
	out := []model.Post{}
	for _, p := range m.posts {
		if p.CustomerID == customerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPostStore) Update(_ context.Context, p model.Post) error {
	if _, ok := m.posts[p.ID]; !ok {
		return model.ErrNotFound
	}
	m.updates++
	m.posts[p.ID] = p
	return nil
}

func (m *memPostStore) Delete(_ context.Context, id int64) error {
	if _, ok := m.posts[id]; !ok {
		return model.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

// fakeClock is a manually advanced clock shared by services under test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
