package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/mgrendahl/tackle/pkg/crm"
)

// NewMemoryStores returns a full set of in-memory repositories. Used by
// the dev server and throughout the tests; nothing survives a restart.
func NewMemoryStores() *Stores {
	return &Stores{
		Contacts:    NewMemoryContactStore(),
		Leads:       NewMemoryLeadStore(),
		Deals:       NewMemoryDealStore(),
		Accounts:    NewMemoryAccountStore(),
		Templates:   NewMemoryTemplateStore(),
		Preferences: NewMemoryPreferenceStore(),
		Activities:  NewMemoryActivityStore(),
	}
}

// =============================================================================
// Contacts
// =============================================================================

// MemoryContactStore keeps contacts in a mutex-guarded map.
type MemoryContactStore struct {
	mu    sync.RWMutex
	items map[string]crm.Contact
}

// NewMemoryContactStore creates an empty in-memory contact store.
func NewMemoryContactStore() *MemoryContactStore {
	return &MemoryContactStore{items: make(map[string]crm.Contact)}
}

func (s *MemoryContactStore) Create(_ context.Context, c crm.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[c.ID]; ok {
		return ErrConflict
	}
	for _, existing := range s.items {
		if existing.OwnerID == c.OwnerID && strings.EqualFold(existing.Email, c.Email) {
			return ErrConflict
		}
	}
	s.items[c.ID] = c
	return nil
}

func (s *MemoryContactStore) Get(_ context.Context, ownerID, id string) (crm.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.items[id]
	if !ok || c.OwnerID != ownerID {
		return crm.Contact{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryContactStore) GetByEmail(_ context.Context, ownerID, email string) (crm.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.items {
		if c.OwnerID == ownerID && strings.EqualFold(c.Email, email) {
			return c, nil
		}
	}
	return crm.Contact{}, ErrNotFound
}

func (s *MemoryContactStore) Update(_ context.Context, c crm.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[c.ID]
	if !ok || existing.OwnerID != c.OwnerID {
		return ErrNotFound
	}
	for id, other := range s.items {
		if id != c.ID && other.OwnerID == c.OwnerID && strings.EqualFold(other.Email, c.Email) {
			return ErrConflict
		}
	}
	s.items[c.ID] = c
	return nil
}

func (s *MemoryContactStore) Delete(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.items[id]
	if !ok || c.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *MemoryContactStore) List(_ context.Context, ownerID string, f ContactFilter) ([]crm.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]crm.Contact, 0)
	search := strings.ToLower(f.Search)
	for _, c := range s.items {
		if c.OwnerID != ownerID {
			continue
		}
		if f.AccountID != "" && c.AccountID != f.AccountID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(c.FullName()), search) &&
			!strings.Contains(strings.ToLower(c.Email), search) {
			continue
		}
		out = append(out, c)
	}

	slices.SortFunc(out, func(a, b crm.Contact) int {
		if c := strings.Compare(strings.ToLower(a.LastName), strings.ToLower(b.LastName)); c != 0 {
			return c
		}
		if c := strings.Compare(strings.ToLower(a.FirstName), strings.ToLower(b.FirstName)); c != 0 {
			return c
		}
		return strings.Compare(a.Email, b.Email)
	})
	return out, nil
}

// =============================================================================
// Leads
// =============================================================================

// MemoryLeadStore keeps leads in a mutex-guarded map.
type MemoryLeadStore struct {
	mu    sync.RWMutex
	items map[string]crm.Lead
}

// NewMemoryLeadStore creates an empty in-memory lead store.
func NewMemoryLeadStore() *MemoryLeadStore {
	return &MemoryLeadStore{items: make(map[string]crm.Lead)}
}

func (s *MemoryLeadStore) Create(_ context.Context, l crm.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[l.ID]; ok {
		return ErrConflict
	}
	s.items[l.ID] = l
	return nil
}

func (s *MemoryLeadStore) Get(_ context.Context, ownerID, id string) (crm.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.items[id]
	if !ok || l.OwnerID != ownerID {
		return crm.Lead{}, ErrNotFound
	}
	return l, nil
}

func (s *MemoryLeadStore) Update(_ context.Context, l crm.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[l.ID]
	if !ok || existing.OwnerID != l.OwnerID {
		return ErrNotFound
	}
	s.items[l.ID] = l
	return nil
}

func (s *MemoryLeadStore) Delete(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.items[id]
	if !ok || l.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *MemoryLeadStore) List(_ context.Context, ownerID string, f LeadFilter) ([]crm.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]crm.Lead, 0)
	search := strings.ToLower(f.Search)
	for _, l := range s.items {
		if l.OwnerID != ownerID {
			continue
		}
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(l.FullName()), search) &&
			!strings.Contains(strings.ToLower(l.Email), search) &&
			!strings.Contains(strings.ToLower(l.Company), search) {
			continue
		}
		out = append(out, l)
	}

	sortNewestFirst(out, func(l crm.Lead) (int64, string) { return l.CreatedAt.UnixNano(), l.ID })
	return out, nil
}

// =============================================================================
// Deals
// =============================================================================

// MemoryDealStore keeps deals in a mutex-guarded map.
type MemoryDealStore struct {
	mu    sync.RWMutex
	items map[string]crm.Deal
}

// NewMemoryDealStore creates an empty in-memory deal store.
func NewMemoryDealStore() *MemoryDealStore {
	return &MemoryDealStore{items: make(map[string]crm.Deal)}
}

func (s *MemoryDealStore) Create(_ context.Context, d crm.Deal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[d.ID]; ok {
		return ErrConflict
	}
	s.items[d.ID] = d
	return nil
}

func (s *MemoryDealStore) Get(_ context.Context, ownerID, id string) (crm.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.items[id]
	if !ok || d.OwnerID != ownerID {
		return crm.Deal{}, ErrNotFound
	}
	return d, nil
}

func (s *MemoryDealStore) Update(_ context.Context, d crm.Deal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[d.ID]
	if !ok || existing.OwnerID != d.OwnerID {
		return ErrNotFound
	}
	s.items[d.ID] = d
	return nil
}

func (s *MemoryDealStore) Delete(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.items[id]
	if !ok || d.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *MemoryDealStore) List(_ context.Context, ownerID string, f DealFilter) ([]crm.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]crm.Deal, 0)
	for _, d := range s.items {
		if d.OwnerID != ownerID {
			continue
		}
		if f.Stage != "" && d.Stage != f.Stage {
			continue
		}
		if f.AccountID != "" && d.AccountID != f.AccountID {
			continue
		}
		out = append(out, d)
	}

	sortNewestFirst(out, func(d crm.Deal) (int64, string) { return d.CreatedAt.UnixNano(), d.ID })
	return out, nil
}

// =============================================================================
// Accounts
// =============================================================================

// MemoryAccountStore keeps accounts in a mutex-guarded map.
type MemoryAccountStore struct {
	mu    sync.RWMutex
	items map[string]crm.Account
}

// NewMemoryAccountStore creates an empty in-memory account store.
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{items: make(map[string]crm.Account)}
}

func (s *MemoryAccountStore) Create(_ context.Context, a crm.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[a.ID]; ok {
		return ErrConflict
	}
	s.items[a.ID] = a
	return nil
}

func (s *MemoryAccountStore) Get(_ context.Context, ownerID, id string) (crm.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.items[id]
	if !ok || a.OwnerID != ownerID {
		return crm.Account{}, ErrNotFound
	}
	return a, nil
}

func (s *MemoryAccountStore) Update(_ context.Context, a crm.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[a.ID]
	if !ok || existing.OwnerID != a.OwnerID {
		return ErrNotFound
	}
	s.items[a.ID] = a
	return nil
}

func (s *MemoryAccountStore) Delete(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.items[id]
	if !ok || a.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *MemoryAccountStore) List(_ context.Context, ownerID string, f AccountFilter) ([]crm.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]crm.Account, 0)
	search := strings.ToLower(f.Search)
	for _, a := range s.items {
		if a.OwnerID != ownerID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(a.Name), search) {
			continue
		}
		out = append(out, a)
	}

	slices.SortFunc(out, func(a, b crm.Account) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// =============================================================================
// Templates
// =============================================================================

// MemoryTemplateStore keeps email templates in a mutex-guarded map.
type MemoryTemplateStore struct {
	mu    sync.RWMutex
	items map[string]crm.EmailTemplate
}

// NewMemoryTemplateStore creates an empty in-memory template store.
func NewMemoryTemplateStore() *MemoryTemplateStore {
	return &MemoryTemplateStore{items: make(map[string]crm.EmailTemplate)}
}

func (s *MemoryTemplateStore) Create(_ context.Context, t crm.EmailTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[t.ID]; ok {
		return ErrConflict
	}
	s.items[t.ID] = t
	return nil
}

func (s *MemoryTemplateStore) Get(_ context.Context, ownerID, id string) (crm.EmailTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.items[id]
	if !ok || t.OwnerID != ownerID {
		return crm.EmailTemplate{}, ErrNotFound
	}
	return t, nil
}

func (s *MemoryTemplateStore) Update(_ context.Context, t crm.EmailTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[t.ID]
	if !ok || existing.OwnerID != t.OwnerID {
		return ErrNotFound
	}
	s.items[t.ID] = t
	return nil
}

func (s *MemoryTemplateStore) Delete(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.items[id]
	if !ok || t.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *MemoryTemplateStore) List(_ context.Context, ownerID string) ([]crm.EmailTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]crm.EmailTemplate, 0)
	for _, t := range s.items {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}

	slices.SortFunc(out, func(a, b crm.EmailTemplate) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// =============================================================================
// Preferences
// =============================================================================

// MemoryPreferenceStore keeps preferences in a mutex-guarded map.
type MemoryPreferenceStore struct {
	mu    sync.RWMutex
	items map[string]crm.Preferences
}

// NewMemoryPreferenceStore creates an empty in-memory preference store.
func NewMemoryPreferenceStore() *MemoryPreferenceStore {
	return &MemoryPreferenceStore{items: make(map[string]crm.Preferences)}
}

func (s *MemoryPreferenceStore) Get(_ context.Context, userID string) (crm.Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.items[userID]
	if !ok {
		return crm.Preferences{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryPreferenceStore) Put(_ context.Context, p crm.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[p.UserID] = p
	return nil
}

// =============================================================================
// Activities
// =============================================================================

// MemoryActivityStore keeps the change feed in a mutex-guarded slice.
type MemoryActivityStore struct {
	mu    sync.RWMutex
	items []crm.Activity
}

// NewMemoryActivityStore creates an empty in-memory activity store.
func NewMemoryActivityStore() *MemoryActivityStore {
	return &MemoryActivityStore{}
}

func (s *MemoryActivityStore) Append(_ context.Context, a crm.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append(s.items, a)
	return nil
}

func (s *MemoryActivityStore) List(_ context.Context, ownerID string, f ActivityFilter) ([]crm.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	out := make([]crm.Activity, 0)
	for _, a := range s.items {
		if a.OwnerID != ownerID {
			continue
		}
		if f.RecordType != "" && a.RecordType != f.RecordType {
			continue
		}
		out = append(out, a)
	}

	sortNewestFirst(out, func(a crm.Activity) (int64, string) { return a.At.UnixNano(), a.ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// =============================================================================
// Helpers
// =============================================================================

// sortNewestFirst orders records by descending timestamp, breaking ties
// by ID so listings stay stable between calls.
func sortNewestFirst[T any](items []T, key func(T) (int64, string)) {
	slices.SortFunc(items, func(a, b T) int {
		at, aid := key(a)
		bt, bid := key(b)
		if at != bt {
			if at > bt {
				return -1
			}
			return 1
		}
		return strings.Compare(aid, bid)
	})
}

var _ ContactStore = (*MemoryContactStore)(nil)
var _ LeadStore = (*MemoryLeadStore)(nil)
var _ DealStore = (*MemoryDealStore)(nil)
var _ AccountStore = (*MemoryAccountStore)(nil)
var _ TemplateStore = (*MemoryTemplateStore)(nil)
var _ PreferenceStore = (*MemoryPreferenceStore)(nil)
var _ ActivityStore = (*MemoryActivityStore)(nil)
