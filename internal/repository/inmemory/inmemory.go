// Package inmemory holds map-backed repositories used by service tests and local dry runs.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/customeros/cardstack/interfaces"
	"github.com/customeros/cardstack/internal/models"
	"github.com/customeros/cardstack/internal/utils"
)

var ErrNotFound = errors.New("not found")

var (
	_ interfaces.ContactRepository       = (*ContactRepository)(nil)
	_ interfaces.HistoryRepository       = (*HistoryRepository)(nil)
	_ interfaces.TenantProfileRepository = (*TenantProfileRepository)(nil)
	_ interfaces.ContactImportRepository = (*ContactImportRepository)(nil)
)

type ContactRepository struct {
	mu       sync.Mutex
	contacts map[string]*models.Contact
	// UpsertErr, when set, is returned for the matching email.
	UpsertErr map[string]error
}

func NewContactRepository() *ContactRepository {
	return &ContactRepository{contacts: map[string]*models.Contact{}, UpsertErr: map[string]error{}}
}

func (r *ContactRepository) Add(contact models.Contact) *models.Contact {
	r.mu.Lock()
	defer r.mu.Unlock()
	if contact.ID == "" {
		contact.ID = utils.GenerateNanoIDWithPrefix("cntc", 16)
	}
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = utils.Now()
	}
	stored := contact
	r.contacts[contact.ID] = &stored
	copied := stored
	return &copied
}

func (r *ContactRepository) All() []models.Contact {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Contact, 0, len(r.contacts))
	for _, c := range r.contacts {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

func (r *ContactRepository) GetByID(_ context.Context, tenant, id string) (*models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok || c.Tenant != tenant {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (r *ContactRepository) GetByEmail(_ context.Context, tenant, email string) (*models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findByEmail(tenant, email), nil
}

func (r *ContactRepository) findByEmail(tenant, email string) *models.Contact {
	for _, c := range r.contacts {
		if c.Tenant == tenant && c.Email == email {
			copied := *c
			return &copied
		}
	}
	return nil
}

func (r *ContactRepository) List(_ context.Context, tenant string, limit, offset int) ([]models.Contact, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Contact
	for _, c := range r.contacts {
		if c.Tenant == tenant {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	return page(out, limit, offset), total, nil
}

func (r *ContactRepository) Upsert(_ context.Context, tenant, email string, merge interfaces.ContactMergeFunc) (*models.Contact, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.UpsertErr[email]; err != nil {
		return nil, false, err
	}

	existing := r.findByEmail(tenant, email)
	merged := merge(existing)
	if merged == nil {
		return nil, false, errors.New("merge returned no contact")
	}
	merged.Tenant = tenant
	merged.Email = email
	if existing == nil {
		merged.ID = utils.GenerateNanoIDWithPrefix("cntc", 16)
		merged.CreatedAt = utils.Now()
		merged.UpdatedAt = merged.CreatedAt
		stored := *merged
		r.contacts[merged.ID] = &stored
		return merged, true, nil
	}
	merged.ID = existing.ID
	merged.UpdatedAt = utils.Now()
	stored := *merged
	r.contacts[merged.ID] = &stored
	return merged, false, nil
}

func (r *ContactRepository) Update(_ context.Context, contact *models.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[contact.ID]
	if !ok || c.Tenant != contact.Tenant {
		return ErrNotFound
	}
	stored := *contact
	r.contacts[contact.ID] = &stored
	return nil
}

func (r *ContactRepository) Delete(_ context.Context, tenant, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok || c.Tenant != tenant {
		return ErrNotFound
	}
	delete(r.contacts, id)
	return nil
}

func (r *ContactRepository) DeleteMany(_ context.Context, tenant string, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for _, id := range ids {
		if c, ok := r.contacts[id]; ok && c.Tenant == tenant {
			delete(r.contacts, id)
			deleted++
		}
	}
	return deleted, nil
}

type HistoryRepository struct {
	mu      sync.Mutex
	entries []models.History
	// CreateErr, when set, fails every Create.
	CreateErr error
}

func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{}
}

func (r *HistoryRepository) All() []models.History {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.History(nil), r.entries...)
}

func (r *HistoryRepository) Create(_ context.Context, entry *models.History) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return r.CreateErr
	}
	if entry.ID == "" {
		entry.ID = utils.GenerateNanoIDWithPrefix("hist", 16)
	}
	if entry.SentAt.IsZero() {
		entry.SentAt = utils.Now()
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *HistoryRepository) CountSince(_ context.Context, tenant string, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, e := range r.entries {
		if e.Tenant == tenant && !e.SentAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *HistoryRepository) List(_ context.Context, tenant string, limit, offset int) ([]models.History, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.History
	for _, e := range r.entries {
		if e.Tenant == tenant {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	total := int64(len(out))
	return page(out, limit, offset), total, nil
}

func (r *HistoryRepository) DeleteMany(_ context.Context, tenant string, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []models.History
	var deleted int64
	for _, e := range r.entries {
		if e.Tenant == tenant && utils.Contains(ids, e.ID) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return deleted, nil
}

type TenantProfileRepository struct {
	mu       sync.Mutex
	profiles map[string]models.TenantProfile
}

func NewTenantProfileRepository(profiles ...models.TenantProfile) *TenantProfileRepository {
	r := &TenantProfileRepository{profiles: map[string]models.TenantProfile{}}
	for _, p := range profiles {
		r.profiles[p.Tenant] = p
	}
	return r
}

func (r *TenantProfileRepository) GetByTenant(_ context.Context, tenant string) (*models.TenantProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[tenant]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *TenantProfileRepository) Save(_ context.Context, profile *models.TenantProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.Tenant] = *profile
	return nil
}

func (r *TenantProfileRepository) List(_ context.Context) ([]models.TenantProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.TenantProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tenant < out[j].Tenant })
	return out, nil
}

type ContactImportRepository struct {
	mu      sync.Mutex
	imports []models.ContactImport
}

func NewContactImportRepository() *ContactImportRepository {
	return &ContactImportRepository{}
}

func (r *ContactImportRepository) Create(_ context.Context, contactImport *models.ContactImport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if contactImport.ID == "" {
		contactImport.ID = utils.GenerateNanoIDWithPrefix("imp", 16)
	}
	r.imports = append(r.imports, *contactImport)
	return nil
}

func (r *ContactImportRepository) ListByTenant(_ context.Context, tenant string, limit int) ([]models.ContactImport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ContactImport
	for i := len(r.imports) - 1; i >= 0; i-- {
		if r.imports[i].Tenant == tenant {
			out = append(out, r.imports[i])
		}
	}
	return page(out, limit, 0), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
