package service

import (
	"fmt"
	"sync"

	"github.com/upkeephq/upkeep/internal/domain"
)

// In-memory repository fakes shared by the service tests.

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*domain.Profile
	nextID   int
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: map[string]*domain.Profile{}}
}

func (f *fakeProfileRepo) Create(p *domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == "" {
		f.nextID++
		p.ID = fmt.Sprintf("profile-%d", f.nextID)
	}
	cp := *p
	f.profiles[p.ID] = &cp
	return nil
}

func (f *fakeProfileRepo) GetByID(id string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfileRepo) GetByUsername(username string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.Username == username {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProfileRepo) Update(p *domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	f.profiles[p.ID] = &cp
	return nil
}

func (f *fakeProfileRepo) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.profiles, id)
	return nil
}

func (f *fakeProfileRepo) GetActiveTenantByProperty(propertyID string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.Role == domain.RoleTenant && p.IsActive && p.PropertyID != nil && *p.PropertyID == propertyID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProfileRepo) ListByRole(role domain.Role) ([]*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.Profile{}
	for _, p := range f.profiles {
		if p.Role == role {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakePropertyRepo struct {
	mu         sync.Mutex
	properties map[string]*domain.Property
	nextID     int
}

func newFakePropertyRepo() *fakePropertyRepo {
	return &fakePropertyRepo{properties: map[string]*domain.Property{}}
}

func (f *fakePropertyRepo) Create(p *domain.Property) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == "" {
		f.nextID++
		p.ID = fmt.Sprintf("property-%d", f.nextID)
	}
	cp := *p
	f.properties[p.ID] = &cp
	return nil
}

func (f *fakePropertyRepo) GetByID(id string) (*domain.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.properties[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePropertyRepo) Update(p *domain.Property) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.properties[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	f.properties[p.ID] = &cp
	return nil
}

func (f *fakePropertyRepo) List() ([]*domain.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.Property{}
	for _, p := range f.properties {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakePropertyRepo) ListByLandlord(landlordID string) ([]*domain.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.Property{}
	for _, p := range f.properties {
		if p.LandlordID == landlordID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*domain.MaintenanceRequest
	nextID   int
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: map[string]*domain.MaintenanceRequest{}}
}

func (f *fakeRequestRepo) Create(r *domain.MaintenanceRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID == "" {
		f.nextID++
		r.ID = fmt.Sprintf("request-%d", f.nextID)
	}
	cp := *r
	f.requests[r.ID] = &cp
	return nil
}

func (f *fakeRequestRepo) rowCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeRequestRepo) GetByID(id string) (*domain.MaintenanceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRequestRepo) Update(r *domain.MaintenanceRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.requests[r.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *r
	f.requests[r.ID] = &cp
	return nil
}

func (f *fakeRequestRepo) List() ([]*domain.MaintenanceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.MaintenanceRequest{}
	for _, r := range f.requests {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeRequestRepo) ListByTenant(tenantID string) ([]*domain.MaintenanceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.MaintenanceRequest{}
	for _, r := range f.requests {
		if r.TenantID == tenantID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRequestRepo) ListByProperties(propertyIDs []string) ([]*domain.MaintenanceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := map[string]bool{}
	for _, id := range propertyIDs {
		wanted[id] = true
	}
	out := []*domain.MaintenanceRequest{}
	for _, r := range f.requests {
		if wanted[r.PropertyID] {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRequestRepo) CountByStatus(status domain.Status) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, r := range f.requests {
		if r.Status == status {
			count++
		}
	}
	return count, nil
}

type fakeWorkerRepo struct {
	mu      sync.Mutex
	workers map[string]*domain.Worker
	nextID  int
}

func newFakeWorkerRepo() *fakeWorkerRepo {
	return &fakeWorkerRepo{workers: map[string]*domain.Worker{}}
}

func (f *fakeWorkerRepo) Create(w *domain.Worker) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w.ID == "" {
		f.nextID++
		w.ID = fmt.Sprintf("worker-%d", f.nextID)
	}
	cp := *w
	f.workers[w.ID] = &cp
	return nil
}

func (f *fakeWorkerRepo) GetByID(id string) (*domain.Worker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.workers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (f *fakeWorkerRepo) Update(w *domain.Worker) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.workers[w.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *w
	f.workers[w.ID] = &cp
	return nil
}

func (f *fakeWorkerRepo) List() ([]*domain.Worker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.Worker{}
	for _, w := range f.workers {
		cp := *w
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeWorkerRepo) ListByCategory(category string) ([]*domain.Worker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.Worker{}
	for _, w := range f.workers {
		if w.Category == category {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

// fakeRatingRepo counts store calls so tests can assert validation happens
// before any write.
type fakeRatingRepo struct {
	mu          sync.Mutex
	ratings     map[string]*domain.WorkerRating
	nextID      int
	createCalls int
	updateCalls int
	lookupCalls int
}

func newFakeRatingRepo() *fakeRatingRepo {
	return &fakeRatingRepo{ratings: map[string]*domain.WorkerRating{}}
}

func ratingKey(requestID, raterID string, raterType domain.RaterType) string {
	return requestID + "|" + raterID + "|" + string(raterType)
}

func (f *fakeRatingRepo) Create(r *domain.WorkerRating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if r.ID == "" {
		f.nextID++
		r.ID = fmt.Sprintf("rating-%d", f.nextID)
	}
	cp := *r
	f.ratings[ratingKey(r.RequestID, r.RaterID, r.RaterType)] = &cp
	return nil
}

func (f *fakeRatingRepo) Update(r *domain.WorkerRating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	key := ratingKey(r.RequestID, r.RaterID, r.RaterType)
	if _, ok := f.ratings[key]; !ok {
		return domain.ErrNotFound
	}
	cp := *r
	f.ratings[key] = &cp
	return nil
}

func (f *fakeRatingRepo) GetByRequestAndRater(requestID, raterID string, raterType domain.RaterType) (*domain.WorkerRating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookupCalls++
	r, ok := f.ratings[ratingKey(requestID, raterID, raterType)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRatingRepo) ListByWorker(workerID string) ([]*domain.WorkerRating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.WorkerRating{}
	for _, r := range f.ratings {
		if r.WorkerID == workerID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRatingRepo) storeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls + f.updateCalls + f.lookupCalls
}

func (f *fakeRatingRepo) rowCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ratings)
}
