package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/upkeephq/upkeep/internal/domain"
	"github.com/upkeephq/upkeep/internal/handler"
	"github.com/upkeephq/upkeep/internal/infrastructure/logger"
	"github.com/upkeephq/upkeep/internal/security/auth"
	"github.com/upkeephq/upkeep/internal/security/middleware"
	"github.com/upkeephq/upkeep/internal/service"
)

// TestServerHelper runs the full HTTP surface against in-memory stores, so
// flow tests exercise real handlers, services, and auth middleware without a
// running Postgres or Redis.
type TestServerHelper struct {
	Server   *httptest.Server
	Requests *memRequestRepo
}

func NewTestServer(t *testing.T) *TestServerHelper {
	t.Helper()

	log := logger.NewLogger("error")

	profiles := newMemProfileRepo()
	properties := newMemPropertyRepo()
	requests := newMemRequestRepo()
	workers := newMemWorkerRepo()
	ratings := newMemRatingRepo()

	tokens := auth.NewTokenManager("test-secret-key", "upkeep-test")

	authService := service.NewAuthService(profiles, tokens, nil, "upkeep.local", log)
	requestService := service.NewRequestService(requests, properties, profiles, workers, nil, nil, log)
	ratingService := service.NewRatingService(ratings, requests, workers, nil, log)
	propertyService := service.NewPropertyService(properties, profiles, nil, time.Second, log)
	workerService := service.NewWorkerService(workers, nil, time.Second, log)
	invoiceService := service.NewInvoiceService(requests, profiles, properties, workers, log)

	authHandler := handler.NewAuthHandler(authService, log)
	requestHandler := handler.NewRequestHandler(requestService, log)
	transitionHandler := handler.NewTransitionHandler(requestService, log)
	ratingHandler := handler.NewRatingHandler(ratingService, log)
	propertyHandler := handler.NewPropertyHandler(propertyService, log)
	workerHandler := handler.NewWorkerHandler(workerService, log)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, requestService, log)
	healthHandler := handler.NewHealthHandler(nil, nil, log)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /api/auth/change-password", authHandler.ChangePassword)
	mux.HandleFunc("POST /api/requests", requestHandler.Create)
	mux.HandleFunc("GET /api/requests", requestHandler.List)
	mux.HandleFunc("GET /api/requests/{id}", requestHandler.Get)
	mux.HandleFunc("POST /api/requests/{id}/assign", transitionHandler.Assign)
	mux.HandleFunc("POST /api/requests/{id}/approve", transitionHandler.Approve)
	mux.HandleFunc("POST /api/requests/{id}/deny", transitionHandler.Deny)
	mux.HandleFunc("POST /api/requests/{id}/complete", transitionHandler.Complete)
	mux.HandleFunc("GET /api/requests/{id}/invoice", invoiceHandler.Render)
	mux.HandleFunc("GET /api/invoices", invoiceHandler.ListEligible)
	mux.HandleFunc("POST /api/requests/{id}/ratings", ratingHandler.Submit)
	mux.HandleFunc("GET /api/workers/{id}/ratings", ratingHandler.ListByWorker)
	mux.HandleFunc("POST /api/properties", propertyHandler.Create)
	mux.HandleFunc("GET /api/properties", propertyHandler.List)
	mux.HandleFunc("POST /api/properties/{id}/tenant", propertyHandler.AssignTenant)
	mux.HandleFunc("POST /api/workers", workerHandler.Create)
	mux.HandleFunc("GET /api/workers", workerHandler.List)
	mux.HandleFunc("POST /api/workers/{id}/favorite", workerHandler.ToggleFavorite)
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)

	root := middleware.JWTMiddleware(tokens, log)(mux)
	server := httptest.NewServer(root)

	return &TestServerHelper{
		Server:   server,
		Requests: requests,
	}
}

func (h *TestServerHelper) Close() {
	h.Server.Close()
}

func (h *TestServerHelper) URL() string {
	return h.Server.URL
}

// Session holds the tokens a flow test acts with
type Session struct {
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token"`
}

// Register creates an account and returns its session
func (h *TestServerHelper) Register(t *testing.T, username, role string) *Session {
	t.Helper()

	resp := h.Do(t, "", http.MethodPost, "/api/auth/register", map[string]string{
		"username": username,
		"password": "supersecret",
		"role":     role,
		"name":     username,
	})
	defer resp.Body.Close()
	AssertStatusCode(t, resp, http.StatusCreated)

	session := &Session{}
	if err := json.NewDecoder(resp.Body).Decode(session); err != nil {
		t.Fatalf("failed to decode session: %v", err)
	}
	return session
}

// Do issues a request, attaching the token when one is given
func (h *TestServerHelper) Do(t *testing.T, token, method, path string, payload interface{}) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to encode payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, h.Server.URL+path, body)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// DecodeBody decodes a JSON response body into out and closes the body
func DecodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

// AssertStatusCode helper function
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status %d, got %d: %s", expected, resp.StatusCode, string(body))
	}
}

// In-memory repositories backing the test server.

type memProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*domain.Profile
	nextID   int
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{profiles: map[string]*domain.Profile{}}
}

func (m *memProfileRepo) Create(p *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		m.nextID++
		p.ID = fmt.Sprintf("profile-%d", m.nextID)
	}
	cp := *p
	m.profiles[p.ID] = &cp
	return nil
}

func (m *memProfileRepo) GetByID(id string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProfileRepo) GetByUsername(username string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.Username == username {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memProfileRepo) Update(p *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	m.profiles[p.ID] = &cp
	return nil
}

func (m *memProfileRepo) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, id)
	return nil
}

func (m *memProfileRepo) GetActiveTenantByProperty(propertyID string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.Role == domain.RoleTenant && p.IsActive && p.PropertyID != nil && *p.PropertyID == propertyID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memProfileRepo) ListByRole(role domain.Role) ([]*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Profile{}
	for _, p := range m.profiles {
		if p.Role == role {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memPropertyRepo struct {
	mu         sync.Mutex
	properties map[string]*domain.Property
	nextID     int
}

func newMemPropertyRepo() *memPropertyRepo {
	return &memPropertyRepo{properties: map[string]*domain.Property{}}
}

func (m *memPropertyRepo) Create(p *domain.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		m.nextID++
		p.ID = fmt.Sprintf("property-%d", m.nextID)
	}
	cp := *p
	m.properties[p.ID] = &cp
	return nil
}

func (m *memPropertyRepo) GetByID(id string) (*domain.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.properties[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPropertyRepo) Update(p *domain.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.properties[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	m.properties[p.ID] = &cp
	return nil
}

func (m *memPropertyRepo) List() ([]*domain.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Property{}
	for _, p := range m.properties {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memPropertyRepo) ListByLandlord(landlordID string) ([]*domain.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Property{}
	for _, p := range m.properties {
		if p.LandlordID == landlordID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*domain.MaintenanceRequest
	nextID   int
}

func newMemRequestRepo() *memRequestRepo {
	return &memRequestRepo{requests: map[string]*domain.MaintenanceRequest{}}
}

func (m *memRequestRepo) Create(r *domain.MaintenanceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		m.nextID++
		r.ID = fmt.Sprintf("request-%d", m.nextID)
	}
	cp := *r
	m.requests[r.ID] = &cp
	return nil
}

func (m *memRequestRepo) GetByID(id string) (*domain.MaintenanceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRequestRepo) Update(r *domain.MaintenanceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[r.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *r
	m.requests[r.ID] = &cp
	return nil
}

func (m *memRequestRepo) List() ([]*domain.MaintenanceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.MaintenanceRequest{}
	for _, r := range m.requests {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memRequestRepo) ListByTenant(tenantID string) ([]*domain.MaintenanceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.MaintenanceRequest{}
	for _, r := range m.requests {
		if r.TenantID == tenantID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRequestRepo) ListByProperties(propertyIDs []string) ([]*domain.MaintenanceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := map[string]bool{}
	for _, id := range propertyIDs {
		wanted[id] = true
	}
	out := []*domain.MaintenanceRequest{}
	for _, r := range m.requests {
		if wanted[r.PropertyID] {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRequestRepo) CountByStatus(status domain.Status) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, r := range m.requests {
		if r.Status == status {
			count++
		}
	}
	return count, nil
}

type memWorkerRepo struct {
	mu      sync.Mutex
	workers map[string]*domain.Worker
	nextID  int
}

func newMemWorkerRepo() *memWorkerRepo {
	return &memWorkerRepo{workers: map[string]*domain.Worker{}}
}

func (m *memWorkerRepo) Create(w *domain.Worker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w.ID == "" {
		m.nextID++
		w.ID = fmt.Sprintf("worker-%d", m.nextID)
	}
	cp := *w
	m.workers[w.ID] = &cp
	return nil
}

func (m *memWorkerRepo) GetByID(id string) (*domain.Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *memWorkerRepo) Update(w *domain.Worker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workers[w.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *w
	m.workers[w.ID] = &cp
	return nil
}

func (m *memWorkerRepo) List() ([]*domain.Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Worker{}
	for _, w := range m.workers {
		cp := *w
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memWorkerRepo) ListByCategory(category string) ([]*domain.Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Worker{}
	for _, w := range m.workers {
		if w.Category == category {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memRatingRepo struct {
	mu      sync.Mutex
	ratings map[string]*domain.WorkerRating
	nextID  int
}

func newMemRatingRepo() *memRatingRepo {
	return &memRatingRepo{ratings: map[string]*domain.WorkerRating{}}
}

func ratingKey(requestID, raterID string, raterType domain.RaterType) string {
	return requestID + "|" + raterID + "|" + string(raterType)
}

func (m *memRatingRepo) Create(r *domain.WorkerRating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		m.nextID++
		r.ID = fmt.Sprintf("rating-%d", m.nextID)
	}
	cp := *r
	m.ratings[ratingKey(r.RequestID, r.RaterID, r.RaterType)] = &cp
	return nil
}

func (m *memRatingRepo) Update(r *domain.WorkerRating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ratingKey(r.RequestID, r.RaterID, r.RaterType)
	if _, ok := m.ratings[key]; !ok {
		return domain.ErrNotFound
	}
	cp := *r
	m.ratings[key] = &cp
	return nil
}

func (m *memRatingRepo) GetByRequestAndRater(requestID, raterID string, raterType domain.RaterType) (*domain.WorkerRating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ratings[ratingKey(requestID, raterID, raterType)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRatingRepo) ListByWorker(workerID string) ([]*domain.WorkerRating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.WorkerRating{}
	for _, r := range m.ratings {
		if r.WorkerID == workerID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}
