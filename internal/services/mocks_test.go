package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/ukydev/roadside-assist/internal/db"
	"github.com/ukydev/roadside-assist/internal/events"
	"github.com/ukydev/roadside-assist/internal/models"
	"github.com/ukydev/roadside-assist/internal/payment"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func nullLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

// MockServiceRequestCollection is a mock implementation of ServiceRequestCollection
type MockServiceRequestCollection struct {
	mock.Mock
}

func (m *MockServiceRequestCollection) InsertServiceRequest(ctx context.Context, req *models.ServiceRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockServiceRequestCollection) FindServiceRequestByID(ctx context.Context, id string) (*models.ServiceRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceRequest), args.Error(1)
}

func (m *MockServiceRequestCollection) FindServiceRequests(ctx context.Context, filter bson.M) ([]models.ServiceRequest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ServiceRequest), args.Error(1)
}

func (m *MockServiceRequestCollection) UpdateServiceRequestStatus(ctx context.Context, id string, expectedVersion int64, status models.RequestStatus, price *float64) (*models.ServiceRequest, error) {
	args := m.Called(ctx, id, expectedVersion, status, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceRequest), args.Error(1)
}

// MockPaymentCollection is a mock implementation of PaymentCollection
type MockPaymentCollection struct {
	mock.Mock
}

func (m *MockPaymentCollection) InsertPayment(ctx context.Context, p *models.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentCollection) FindPaymentByID(ctx context.Context, id string) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentCollection) FindPayments(ctx context.Context, filter bson.M) ([]models.Payment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Payment), args.Error(1)
}

func (m *MockPaymentCollection) UpdatePaymentStatus(ctx context.Context, id string, from, to models.PaymentStatus, transactionID string) (*models.Payment, error) {
	args := m.Called(ctx, id, from, to, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

// MockProfileCollection is a mock implementation of ProfileCollection
type MockProfileCollection struct {
	mock.Mock
}

func (m *MockProfileCollection) UpsertProfile(ctx context.Context, input models.UpsertUserInput) (*models.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockProfileCollection) FindProfileBySupabaseID(ctx context.Context, supabaseID string) (*models.User, error) {
	args := m.Called(ctx, supabaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockConfigCollection is a mock implementation of ConfigCollection
type MockConfigCollection struct {
	mock.Mock
}

func (m *MockConfigCollection) GetConfig(ctx context.Context, key string) (*models.ConfigEntry, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ConfigEntry), args.Error(1)
}

func (m *MockConfigCollection) SetConfig(ctx context.Context, key, value string) (*models.ConfigEntry, error) {
	args := m.Called(ctx, key, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ConfigEntry), args.Error(1)
}

func (m *MockConfigCollection) ListConfig(ctx context.Context) ([]models.ConfigEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConfigEntry), args.Error(1)
}

// MockGateway is a mock implementation of payment.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Name() string { return "mock" }

func (m *MockGateway) CreateIntent(ctx context.Context, amount float64, currency string) (*models.PaymentIntent, error) {
	args := m.Called(ctx, amount, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

func (m *MockGateway) Charge(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.ChargeResult), args.Error(1)
}

// MockKeyStore is a mock implementation of idempotency.Store
type MockKeyStore struct {
	mock.Mock
}

func (m *MockKeyStore) Begin(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockKeyStore) Complete(ctx context.Context, key, paymentID string) error {
	args := m.Called(ctx, key, paymentID)
	return args.Error(0)
}

func (m *MockKeyStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// memRequests is an in-memory ServiceRequestCollection with the same
// versioning rules as the Mongo one.
type memRequests struct {
	mu    sync.Mutex
	items map[string]models.ServiceRequest
	clock time.Time
}

func newMemRequests() *memRequests {
	return &memRequests{
		items: map[string]models.ServiceRequest{},
		clock: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *memRequests) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memRequests) InsertServiceRequest(_ context.Context, req *models.ServiceRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.tick()
	req.ID = primitive.NewObjectID()
	req.Version = 1
	req.CreatedAt = now
	req.UpdatedAt = now
	s.items[req.ID.Hex()] = *req
	return nil
}

func (s *memRequests) FindServiceRequestByID(_ context.Context, id string) (*models.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.items[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &req, nil
}

func (s *memRequests) FindServiceRequests(_ context.Context, filter bson.M) ([]models.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ServiceRequest
	userID, byUser := filter["user_id"].(string)
	for _, req := range s.items {
		if byUser && req.UserID != userID {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out, nil
}

func (s *memRequests) UpdateServiceRequestStatus(_ context.Context, id string, expectedVersion int64, status models.RequestStatus, price *float64) (*models.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.items[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	if req.Version != expectedVersion {
		return nil, db.ErrVersionConflict
	}
	req.Status = status
	if price != nil {
		req.Price = *price
	}
	req.Version++
	req.UpdatedAt = s.tick()
	s.items[id] = req
	return &req, nil
}

func (s *memRequests) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
