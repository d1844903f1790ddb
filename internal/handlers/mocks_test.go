package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/roadside-assist/internal/auth"
	"github.com/ukydev/roadside-assist/internal/models"
)

// MockRequestService is a mock implementation of RequestService
type MockRequestService struct {
	mock.Mock
}

func (m *MockRequestService) Create(ctx context.Context, input models.CreateServiceRequestInput) (*models.ServiceRequest, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceRequest), args.Error(1)
}

func (m *MockRequestService) Get(ctx context.Context, id string) (*models.ServiceRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceRequest), args.Error(1)
}

func (m *MockRequestService) ListForUser(ctx context.Context, userID string) ([]models.ServiceRequest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ServiceRequest), args.Error(1)
}

func (m *MockRequestService) ListAll(ctx context.Context) ([]models.ServiceRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ServiceRequest), args.Error(1)
}

func (m *MockRequestService) UpdateStatus(ctx context.Context, input models.UpdateStatusInput) (*models.ServiceRequest, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceRequest), args.Error(1)
}

// MockPaymentService is a mock implementation of PaymentService
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) CreateIntent(ctx context.Context, input models.CreateIntentInput) (*models.PaymentIntent, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

func (m *MockPaymentService) Process(ctx context.Context, input models.ProcessPaymentInput, key string) (*models.ProcessPaymentResult, error) {
	args := m.Called(ctx, input, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProcessPaymentResult), args.Error(1)
}

func (m *MockPaymentService) Confirm(ctx context.Context, id string, input models.ConfirmPaymentInput) (*models.Payment, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentService) ListForUser(ctx context.Context, userID string) ([]models.Payment, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Payment), args.Error(1)
}

// MockProfileService is a mock implementation of ProfileService
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) Upsert(ctx context.Context, input models.UpsertUserInput) (*models.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockProfileService) Get(ctx context.Context, supabaseID string) (*models.User, error) {
	args := m.Called(ctx, supabaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockConfigService is a mock implementation of ConfigService
type MockConfigService struct {
	mock.Mock
}

func (m *MockConfigService) Entry(ctx context.Context, key string) (*models.ConfigEntry, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ConfigEntry), args.Error(1)
}

func (m *MockConfigService) Set(ctx context.Context, key string, input models.SetConfigInput) (*models.ConfigEntry, error) {
	args := m.Called(ctx, key, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ConfigEntry), args.Error(1)
}

func (m *MockConfigService) All(ctx context.Context) ([]models.ConfigEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConfigEntry), args.Error(1)
}

// MockStaffCollection is a mock implementation of StaffCollection
type MockStaffCollection struct {
	mock.Mock
}

func (m *MockStaffCollection) InsertStaff(ctx context.Context, staff *models.StaffAccount) error {
	args := m.Called(ctx, staff)
	return args.Error(0)
}

func (m *MockStaffCollection) FindStaffByUsername(ctx context.Context, username string) (*models.StaffAccount, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StaffAccount), args.Error(1)
}

func (m *MockStaffCollection) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// apiFixture is a router over mocked services.
type apiFixture struct {
	auth     *auth.Service
	requests *MockRequestService
	payments *MockPaymentService
	profiles *MockProfileService
	config   *MockConfigService
	staff    *MockStaffCollection
	handler  http.Handler
}

func newAPIFixture() *apiFixture {
	logger, _ := test.NewNullLogger()
	f := &apiFixture{
		auth:     auth.NewService("handler-test-secret", time.Hour),
		requests: new(MockRequestService),
		payments: new(MockPaymentService),
		profiles: new(MockProfileService),
		config:   new(MockConfigService),
		staff:    new(MockStaffCollection),
	}
	f.handler = NewRouter(Deps{
		Auth:     f.auth,
		Staff:    f.staff,
		Requests: f.requests,
		Payments: f.payments,
		Profiles: f.profiles,
		Config:   f.config,
		Log:      logger,
	})
	return f
}

func (f *apiFixture) token(t *testing.T, subject string, role models.Role) string {
	t.Helper()
	token, err := f.auth.GenerateToken(subject, subject, role)
	require.NoError(t, err)
	return token
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}
