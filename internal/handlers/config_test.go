package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/ukydev/roadside-assist/internal/models"
	"github.com/ukydev/roadside-assist/internal/services"
)

func TestConfigHandler(t *testing.T) {
	f := newAPIFixture()
	entry := &models.ConfigEntry{Key: models.ConfigDefaultCurrency, Value: "USD"}
	f.config.On("All", mock.Anything).Return([]models.ConfigEntry{*entry}, nil)
	f.config.On("Entry", mock.Anything, models.ConfigDefaultCurrency).Return(entry, nil)
	f.config.On("Entry", mock.Anything, "nope").Return(nil, &services.NotFoundError{Resource: "config", ID: "nope"})
	f.config.On("Set", mock.Anything, models.ConfigDefaultCurrency, models.SetConfigInput{Value: "USD"}).Return(entry, nil)

	admin := f.token(t, "admin", models.RoleAdmin)

	w := f.do(t, "GET", "/config", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, "GET", "/config/default_currency", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"value":"USD"`)

	w = f.do(t, "GET", "/config/nope", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, "PUT", "/config/default_currency", admin, models.SetConfigInput{Value: "USD"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, "GET", "/config", f.token(t, "op-1", models.RoleOperator), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
