package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/roadside-assist/internal/models"
)

// ConfigHandler serves /config.
type ConfigHandler struct {
	config ConfigService
	log    logrus.FieldLogger
}

func NewConfigHandler(config ConfigService, log logrus.FieldLogger) *ConfigHandler {
	return &ConfigHandler{config: config, log: log}
}

func (h *ConfigHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.config.All(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.config.Entry(r.Context(), r.PathValue("key"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *ConfigHandler) Set(w http.ResponseWriter, r *http.Request) {
	var input models.SetConfigInput
	if err := decodeJSON(r, &input); err != nil {
		badRequest(w, err.Error())
		return
	}

	entry, err := h.config.Set(r.Context(), r.PathValue("key"), input)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
