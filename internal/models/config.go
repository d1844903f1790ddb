package models

import "time"

// Well known SystemConfig keys.
const (
	ConfigDefaultCurrency = "default_currency"
)

// ConfigEntry is one key of the SystemConfig collection.
type ConfigEntry struct {
	Key       string    `bson:"key" json:"key"`
	Value     string    `bson:"value" json:"value"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// SetConfigInput is the body of PUT /config/{key}.
type SetConfigInput struct {
	Value string `json:"value" validate:"required,max=1024"`
}
