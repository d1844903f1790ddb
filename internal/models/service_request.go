package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServiceType is the kind of assistance a customer asks for.
type ServiceType string

const (
	ServiceMechanicalRepair          ServiceType = "mechanical_repair"
	ServiceMechanicalRepairMotorbike ServiceType = "mechanical_repair_motorbike"
	ServiceTowing                    ServiceType = "towing"
	ServiceTowingHeavy               ServiceType = "towing_heavy"
	ServiceTowingMotorbike           ServiceType = "towing_motorbike"
	ServiceEVCharging                ServiceType = "ev_charging"
	ServiceCarWash                   ServiceType = "car_wash"
	ServiceCarWashSUV                ServiceType = "car_wash_suv"
	ServiceCarWashVan                ServiceType = "car_wash_van"
	ServiceBatteryJump               ServiceType = "battery_jump"
	ServiceTyreRepair                ServiceType = "tyre_repair"
)

// ServiceTypes lists every accepted service type.
var ServiceTypes = []ServiceType{
	ServiceMechanicalRepair,
	ServiceMechanicalRepairMotorbike,
	ServiceTowing,
	ServiceTowingHeavy,
	ServiceTowingMotorbike,
	ServiceEVCharging,
	ServiceCarWash,
	ServiceCarWashSUV,
	ServiceCarWashVan,
	ServiceBatteryJump,
	ServiceTyreRepair,
}

// IsValidServiceType checks if a service type is part of the catalogue
func IsValidServiceType(t ServiceType) bool {
	for _, known := range ServiceTypes {
		if t == known {
			return true
		}
	}
	return false
}

// RequestStatus is the lifecycle state of a service request.
type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusAssigned   RequestStatus = "assigned"
	StatusInProgress RequestStatus = "in_progress"
	StatusCompleted  RequestStatus = "completed"
	StatusCancelled  RequestStatus = "cancelled"
)

// RequestStatuses lists every lifecycle state in order.
var RequestStatuses = []RequestStatus{
	StatusPending, StatusAssigned, StatusInProgress, StatusCompleted, StatusCancelled,
}

// transitions maps each state to the states it may move to.
// Terminal states have no entry.
var transitions = map[RequestStatus][]RequestStatus{
	StatusPending:    {StatusAssigned, StatusCancelled},
	StatusAssigned:   {StatusInProgress, StatusCompleted, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// IsValidStatus checks if a status is a known lifecycle state
func IsValidStatus(s RequestStatus) bool {
	switch s {
	case StatusPending, StatusAssigned, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is permitted from s.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether a request in state from may be written with
// state to. Keeping a non-terminal state unchanged is allowed so that the
// price can be adjusted on its own.
func CanTransition(from, to RequestStatus) bool {
	if !IsValidStatus(from) || !IsValidStatus(to) || from.IsTerminal() {
		return false
	}
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ServiceRequest is a customer request for roadside or parking assistance.
type ServiceRequest struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"user_id" json:"userId"`
	BookingID   string             `bson:"booking_id,omitempty" json:"bookingId,omitempty"`
	ServiceType ServiceType        `bson:"service_type" json:"serviceType"`
	Status      RequestStatus      `bson:"status" json:"status"`
	Location    string             `bson:"location,omitempty" json:"location,omitempty"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Price       float64            `bson:"price" json:"price"`
	Version     int64              `bson:"version" json:"version"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

// CreateServiceRequestInput is the body of POST /services.
type CreateServiceRequestInput struct {
	UserID      string      `json:"userId" validate:"required"`
	ServiceType ServiceType `json:"serviceType" validate:"required,service_type"`
	BookingID   string      `json:"bookingId,omitempty"`
	Location    string      `json:"location,omitempty" validate:"max=500"`
	Notes       string      `json:"notes,omitempty" validate:"max=2000"`
}

// UpdateStatusInput is the body of PATCH /services/{id}. Version, when set,
// must match the stored version for the write to succeed.
type UpdateStatusInput struct {
	ID      string        `json:"-"`
	Status  RequestStatus `json:"status" validate:"required,request_status"`
	Price   *float64      `json:"price,omitempty" validate:"omitempty,gte=0"`
	Version *int64        `json:"version,omitempty" validate:"omitempty,gte=1"`
}
