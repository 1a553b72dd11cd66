package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

// Vehicle represents a customer's vehicle.
type Vehicle struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID      string             `bson:"owner_id" json:"owner_id"`
	Make         string             `bson:"make" json:"make"`
	Model        string             `bson:"model" json:"model"`
	Year         int                `bson:"year" json:"year"`
	VIN          string             `bson:"vin" json:"vin"`
	LicensePlate string             `bson:"license_plate" json:"license_plate"`
	Mileage      float64            `bson:"mileage" json:"mileage"` // in kilometers
	FuelType     string             `bson:"fuel_type,omitempty" json:"fuel_type,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}
