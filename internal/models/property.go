package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PropertyStatus is the sales state of a listing.
type PropertyStatus string

const (
	PropertyAvailable PropertyStatus = "Available"
	PropertyReserved  PropertyStatus = "Reserved"
	PropertyPending   PropertyStatus = "Pending"
	PropertySold      PropertyStatus = "Sold"
	PropertyWithdrawn PropertyStatus = "Withdrawn"
)

// PropertyType categorizes a listing.
type PropertyType string

const (
	PropertyHouse      PropertyType = "House"
	PropertyCondo      PropertyType = "Condo"
	PropertyTownhouse  PropertyType = "Townhouse"
	PropertyLot        PropertyType = "Lot"
	PropertyCommercial PropertyType = "Commercial"
)

// Address is a Philippine-style street address.
type Address struct {
	Street   string `bson:"street" json:"street"`
	Barangay string `bson:"barangay" json:"barangay"`
	City     string `bson:"city" json:"city"`
	Province string `bson:"province" json:"province"`
	Zip      string `bson:"zip" json:"zip"` // 4-digit
}

// Property represents a listing. For the inquiry/calendar core it is
// read-only context; CRUD lives in PropertyService.
type Property struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name            string             `bson:"name" json:"name"`
	Address         Address            `bson:"address" json:"address"`
	Price           float64            `bson:"price" json:"price"`
	Status          PropertyStatus     `bson:"status" json:"status"`
	Type            PropertyType       `bson:"type" json:"type"`
	Photos          []string           `bson:"photos" json:"photos"` // Storage keys only; upload handled elsewhere
	Description     string             `bson:"description" json:"description"`
	Features        []string           `bson:"features" json:"features"`
	ReservationFee  float64            `bson:"reservation_fee" json:"reservation_fee"`
	Commission      float64            `bson:"commission" json:"commission"`
	FinalCommission *float64           `bson:"final_commission,omitempty" json:"final_commission,omitempty"` // Set at closing; overrides Commission in stats
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
	Deleted         bool               `bson:"deleted" json:"-"` // Soft delete flag
}

// EffectiveCommission returns the commission actually earned on the
// property: the negotiated final amount when present, the listed one
// otherwise.
func (p *Property) EffectiveCommission() float64 {
	if p.FinalCommission != nil {
		return *p.FinalCommission
	}
	return p.Commission
}
