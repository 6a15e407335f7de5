// internal/domain/models/listing.go
package models

import "time"

// Listing statuses. Draft listings are visible only to their owner and to
// admins; active listings appear in the public catalog; archived listings
// appear only in the admin archive view.
const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Listing is a rental unit record.
//
// The ID is a UUID string rather than an ObjectID so that a client-generated
// draft id can be used to correlate media uploaded before the listing record
// itself is saved.
type Listing struct {
	ID      string `bson:"_id" json:"id"`
	Title   string `bson:"title" json:"title"`
	TitleCI string `bson:"title_ci" json:"title_ci"` // lowercase, diacritics-stripped

	Description  string `bson:"description,omitempty" json:"description,omitempty"`
	Address      string `bson:"address,omitempty" json:"address,omitempty"`
	AddressCI    string `bson:"address_ci,omitempty" json:"address_ci,omitempty"`
	District     string `bson:"district" json:"district"`
	PropertyType string `bson:"property_type" json:"property_type"`

	// Price is rubles per month, whole rubles.
	Price  int64    `bson:"price" json:"price"`
	Rooms  *int     `bson:"rooms,omitempty" json:"rooms,omitempty"`
	AreaM2 *float64 `bson:"area_m2,omitempty" json:"area_m2,omitempty"`
	Floor  *int     `bson:"floor,omitempty" json:"floor,omitempty"`

	// Phone is visibility-gated; stores must not project it for viewers
	// without the phone grant.
	Phone string `bson:"phone,omitempty" json:"phone,omitempty"`

	Lat *float64 `bson:"lat,omitempty" json:"lat,omitempty"`
	Lng *float64 `bson:"lng,omitempty" json:"lng,omitempty"`

	// Storage-relative media paths, stored verbatim in upload order.
	Photos []string `bson:"photos,omitempty" json:"photos,omitempty"`
	Videos []string `bson:"videos,omitempty" json:"videos,omitempty"`

	OwnerID string `bson:"owner_id" json:"owner_id"`
	Status  string `bson:"status" json:"status"` // draft | active | archived

	CreatedAt  time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `bson:"updated_at" json:"updated_at"`
	ArchivedAt *time.Time `bson:"archived_at,omitempty" json:"archived_at,omitempty"`
}

// IsArchived reports whether the listing is in the archive.
func (l Listing) IsArchived() bool { return l.Status == StatusArchived }

// Districts is the fixed set of city districts a listing can belong to.
var Districts = []string{
	"Кировский",
	"Советский",
	"Ленинский",
	"Орджоникидзевский",
	"Калининский",
	"Дёмский",
}

// PropertyTypes is the fixed set of unit-type labels.
var PropertyTypes = []string{
	"Комната",
	"Студия",
	"1 Комнатная",
	"2-Х комнатная",
	"3-Х комнатная",
	"4-5 комнатная",
}

// IsValidDistrict reports whether d is a known district.
func IsValidDistrict(d string) bool {
	for _, known := range Districts {
		if d == known {
			return true
		}
	}
	return false
}

// IsValidPropertyType reports whether t is a known unit type.
func IsValidPropertyType(t string) bool {
	for _, known := range PropertyTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsValidStatus reports whether s is a known listing status.
func IsValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusActive, StatusArchived:
		return true
	}
	return false
}
