package directory

import (
	"context"
	"time"
)

// Address is the postal address of the building hosting a resource.
type Address struct {
	RegionCode         string   `json:"regionCode,omitempty"`
	Locality           string   `json:"locality,omitempty"`
	AdministrativeArea string   `json:"administrativeArea,omitempty"`
	PostalCode         string   `json:"postalCode,omitempty"`
	AddressLines       []string `json:"addressLines,omitempty"`
}

// Resource is a bookable calendar resource from the directory.
type Resource struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Category     string  `json:"category"`
	ResourceType string  `json:"resourceType,omitempty"`
	Capacity     int64   `json:"capacity,omitempty"`
	BuildingID   string  `json:"buildingId,omitempty"`
	BuildingName string  `json:"buildingName,omitempty"`
	Address      Address `json:"address"`
}

// CategoryRoom is the directory category for standard bookable rooms.
const CategoryRoom = "CONFERENCE_ROOM"

// Busy is one busy window returned by a free/busy query.
type Busy struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether the busy window intersects [start, end).
func (b Busy) Overlaps(start, end time.Time) bool {
	return b.Start.Before(end) && b.End.After(start)
}

// Gateway is the read side of the identity and calendar provider.
type Gateway interface {
	ListResources(ctx context.Context) ([]Resource, error)
	// FreeBusy returns busy windows keyed by calendar address. An address
	// the provider could not answer for is reported busy for the whole window.
	FreeBusy(ctx context.Context, emails []string, start, end time.Time) (map[string][]Busy, error)
}
