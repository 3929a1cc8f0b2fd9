package models

import "time"

// Coordinates is a WGS84 position in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Visit is a single client engagement bounded by check-in and, eventually, check-out.
// CheckOutTime is nil while the visit is open.
type Visit struct {
	ID               int          `json:"id"`
	UserName         string       `json:"userName"`
	ClientName       string       `json:"clientName"`
	CompanyName      string       `json:"companyName"`
	CheckInAddress   string       `json:"checkInAddress"`
	CheckInMapLink   string       `json:"checkInMapLink"`
	CheckInCoords    Coordinates  `json:"checkInCoords"`
	CheckInTime      time.Time    `json:"checkInTime"`
	CheckOutTime     *time.Time   `json:"checkOutTime"`
	CheckOutAddress  string       `json:"checkOutAddress"`
	CheckOutMapLink  string       `json:"checkOutMapLink"`
	CheckOutCoords   *Coordinates `json:"checkOutCoords,omitempty"`
	DistanceMeters   *float64     `json:"distanceMeters,omitempty"`
	LocationMismatch bool         `json:"locationMismatch"`
	CreatedAt        time.Time    `json:"createdAt"`
}

// IsOpen reports whether the visit still awaits check-out.
func (v *Visit) IsOpen() bool {
	return v.CheckOutTime == nil
}

// Duration is the time between check-in and check-out; zero while open.
func (v *Visit) Duration() time.Duration {
	if v.CheckOutTime == nil {
		return 0
	}
	return v.CheckOutTime.Sub(v.CheckInTime)
}

// VisitCheckOut carries the fields written by the single open -> closed transition.
type VisitCheckOut struct {
	Time             time.Time
	Address          string
	MapLink          string
	Coords           Coordinates
	DistanceMeters   float64
	LocationMismatch bool
}

// VisitFilter is the storage-level filter for listing visits. Bounds are inclusive.
type VisitFilter struct {
	UserName string
	From     *time.Time
	To       *time.Time
}

// CheckInRequest represents the request body for a check-in
type CheckInRequest struct {
	UserName       string   `json:"userName"`
	ClientName     string   `json:"clientName"`
	CompanyName    string   `json:"companyName"`
	CheckInAddress string   `json:"checkInAddress"`
	CheckInMapLink string   `json:"checkInMapLink"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
}

// CheckOutRequest represents the request body for a check-out
type CheckOutRequest struct {
	CheckOutAddress string   `json:"checkOutAddress"`
	CheckOutMapLink string   `json:"checkOutMapLink"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
}

// CheckInResult is returned by a successful check-in. Warning is set when the
// visit was stored but the client cache could not be refreshed.
type CheckInResult struct {
	Visit   *Visit `json:"visit"`
	Warning string `json:"warning,omitempty"`
}
