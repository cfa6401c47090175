package lightbnb

// DefaultLimit is the page size used when a caller does not ask for one.
const DefaultLimit = 10

// NewUser carries the columns written by AddUser. Password must already be
// hashed; the repository stores it verbatim.
type NewUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NewProperty carries the columns written by AddProperty.
type NewProperty struct {
	OwnerID           int64  `json:"owner_id"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	ThumbnailPhotoURL string `json:"thumbnail_photo_url"`
	CoverPhotoURL     string `json:"cover_photo_url"`
	CostPerNight      int    `json:"cost_per_night"`
	ParkingSpaces     int    `json:"parking_spaces"`
	NumberOfBathrooms int    `json:"number_of_bathrooms"`
	NumberOfBedrooms  int    `json:"number_of_bedrooms"`
	Country           string `json:"country"`
	Street            string `json:"street"`
	City              string `json:"city"`
	Province          string `json:"province"`
	PostCode          string `json:"post_code"`
}

// PropertySearch holds the optional filters of a property search. A zero
// value means the filter is absent.
type PropertySearch struct {
	City                 string  `json:"city,omitempty"`
	OwnerID              int64   `json:"owner_id,omitempty"`
	MinimumPricePerNight int     `json:"minimum_price_per_night,omitempty"`
	MaximumPricePerNight int     `json:"maximum_price_per_night,omitempty"`
	MinimumRating        float64 `json:"minimum_rating,omitempty"`
}

// RegisterUserRequest is the input of Service.RegisterUser. Password is the
// plain text password.
type RegisterUserRequest struct {
	Name     string
	Email    string
	Password string
}

// NormalizeLimit returns DefaultLimit for non-positive limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
