package lightbnb

import "time"

// User is a registered account. Password holds the bcrypt hash and is never
// serialized.
type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"-"`
}

// Property is a rental listing. CostPerNight is stored in cents.
type Property struct {
	ID                int64   `json:"id"`
	OwnerID           int64   `json:"owner_id"`
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	ThumbnailPhotoURL string  `json:"thumbnail_photo_url"`
	CoverPhotoURL     string  `json:"cover_photo_url"`
	CostPerNight      int     `json:"cost_per_night"`
	ParkingSpaces     int     `json:"parking_spaces"`
	NumberOfBathrooms int     `json:"number_of_bathrooms"`
	NumberOfBedrooms  int     `json:"number_of_bedrooms"`
	Country           string  `json:"country"`
	Street            string  `json:"street"`
	City              string  `json:"city"`
	Province          string  `json:"province"`
	PostCode          string  `json:"post_code"`
	Active            bool    `json:"active"`
	AverageRating     float64 `json:"average_rating,omitempty"`
}

// Reservation books a property for a guest between two dates.
type Reservation struct {
	ID         int64     `json:"id"`
	GuestID    int64     `json:"guest_id"`
	PropertyID int64     `json:"property_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
}

// ReservationWithProperty is one row of a guest's reservation history: the
// reservation, the reserved property and that property's average rating.
type ReservationWithProperty struct {
	Reservation
	Property Property `json:"property"`
}

// PropertyReview is a guest's rating of a property after a stay.
type PropertyReview struct {
	ID            int64  `json:"id"`
	GuestID       int64  `json:"guest_id"`
	PropertyID    int64  `json:"property_id"`
	ReservationID int64  `json:"reservation_id"`
	Rating        int    `json:"rating"`
	Message       string `json:"message"`
}
