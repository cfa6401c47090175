package api

import (
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/render"
	"github.com/lightbnb/lightbnb/pkg/lightbnb"
)

// PropertiesResponse wraps a property listing
type PropertiesResponse struct {
	Properties []*lightbnb.Property `json:"properties"`
}

// ReservationsResponse wraps a reservation history
type ReservationsResponse struct {
	Reservations []*lightbnb.ReservationWithProperty `json:"reservations"`
}

// CreatePropertyRequest is the body of POST /api/properties. The owner is
// always the authenticated user.
type CreatePropertyRequest struct {
	Title             string `json:"title" validate:"required,max=255"`
	Description       string `json:"description"`
	ThumbnailPhotoURL string `json:"thumbnail_photo_url" validate:"required,max=255"`
	CoverPhotoURL     string `json:"cover_photo_url" validate:"required,max=255"`
	CostPerNight      int    `json:"cost_per_night" validate:"gte=0"`
	ParkingSpaces     int    `json:"parking_spaces" validate:"gte=0"`
	NumberOfBathrooms int    `json:"number_of_bathrooms" validate:"gte=0"`
	NumberOfBedrooms  int    `json:"number_of_bedrooms" validate:"gte=0"`
	Country           string `json:"country" validate:"required,max=255"`
	Street            string `json:"street" validate:"required,max=255"`
	City              string `json:"city" validate:"required,max=255"`
	Province          string `json:"province" validate:"required,max=255"`
	PostCode          string `json:"post_code" validate:"required,max=255"`
}

// ListProperties handles GET /api/properties
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	search, limit, err := parsePropertySearch(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	properties, err := h.service.GetAllProperties(r.Context(), search, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, PropertiesResponse{Properties: nonNil(properties)})
}

// CreateProperty handles POST /api/properties
func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	ownerID, err := currentUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req CreatePropertyRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	property, err := h.service.AddProperty(r.Context(), lightbnb.NewProperty{
		OwnerID:           ownerID,
		Title:             req.Title,
		Description:       req.Description,
		ThumbnailPhotoURL: req.ThumbnailPhotoURL,
		CoverPhotoURL:     req.CoverPhotoURL,
		CostPerNight:      req.CostPerNight,
		ParkingSpaces:     req.ParkingSpaces,
		NumberOfBathrooms: req.NumberOfBathrooms,
		NumberOfBedrooms:  req.NumberOfBedrooms,
		Country:           req.Country,
		Street:            req.Street,
		City:              req.City,
		Province:          req.Province,
		PostCode:          req.PostCode,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, property)
}

// ListReservations handles GET /api/reservations for the current user
func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	guestID, err := currentUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	limit, err := intParam(r.URL.Query(), "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}

	reservations, err := h.service.GetAllReservations(r.Context(), guestID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, ReservationsResponse{Reservations: nonNil(reservations)})
}

// parsePropertySearch reads the search filters from query parameters. Absent
// parameters leave the filter unset.
func parsePropertySearch(q url.Values) (lightbnb.PropertySearch, int, error) {
	var search lightbnb.PropertySearch
	var err error

	search.City = q.Get("city")

	ownerID, err := intParam(q, "owner_id")
	if err != nil {
		return search, 0, err
	}
	search.OwnerID = int64(ownerID)

	if search.MinimumPricePerNight, err = intParam(q, "minimum_price_per_night"); err != nil {
		return search, 0, err
	}
	if search.MaximumPricePerNight, err = intParam(q, "maximum_price_per_night"); err != nil {
		return search, 0, err
	}

	if raw := q.Get("minimum_rating"); raw != "" {
		search.MinimumRating, err = strconv.ParseFloat(raw, 64)
		if err != nil || !validRating(search.MinimumRating) {
			return search, 0, badRequestf("minimum_rating must be a non-negative number")
		}
	}

	limit, err := intParam(q, "limit")
	if err != nil {
		return search, 0, err
	}

	return search, limit, nil
}

// validRating accepts finite, non-negative ratings. NaN would match every
// row in memory and none in PostgreSQL.
func validRating(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func intParam(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, badRequestf("%s must be a non-negative integer", name)
	}
	return n, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
