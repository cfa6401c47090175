package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lightbnb/lightbnb/pkg/lightbnb"
)

// Repository implements lightbnb.Repository using in-memory storage.
//
// It follows the same rules as the PostgreSQL repository where they are
// observable: emails are unique, properties need an existing owner, and
// searches and reservation history only see properties with at least one
// review. New ids are the current row count plus one.
type Repository struct {
	mu           sync.RWMutex
	users        map[int64]*lightbnb.User
	usersByEmail map[string]int64
	properties   map[int64]*lightbnb.Property
	reservations map[int64]*lightbnb.Reservation
	reviews      map[int64][]*lightbnb.PropertyReview // property_id -> reviews
	now          func() time.Time
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		users:        make(map[int64]*lightbnb.User),
		usersByEmail: make(map[string]int64),
		properties:   make(map[int64]*lightbnb.Property),
		reservations: make(map[int64]*lightbnb.Reservation),
		reviews:      make(map[int64][]*lightbnb.PropertyReview),
		now:          time.Now,
	}
}

var _ lightbnb.Repository = (*Repository)(nil)

// User operations

func (r *Repository) GetUserWithEmail(ctx context.Context, email string) (*lightbnb.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.usersByEmail[email]
	if !exists {
		return nil, lightbnb.ErrUserNotFound
	}

	userCopy := *r.users[id]
	return &userCopy, nil
}

func (r *Repository) GetUserWithID(ctx context.Context, id int64) (*lightbnb.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, lightbnb.ErrUserNotFound
	}

	userCopy := *user
	return &userCopy, nil
}

func (r *Repository) AddUser(ctx context.Context, user lightbnb.NewUser) (*lightbnb.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.usersByEmail[user.Email]; exists {
		return nil, &lightbnb.ConstraintViolation{
			Op:         "add user",
			Kind:       lightbnb.ConstraintUnique,
			Table:      "users",
			Column:     "email",
			Constraint: "users_email_key",
		}
	}

	created := &lightbnb.User{
		ID:       nextID(len(r.users), func(id int64) bool { _, ok := r.users[id]; return ok }),
		Name:     user.Name,
		Email:    user.Email,
		Password: user.Password,
	}
	r.putUser(created)

	userCopy := *created
	return &userCopy, nil
}

func (r *Repository) putUser(user *lightbnb.User) {
	if old, exists := r.users[user.ID]; exists {
		delete(r.usersByEmail, old.Email)
	}
	r.users[user.ID] = user
	r.usersByEmail[user.Email] = user.ID
}

// Reservation operations

func (r *Repository) GetAllReservations(ctx context.Context, guestID int64, limit int) ([]*lightbnb.ReservationWithProperty, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	today := calendarDate(r.now())

	var result []*lightbnb.ReservationWithProperty
	for _, res := range r.reservations {
		if res.GuestID != guestID || !calendarDate(res.EndDate).Before(today) {
			continue
		}
		property, exists := r.properties[res.PropertyID]
		if !exists {
			continue
		}
		avg, reviewed := r.averageRating(property.ID)
		if !reviewed {
			continue
		}

		row := &lightbnb.ReservationWithProperty{Reservation: *res, Property: *property}
		row.Property.AverageRating = avg
		result = append(result, row)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].ID < result[j].ID
		}
		return result[i].StartDate.Before(result[j].StartDate)
	})

	return truncate(result, lightbnb.NormalizeLimit(limit)), nil
}

// AddReservation stores a reservation. It is used for seeding and tests.
func (r *Repository) AddReservation(ctx context.Context, reservation lightbnb.Reservation) (*lightbnb.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[reservation.GuestID]; !exists {
		return nil, foreignKeyViolation("add reservation", "reservations", "guest_id")
	}
	if _, exists := r.properties[reservation.PropertyID]; !exists {
		return nil, foreignKeyViolation("add reservation", "reservations", "property_id")
	}

	if reservation.ID == 0 {
		reservation.ID = nextID(len(r.reservations), func(id int64) bool { _, ok := r.reservations[id]; return ok })
	}
	stored := reservation
	r.reservations[stored.ID] = &stored

	return &reservation, nil
}

// AddReview stores a property review. It is used for seeding and tests.
func (r *Repository) AddReview(ctx context.Context, review lightbnb.PropertyReview) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.properties[review.PropertyID]; !exists {
		return foreignKeyViolation("add review", "property_reviews", "property_id")
	}

	stored := review
	r.reviews[review.PropertyID] = append(r.reviews[review.PropertyID], &stored)
	return nil
}

// Property operations

func (r *Repository) GetAllProperties(ctx context.Context, search lightbnb.PropertySearch, limit int) ([]*lightbnb.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*lightbnb.Property
	for _, property := range r.properties {
		if !matches(property, search) {
			continue
		}
		avg, reviewed := r.averageRating(property.ID)
		if !reviewed {
			continue
		}
		if search.MinimumRating != 0 && avg < search.MinimumRating {
			continue
		}

		propertyCopy := *property
		propertyCopy.AverageRating = avg
		result = append(result, &propertyCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CostPerNight == result[j].CostPerNight {
			return result[i].ID < result[j].ID
		}
		return result[i].CostPerNight < result[j].CostPerNight
	})

	return truncate(result, lightbnb.NormalizeLimit(limit)), nil
}

func (r *Repository) AddProperty(ctx context.Context, property lightbnb.NewProperty) (*lightbnb.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[property.OwnerID]; !exists {
		return nil, foreignKeyViolation("add property", "properties", "owner_id")
	}

	created := &lightbnb.Property{
		ID:                nextID(len(r.properties), func(id int64) bool { _, ok := r.properties[id]; return ok }),
		OwnerID:           property.OwnerID,
		Title:             property.Title,
		Description:       property.Description,
		ThumbnailPhotoURL: property.ThumbnailPhotoURL,
		CoverPhotoURL:     property.CoverPhotoURL,
		CostPerNight:      property.CostPerNight,
		ParkingSpaces:     property.ParkingSpaces,
		NumberOfBathrooms: property.NumberOfBathrooms,
		NumberOfBedrooms:  property.NumberOfBedrooms,
		Country:           property.Country,
		Street:            property.Street,
		City:              property.City,
		Province:          property.Province,
		PostCode:          property.PostCode,
		Active:            true,
	}
	r.properties[created.ID] = created

	propertyCopy := *created
	return &propertyCopy, nil
}

// Seed replaces the stored users and properties. Reservations and reviews
// are cleared.
func (r *Repository) Seed(users []*lightbnb.User, properties []*lightbnb.Property) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users = make(map[int64]*lightbnb.User, len(users))
	r.usersByEmail = make(map[string]int64, len(users))
	r.properties = make(map[int64]*lightbnb.Property, len(properties))
	r.reservations = make(map[int64]*lightbnb.Reservation)
	r.reviews = make(map[int64][]*lightbnb.PropertyReview)

	for _, user := range users {
		userCopy := *user
		r.putUser(&userCopy)
	}
	for _, property := range properties {
		propertyCopy := *property
		propertyCopy.AverageRating = 0
		r.properties[propertyCopy.ID] = &propertyCopy
	}
}

// SetClock overrides the time source used to decide which reservations are
// in the past.
func (r *Repository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *Repository) averageRating(propertyID int64) (float64, bool) {
	reviews := r.reviews[propertyID]
	if len(reviews) == 0 {
		return 0, false
	}
	total := 0
	for _, review := range reviews {
		total += review.Rating
	}
	return float64(total) / float64(len(reviews)), true
}

func matches(p *lightbnb.Property, search lightbnb.PropertySearch) bool {
	if search.City != "" && !strings.Contains(p.City, search.City) {
		return false
	}
	if search.OwnerID != 0 && p.OwnerID != search.OwnerID {
		return false
	}
	if search.MinimumPricePerNight != 0 && p.CostPerNight < search.MinimumPricePerNight {
		return false
	}
	if search.MaximumPricePerNight != 0 && p.CostPerNight > search.MaximumPricePerNight {
		return false
	}
	return true
}

// nextID returns count+1, stepping past ids already taken by seeded rows.
func nextID(count int, taken func(int64) bool) int64 {
	id := int64(count) + 1
	for taken(id) {
		id++
	}
	return id
}

func truncate[T any](rows []T, limit int) []T {
	if len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

// calendarDate keeps the date t has in its own location, as UTC midnight.
// Dates from different zones then compare by calendar day.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func foreignKeyViolation(op, table, column string) error {
	return &lightbnb.ConstraintViolation{
		Op:     op,
		Kind:   lightbnb.ConstraintForeignKey,
		Table:  table,
		Column: column,
	}
}
