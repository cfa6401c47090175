// Package seed loads the LightBnB JSON seed files into a memory repository.
//
// The files are JSON objects keyed by row id:
//
//	{"1": {"name": "Devin Sanders", "email": "tristanjacobs@gmail.com", "password": "$2a$10$..."}}
//
// users.json and properties.json are required. reservations.json and
// property_reviews.json are optional.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strconv"
	"time"

	"github.com/lightbnb/lightbnb/pkg/lightbnb"
	"github.com/lightbnb/lightbnb/pkg/lightbnb/repo/memory"
	"github.com/rs/zerolog/log"
)

// Seed file names
const (
	UsersFile        = "users.json"
	PropertiesFile   = "properties.json"
	ReservationsFile = "reservations.json"
	ReviewsFile      = "property_reviews.json"
)

const dateLayout = "2006-01-02"

// Source opens seed files by name. A missing file must be reported with an
// error matching fs.ErrNotExist.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Data is the decoded content of a seed source, sorted by id.
type Data struct {
	Users        []*lightbnb.User
	Properties   []*lightbnb.Property
	Reservations []lightbnb.Reservation
	Reviews      []lightbnb.PropertyReview
}

type userRecord struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type propertyRecord struct {
	lightbnb.Property
	Active *bool `json:"active"`
}

type reservationRecord struct {
	ID         int64  `json:"id"`
	GuestID    int64  `json:"guest_id"`
	PropertyID int64  `json:"property_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

// Load reads and decodes every seed file from src.
func Load(ctx context.Context, src Source) (*Data, error) {
	data := &Data{}

	var users map[string]userRecord
	if err := decode(ctx, src, UsersFile, &users, true); err != nil {
		return nil, err
	}
	for key, rec := range users {
		id, err := recordID(UsersFile, key, rec.ID)
		if err != nil {
			return nil, err
		}
		data.Users = append(data.Users, &lightbnb.User{ID: id, Name: rec.Name, Email: rec.Email, Password: rec.Password})
	}
	sort.Slice(data.Users, func(i, j int) bool { return data.Users[i].ID < data.Users[j].ID })

	var properties map[string]propertyRecord
	if err := decode(ctx, src, PropertiesFile, &properties, true); err != nil {
		return nil, err
	}
	for key, rec := range properties {
		id, err := recordID(PropertiesFile, key, rec.ID)
		if err != nil {
			return nil, err
		}
		property := rec.Property
		property.ID = id
		property.Active = rec.Active == nil || *rec.Active
		data.Properties = append(data.Properties, &property)
	}
	sort.Slice(data.Properties, func(i, j int) bool { return data.Properties[i].ID < data.Properties[j].ID })

	var reservations map[string]reservationRecord
	if err := decode(ctx, src, ReservationsFile, &reservations, false); err != nil {
		return nil, err
	}
	for key, rec := range reservations {
		id, err := recordID(ReservationsFile, key, rec.ID)
		if err != nil {
			return nil, err
		}
		start, err := time.Parse(dateLayout, rec.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%s: reservation %d: invalid start_date: %w", ReservationsFile, id, err)
		}
		end, err := time.Parse(dateLayout, rec.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%s: reservation %d: invalid end_date: %w", ReservationsFile, id, err)
		}
		data.Reservations = append(data.Reservations, lightbnb.Reservation{
			ID: id, GuestID: rec.GuestID, PropertyID: rec.PropertyID, StartDate: start, EndDate: end,
		})
	}
	sort.Slice(data.Reservations, func(i, j int) bool { return data.Reservations[i].ID < data.Reservations[j].ID })

	var reviews map[string]lightbnb.PropertyReview
	if err := decode(ctx, src, ReviewsFile, &reviews, false); err != nil {
		return nil, err
	}
	for key, rec := range reviews {
		id, err := recordID(ReviewsFile, key, rec.ID)
		if err != nil {
			return nil, err
		}
		rec.ID = id
		data.Reviews = append(data.Reviews, rec)
	}
	sort.Slice(data.Reviews, func(i, j int) bool { return data.Reviews[i].ID < data.Reviews[j].ID })

	return data, nil
}

// Apply replaces the content of repo with data.
func (d *Data) Apply(ctx context.Context, repo *memory.Repository) error {
	repo.Seed(d.Users, d.Properties)

	for _, reservation := range d.Reservations {
		if _, err := repo.AddReservation(ctx, reservation); err != nil {
			return fmt.Errorf("seed reservation %d: %w", reservation.ID, err)
		}
	}
	for _, review := range d.Reviews {
		if err := repo.AddReview(ctx, review); err != nil {
			return fmt.Errorf("seed review %d: %w", review.ID, err)
		}
	}

	log.Info().
		Int("users", len(d.Users)).
		Int("properties", len(d.Properties)).
		Int("reservations", len(d.Reservations)).
		Int("reviews", len(d.Reviews)).
		Msg("seed data loaded")
	return nil
}

// LoadInto reads src and applies it to repo.
func LoadInto(ctx context.Context, src Source, repo *memory.Repository) error {
	data, err := Load(ctx, src)
	if err != nil {
		return err
	}
	return data.Apply(ctx, repo)
}

func decode(ctx context.Context, src Source, name string, v interface{}, required bool) error {
	rc, err := src.Open(ctx, name)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	if err := json.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// recordID prefers the id field and falls back to the object key.
func recordID(file, key string, id int64) (int64, error) {
	if id != 0 {
		return id, nil
	}
	parsed, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: key %q is not a numeric id", file, key)
	}
	return parsed, nil
}
