package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lightbnb/lightbnb/pkg/lightbnb"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements lightbnb.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) lightbnb.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) lightbnb.Repository {
	return &Repository{db: pool}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// User operations

const userColumns = `id, name, email, password`

func (r *Repository) GetUserWithEmail(ctx context.Context, email string) (*lightbnb.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, lightbnb.ErrUserNotFound
		}
		return nil, classifyError("get user with email", err)
	}

	return user, nil
}

func (r *Repository) GetUserWithID(ctx context.Context, id int64) (*lightbnb.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, lightbnb.ErrUserNotFound
		}
		return nil, classifyError("get user with id", err)
	}

	return user, nil
}

func (r *Repository) AddUser(ctx context.Context, user lightbnb.NewUser) (*lightbnb.User, error) {
	query := `
		INSERT INTO users (name, email, password)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	created, err := scanUser(r.db.QueryRow(ctx, query, user.Name, user.Email, user.Password))
	if err != nil {
		return nil, classifyError("add user", err)
	}

	return created, nil
}

func scanUser(row scanner) (*lightbnb.User, error) {
	var user lightbnb.User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Password); err != nil {
		return nil, err
	}
	return &user, nil
}

// Reservation operations

func (r *Repository) GetAllReservations(ctx context.Context, guestID int64, limit int) ([]*lightbnb.ReservationWithProperty, error) {
	query, args, err := buildReservationHistory(guestID, limit)
	if err != nil {
		return nil, &lightbnb.QueryError{Op: "get all reservations", Err: err}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyError("get all reservations", err)
	}
	defer rows.Close()

	var reservations []*lightbnb.ReservationWithProperty
	for rows.Next() {
		var res lightbnb.ReservationWithProperty
		dest := append([]interface{}{
			&res.ID, &res.GuestID, &res.PropertyID, &res.StartDate, &res.EndDate,
		}, propertyDest(&res.Property)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, classifyError("get all reservations", err)
		}
		reservations = append(reservations, &res)
	}

	if err := rows.Err(); err != nil {
		return nil, classifyError("get all reservations", err)
	}

	return reservations, nil
}

// Property operations

func (r *Repository) GetAllProperties(ctx context.Context, search lightbnb.PropertySearch, limit int) ([]*lightbnb.Property, error) {
	query, args, err := buildPropertySearch(search, limit)
	if err != nil {
		return nil, &lightbnb.QueryError{Op: "get all properties", Err: err}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyError("get all properties", err)
	}
	defer rows.Close()

	var properties []*lightbnb.Property
	for rows.Next() {
		var property lightbnb.Property
		if err := rows.Scan(propertyDest(&property)...); err != nil {
			return nil, classifyError("get all properties", err)
		}
		properties = append(properties, &property)
	}

	if err := rows.Err(); err != nil {
		return nil, classifyError("get all properties", err)
	}

	return properties, nil
}

func (r *Repository) AddProperty(ctx context.Context, property lightbnb.NewProperty) (*lightbnb.Property, error) {
	query := `
		INSERT INTO properties (
			owner_id, title, description, thumbnail_photo_url, cover_photo_url,
			cost_per_night, parking_spaces, number_of_bathrooms, number_of_bedrooms,
			country, street, city, province, post_code
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + propertyColumns

	var created lightbnb.Property
	err := r.db.QueryRow(ctx, query,
		property.OwnerID, property.Title, property.Description, property.ThumbnailPhotoURL,
		property.CoverPhotoURL, property.CostPerNight, property.ParkingSpaces,
		property.NumberOfBathrooms, property.NumberOfBedrooms, property.Country,
		property.Street, property.City, property.Province, property.PostCode,
	).Scan(propertyColumnsDest(&created)...)
	if err != nil {
		return nil, classifyError("add property", err)
	}

	return &created, nil
}

// propertyColumnsDest returns scan targets matching propertyColumns.
func propertyColumnsDest(p *lightbnb.Property) []interface{} {
	return []interface{}{
		&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.ThumbnailPhotoURL,
		&p.CoverPhotoURL, &p.CostPerNight, &p.ParkingSpaces, &p.NumberOfBathrooms,
		&p.NumberOfBedrooms, &p.Country, &p.Street, &p.City, &p.Province,
		&p.PostCode, &p.Active,
	}
}

// propertyDest returns scan targets matching propertyColumns followed by
// average_rating.
func propertyDest(p *lightbnb.Property) []interface{} {
	return append(propertyColumnsDest(p), &p.AverageRating)
}
