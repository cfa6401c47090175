package lightbnb

import "context"

// Service is the entry point used by the HTTP layer, the admin CLI and the
// MCP server.
type Service interface {
	// User operations
	RegisterUser(ctx context.Context, req RegisterUserRequest) (*User, error)
	Authenticate(ctx context.Context, email, password string) (*User, error)
	GetUserWithEmail(ctx context.Context, email string) (*User, error)
	GetUserWithID(ctx context.Context, id int64) (*User, error)

	// Reservation operations
	GetAllReservations(ctx context.Context, guestID int64, limit int) ([]*ReservationWithProperty, error)

	// Property operations
	GetAllProperties(ctx context.Context, search PropertySearch, limit int) ([]*Property, error)
	AddProperty(ctx context.Context, property NewProperty) (*Property, error)
}
