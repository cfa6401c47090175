package lightbnb

import "context"

// Repository is the data accessor behind the service. Each method issues a
// single statement; none of them open transactions or retry.
type Repository interface {
	// User operations
	GetUserWithEmail(ctx context.Context, email string) (*User, error)
	GetUserWithID(ctx context.Context, id int64) (*User, error)
	AddUser(ctx context.Context, user NewUser) (*User, error)

	// Reservation operations
	GetAllReservations(ctx context.Context, guestID int64, limit int) ([]*ReservationWithProperty, error)

	// Property operations
	GetAllProperties(ctx context.Context, search PropertySearch, limit int) ([]*Property, error)
	AddProperty(ctx context.Context, property NewProperty) (*Property, error)
}

// EventSink receives notifications after successful writes.
type EventSink interface {
	UserCreated(ctx context.Context, user *User) error
	PropertyCreated(ctx context.Context, property *Property) error
}
