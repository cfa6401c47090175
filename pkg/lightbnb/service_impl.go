package lightbnb

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// service implements the Service interface
type service struct {
	repository   Repository
	eventSink    EventSink
	logger       zerolog.Logger
	defaultLimit int
	passwordCost int

	// dummyHash stands in for the stored hash when the email is unknown.
	dummyHash []byte
	compare   func(hash, password []byte) error
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithLogger sets the logger used to report repository failures
func WithLogger(logger zerolog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithDefaultLimit sets the page size used when callers pass a non-positive limit
func WithDefaultLimit(limit int) Option {
	return func(s *service) {
		s.defaultLimit = limit
	}
}

// WithPasswordCost sets the bcrypt cost used by RegisterUser
func WithPasswordCost(cost int) Option {
	return func(s *service) {
		s.passwordCost = cost
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		eventSink:    NewNoopEventSink(),
		logger:       log.Logger.With().Str("component", "lightbnb").Logger(),
		defaultLimit: DefaultLimit,
		passwordCost: bcrypt.DefaultCost,
		compare:      bcrypt.CompareHashAndPassword,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.defaultLimit <= 0 {
		return nil, fmt.Errorf("default limit must be positive, got %d", s.defaultLimit)
	}
	if s.passwordCost < bcrypt.MinCost || s.passwordCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("password cost %d out of range", s.passwordCost)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("lightbnb-unknown-user"), s.passwordCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash dummy password: %w", err)
	}
	s.dummyHash = dummy

	return s, nil
}

// User operations

func (s *service) RegisterUser(ctx context.Context, req RegisterUserRequest) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.passwordCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.repository.AddUser(ctx, NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hash),
	})
	if err != nil {
		return nil, s.fail("add user", err)
	}

	if err := s.eventSink.UserCreated(ctx, user); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("event sink rejected user created event")
	}

	return user, nil
}

func (s *service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repository.GetUserWithEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			_ = s.compare(s.dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, s.fail("get user with email", err)
	}

	if err := s.compare([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *service) GetUserWithEmail(ctx context.Context, email string) (*User, error) {
	user, err := s.repository.GetUserWithEmail(ctx, email)
	if err != nil {
		return nil, s.fail("get user with email", err)
	}
	return user, nil
}

func (s *service) GetUserWithID(ctx context.Context, id int64) (*User, error) {
	user, err := s.repository.GetUserWithID(ctx, id)
	if err != nil {
		return nil, s.fail("get user with id", err)
	}
	return user, nil
}

// Reservation operations

func (s *service) GetAllReservations(ctx context.Context, guestID int64, limit int) ([]*ReservationWithProperty, error) {
	reservations, err := s.repository.GetAllReservations(ctx, guestID, s.limit(limit))
	if err != nil {
		return nil, s.fail("get all reservations", err)
	}
	return reservations, nil
}

// Property operations

func (s *service) GetAllProperties(ctx context.Context, search PropertySearch, limit int) ([]*Property, error) {
	properties, err := s.repository.GetAllProperties(ctx, search, s.limit(limit))
	if err != nil {
		return nil, s.fail("get all properties", err)
	}
	return properties, nil
}

func (s *service) AddProperty(ctx context.Context, property NewProperty) (*Property, error) {
	created, err := s.repository.AddProperty(ctx, property)
	if err != nil {
		return nil, s.fail("add property", err)
	}

	if err := s.eventSink.PropertyCreated(ctx, created); err != nil {
		s.logger.Warn().Err(err).Int64("property_id", created.ID).Msg("event sink rejected property created event")
	}

	return created, nil
}

func (s *service) limit(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	return limit
}

// fail logs a repository failure and hands it back unchanged.
func (s *service) fail(op string, err error) error {
	kind := ErrorKind(err)
	event := s.logger.Error()
	if kind == "not_found" {
		event = s.logger.Debug()
	}
	event.Err(err).Str("op", op).Str("kind", kind).Msg("repository operation failed")
	return err
}
