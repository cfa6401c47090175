package lightbnb

// WithPasswordCompare replaces the bcrypt comparison used by Authenticate.
func WithPasswordCompare(compare func(hash, password []byte) error) Option {
	return func(s *service) {
		s.compare = compare
	}
}
