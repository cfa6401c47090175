// Package lightbnb provides the data access layer of the LightBnB vacation
// rental application.
//
// The Service interface wraps a Repository and adds password hashing,
// credential checks and default page sizes. Repository implementations for
// PostgreSQL and for process memory live under repo/. Property searches are
// assembled by the query subpackage so that every optional filter and the
// value bound to it stay together.
//
// Error Model
//
// Repositories never return raw driver errors. Lookups that match nothing
// return ErrUserNotFound or ErrPropertyNotFound. Failures are classified as
// *ConnectionError, *ConstraintViolation or *QueryError, all of which unwrap
// to the underlying cause. Mapping these to transport responses is left to
// the caller (see the api subpackage).
package lightbnb
