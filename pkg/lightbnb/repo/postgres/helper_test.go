package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const postgresImage = "postgres:16-alpine"

// testDB is a database holding the LightBnB schema, either the one named by
// TEST_DATABASE_URL or a throwaway container.
type testDB struct {
	Pool *pgxpool.Pool
}

func newTestDB(t *testing.T) *testDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping database integration test in short mode")
	}

	ctx := context.Background()
	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		connString = startPostgres(t, ctx)
	}

	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(pool.Close)

	require.NoError(t, pool.Ping(ctx), "Failed to ping test database")

	db := &testDB{Pool: pool}
	db.setup(t)
	db.cleanup(t)
	return db
}

func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        postgresImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "vagrant",
				"POSTGRES_PASSWORD": "123",
				"POSTGRES_DB":       "lightbnb",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://vagrant:123@%s:%s/lightbnb?sslmode=disable", host, port.Port())
}

// setup creates the LightBnB tables
func (db *testDB) setup(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY NOT NULL,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password VARCHAR(255) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS properties (
			id SERIAL PRIMARY KEY NOT NULL,
			owner_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			thumbnail_photo_url VARCHAR(255) NOT NULL,
			cover_photo_url VARCHAR(255) NOT NULL,
			cost_per_night INTEGER NOT NULL DEFAULT 0,
			parking_spaces INTEGER NOT NULL DEFAULT 0,
			number_of_bathrooms INTEGER NOT NULL DEFAULT 0,
			number_of_bedrooms INTEGER NOT NULL DEFAULT 0,
			country VARCHAR(255) NOT NULL,
			street VARCHAR(255) NOT NULL,
			city VARCHAR(255) NOT NULL,
			province VARCHAR(255) NOT NULL,
			post_code VARCHAR(255) NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS reservations (
			id SERIAL PRIMARY KEY NOT NULL,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			property_id INTEGER NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
			guest_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS property_reviews (
			id SERIAL PRIMARY KEY NOT NULL,
			guest_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			property_id INTEGER NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
			reservation_id INTEGER NOT NULL REFERENCES reservations(id) ON DELETE CASCADE,
			rating SMALLINT NOT NULL DEFAULT 0,
			message TEXT
		)`,
	}
	for _, stmt := range statements {
		_, err := db.Pool.Exec(ctx, stmt)
		require.NoError(t, err, "Failed to create table")
	}
}

// cleanup empties every table and resets the id sequences
func (db *testDB) cleanup(t *testing.T) {
	t.Helper()
	_, err := db.Pool.Exec(context.Background(),
		`TRUNCATE property_reviews, reservations, properties, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "Failed to truncate tables")
}

func (db *testDB) exec(t *testing.T, sql string, args ...interface{}) {
	t.Helper()
	_, err := db.Pool.Exec(context.Background(), sql, args...)
	require.NoError(t, err)
}
