package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lightbnb/lightbnb/pkg/lightbnb"
	"github.com/lightbnb/lightbnb/pkg/lightbnb/api"
	"github.com/lightbnb/lightbnb/pkg/lightbnb/repo/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "password"

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

type testServer struct {
	handler *api.Handler
	router  http.Handler
}

func setupTestServer(t *testing.T, cfg api.Config) *testServer {
	t.Helper()
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	repo := memory.New()
	repo.Seed(
		[]*lightbnb.User{
			{ID: 1, Name: "Alice Owner", Email: "alice@example.com", Password: string(hash)},
			{ID: 2, Name: "Bob Guest", Email: "bob@example.com", Password: string(hash)},
		},
		[]*lightbnb.Property{
			{ID: 1, OwnerID: 1, Title: "Loft", CostPerNight: 10000, City: "Chicago", Active: true},
			{ID: 2, OwnerID: 1, Title: "Cabin", CostPerNight: 5000, City: "North Chicago", Active: true},
			{ID: 3, OwnerID: 1, Title: "Condo", CostPerNight: 15000, City: "Toronto", Active: true},
		},
	)
	for _, res := range []lightbnb.Reservation{
		{ID: 1, GuestID: 2, PropertyID: 1, StartDate: date("2020-01-01"), EndDate: date("2020-01-05")},
		{ID: 2, GuestID: 2, PropertyID: 3, StartDate: date("2019-05-01"), EndDate: date("2019-05-03")},
		{ID: 3, GuestID: 1, PropertyID: 2, StartDate: date("2021-03-01"), EndDate: date("2021-03-04")},
	} {
		_, err := repo.AddReservation(ctx, res)
		require.NoError(t, err)
	}
	for _, review := range []lightbnb.PropertyReview{
		{GuestID: 2, PropertyID: 1, ReservationID: 1, Rating: 4},
		{GuestID: 2, PropertyID: 3, ReservationID: 2, Rating: 5},
		{GuestID: 1, PropertyID: 2, ReservationID: 3, Rating: 2},
	} {
		require.NoError(t, repo.AddReview(ctx, review))
	}

	svc, err := lightbnb.New(
		lightbnb.WithRepository(repo),
		lightbnb.WithPasswordCost(bcrypt.MinCost),
		lightbnb.WithLogger(zerolog.Nop()),
	)
	require.NoError(t, err)

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "test-secret"
	}
	nop := zerolog.Nop()
	cfg.Logger = &nop

	h := api.NewHandler(svc, cfg)
	return &testServer{handler: h, router: h.Routes()}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/users/login", map[string]string{"email": email, "password": testPassword}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp api.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRegisterUser(t *testing.T) {
	s := setupTestServer(t, api.Config{})

	rec := s.do(t, http.MethodPost, "/users", map[string]string{
		"name":     "Carol",
		"email":    "carol@example.com",
		"password": "secret",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp api.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.User.ID)
	assert.Equal(t, "carol@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.Token)
	assert.NotContains(t, rec.Body.String(), "secret", "password must never be serialized")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, api.TokenCookie, cookies[0].Name)
	assert.Equal(t, resp.Token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	t.Run("duplicate email", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/users", map[string]string{
			"name":     "Alice again",
			"email":    "alice@example.com",
			"password": "secret",
		}, "")
		assert.Equal(t, http.StatusConflict, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "Email already exists", resp.Error)
		assert.Equal(t, "duplicate", resp.Code)
	})

	t.Run("invalid email", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/users", map[string]string{
			"name":     "Dave",
			"email":    "not-an-email",
			"password": "secret",
		}, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Email failed email validation", decodeError(t, rec).Error)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogin(t *testing.T) {
	s := setupTestServer(t, api.Config{})

	token := s.login(t, "bob@example.com")
	assert.NotEmpty(t, token)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "bob@example.com", "wrong"},
		{"unknown email", "nobody@example.com", testPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/users/login", map[string]string{"email": tt.email, "password": tt.password}, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, lightbnb.ErrInvalidCredentials.Error(), decodeError(t, rec).Error)
		})
	}
}

func TestLogin_RateLimited(t *testing.T) {
	s := setupTestServer(t, api.Config{LoginRateLimit: 2, LoginRateWindow: time.Minute})

	body := map[string]string{"email": "bob@example.com", "password": "wrong"}
	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodPost, "/users/login", body, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := s.do(t, http.MethodPost, "/users/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestMe(t *testing.T) {
	s := setupTestServer(t, api.Config{})
	token := s.login(t, "alice@example.com")

	t.Run("bearer token", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/users/me", nil, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp api.UserResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(1), resp.User.ID)
		assert.Equal(t, "Alice Owner", resp.User.Name)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		req.AddCookie(&http.Cookie{Name: api.TokenCookie, Value: token})
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("anonymous", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/users/me", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("forged token", func(t *testing.T) {
		forged, err := api.NewTokenAuth("other-secret", time.Hour).Issue(1)
		require.NoError(t, err)
		rec := s.do(t, http.MethodGet, "/users/me", nil, forged)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := api.NewTokenAuth("test-secret", -time.Minute).Issue(1)
		require.NoError(t, err)
		rec := s.do(t, http.MethodGet, "/users/me", nil, expired)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("deleted user", func(t *testing.T) {
		ghost, err := s.handler.Auth().Issue(99)
		require.NoError(t, err)
		rec := s.do(t, http.MethodGet, "/users/me", nil, ghost)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestLogout(t *testing.T) {
	s := setupTestServer(t, api.Config{})

	rec := s.do(t, http.MethodPost, "/users/logout", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, api.TokenCookie, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestListProperties(t *testing.T) {
	s := setupTestServer(t, api.Config{})

	tests := []struct {
		name   string
		query  string
		titles []string
	}{
		{"all", "", []string{"Cabin", "Loft", "Condo"}},
		{"city substring", "?city=Chicago", []string{"Cabin", "Loft"}},
		{"price range", "?minimum_price_per_night=6000&maximum_price_per_night=15000", []string{"Loft", "Condo"}},
		{"minimum rating", "?minimum_rating=4", []string{"Loft", "Condo"}},
		{"owner", "?owner_id=2", []string{}},
		{"limit", "?limit=1", []string{"Cabin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, "/api/properties"+tt.query, nil, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp api.PropertiesResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			got := make([]string, 0, len(resp.Properties))
			for _, p := range resp.Properties {
				got = append(got, p.Title)
			}
			assert.Equal(t, tt.titles, got)
		})
	}

	t.Run("average rating is included", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/properties?city=Toronto", nil, "")
		var resp api.PropertiesResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Properties, 1)
		assert.InDelta(t, 5.0, resp.Properties[0].AverageRating, 0.0001)
	})

	for _, query := range []string{"?owner_id=abc", "?limit=-1", "?minimum_rating=high", "?maximum_price_per_night=1.5",
		"?minimum_rating=NaN", "?minimum_rating=Inf", "?minimum_rating=-1"} {
		t.Run("rejects "+query, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, "/api/properties"+query, nil, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateProperty(t *testing.T) {
	s := setupTestServer(t, api.Config{})
	token := s.login(t, "bob@example.com")

	body := map[string]interface{}{
		"title":               "Beach House",
		"description":         "Sea view",
		"thumbnail_photo_url": "https://example.com/thumb.jpg",
		"cover_photo_url":     "https://example.com/cover.jpg",
		"cost_per_night":      20000,
		"parking_spaces":      2,
		"number_of_bathrooms": 1,
		"number_of_bedrooms":  3,
		"country":             "Canada",
		"street":              "1 Ocean Rd",
		"city":                "Tofino",
		"province":            "BC",
		"post_code":           "V0R 2Z0",
	}

	rec := s.do(t, http.MethodPost, "/api/properties", body, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created lightbnb.Property
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int64(4), created.ID)
	assert.Equal(t, int64(2), created.OwnerID, "owner is the logged in user")
	assert.Equal(t, "Beach House", created.Title)
	assert.True(t, created.Active)

	t.Run("requires login", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/properties", body, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("owner id in body is rejected", func(t *testing.T) {
		withOwner := map[string]interface{}{"owner_id": 1}
		for k, v := range body {
			withOwner[k] = v
		}
		rec := s.do(t, http.MethodPost, "/api/properties", withOwner, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing title", func(t *testing.T) {
		missing := map[string]interface{}{}
		for k, v := range body {
			if k != "title" {
				missing[k] = v
			}
		}
		rec := s.do(t, http.MethodPost, "/api/properties", missing, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Title failed required validation", decodeError(t, rec).Error)
	})

	t.Run("unknown owner", func(t *testing.T) {
		ghost, err := s.handler.Auth().Issue(99)
		require.NoError(t, err)
		rec := s.do(t, http.MethodPost, "/api/properties", body, ghost)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_reference", decodeError(t, rec).Code)
	})
}

func TestListReservations(t *testing.T) {
	s := setupTestServer(t, api.Config{})
	token := s.login(t, "bob@example.com")

	rec := s.do(t, http.MethodGet, "/api/reservations", nil, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp api.ReservationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Reservations, 2)
	assert.Equal(t, "Condo", resp.Reservations[0].Property.Title, "ordered by start date")
	assert.Equal(t, "Loft", resp.Reservations[1].Property.Title)
	assert.InDelta(t, 4.0, resp.Reservations[1].Property.AverageRating, 0.0001)

	rec = s.do(t, http.MethodGet, "/api/reservations?limit=1", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Reservations, 1)

	rec = s.do(t, http.MethodGet, "/api/reservations", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCORS(t *testing.T) {
	s := setupTestServer(t, api.Config{CORSAllowedOrigins: []string{"http://localhost:3000"}})

	req := httptest.NewRequest(http.MethodGet, "/api/properties", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/properties", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
