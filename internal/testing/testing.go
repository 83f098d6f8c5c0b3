// package testing contains shared testing utilities
package testing

import (
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/pnavk/gMusic/internal/shared"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	respond func(*http.Request) (*http.Response, error)
}

func NewMockRoundTripper(respond func(*http.Request) (*http.Response, error)) *MockRoundTripper {
	return &MockRoundTripper{respond: respond}
}

func (m *MockRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	return m.respond(r)
}

// MustOpenDB opens an in-memory database with migrations applied, closed when
// the test ends.
func MustOpenDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}
