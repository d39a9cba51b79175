package audit

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

const saveTimeout = 5 * time.Second

// Store handles audit record persistence to the audit_logs table
type Store struct {
	db    *sql.DB
	owned bool
}

// NewStore opens the audit database named by AUDIT_DATABASE_URL.
// Returns nil if AUDIT_DATABASE_URL is not set; callers then share the main
// database handle through NewStoreWithDB.
func NewStore() (*Store, error) {
	dbURL := os.Getenv("AUDIT_DATABASE_URL")
	if dbURL == "" {
		return nil, nil
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}

	return &Store{db: db, owned: true}, nil
}

// NewStoreWithDB creates a store with an existing database connection
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection if the store opened it
func (s *Store) Close() error {
	if s.db != nil && s.owned {
		return s.db.Close()
	}
	return nil
}

// Save persists an audit event to the database
func (s *Store) Save(event Event) error {
	if s.db == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	return s.SaveRecord(ctx, event.Record(), time.Now().UTC())
}

// SaveRecord inserts one audit_logs row
func (s *Store) SaveRecord(ctx context.Context, rec Record, at time.Time) error {
	if s.db == nil {
		return nil
	}

	var details []byte
	if len(rec.Details) > 0 {
		var err error
		details, err = json.Marshal(rec.Details)
		if err != nil {
			return err
		}
	}

	orgID := sql.NullString{String: rec.OrganizationID, Valid: rec.OrganizationID != ""}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, organization_id, user_id, action, resource_type, resource_id, outcome, ip_address, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		uuid.NewString(),
		orgID,
		rec.UserID,
		rec.Action,
		rec.ResourceType,
		rec.ResourceID,
		rec.Outcome(),
		rec.IPAddress,
		details,
		at,
	)

	return err
}

// DB returns the underlying database connection (for testing)
func (s *Store) DB() *sql.DB {
	return s.db
}
