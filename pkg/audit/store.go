package audit

import (
	"database/sql"
	"encoding/json"
	"os"
	"strconv"
	"time"
)

// Store persists audit events to the messages table of a dedicated
// audit database. A nil Store discards events.
type Store struct {
	db *sql.DB
}

// NewStore opens the database named by AUDIT_DATABASE_URL. When the
// variable is unset the store is nil and persistence is skipped.
func NewStore() (*Store, error) {
	url := os.Getenv("AUDIT_DATABASE_URL")
	if url == "" {
		return nil, nil
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an existing connection.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save writes one event row. Structured data is stored as JSON so log
// consumers can query on SDID parameters.
func (s *Store) Save(event Event) error {
	if s == nil || s.db == nil {
		return nil
	}

	sdata, err := json.Marshal(event.StructuredData())
	if err != nil {
		return err
	}
	hostname, _ := os.Hostname()

	_, err = s.db.Exec(
		`INSERT INTO messages (facility, severity, timestamp, hostname, appname, procid, msgid, sdata, message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.Facility(),
		int(event.Severity()),
		time.Now().UTC(),
		hostname,
		"permission-hub",
		strconv.Itoa(os.Getpid()),
		event.MessageID(),
		sdata,
		event.Message(),
	)
	return err
}
