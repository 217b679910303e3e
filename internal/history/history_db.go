package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
	"github.com/studiowebux/kexedit/internal/device"
	"github.com/studiowebux/kexedit/internal/migrations"
)

const timestampLayout = "2006-01-02 15:04:05.000"

// Entry is one journaled device operation
type Entry struct {
	ID        int64
	Timestamp time.Time
	Device    string
	URL       string
	Op        string
	Method    string
	Path      string
	USB       int // -1 when the operation is not about one entry
	Status    int
	Duration  time.Duration
	Error     string
}

type Manager struct {
	db *sql.DB
}

func NewManager(dbPath string) (*Manager, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	// Run database migrations
	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Manager{db: db}, nil
}

func (m *Manager) Save(e Entry) error {
	query := `
		INSERT INTO operations (
			timestamp, device_name, device_url, op, method, path, usb, status, duration_ms, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	var usb sql.NullInt64
	if e.USB >= 0 {
		usb = sql.NullInt64{Int64: int64(e.USB), Valid: true}
	}
	var errText sql.NullString
	if e.Error != "" {
		errText = sql.NullString{String: e.Error, Valid: true}
	}

	_, err := m.db.Exec(query,
		ts.Local().Format(timestampLayout),
		e.Device,
		e.URL,
		e.Op,
		e.Method,
		e.Path,
		usb,
		e.Status,
		e.Duration.Milliseconds(),
		errText,
	)
	if err != nil {
		return fmt.Errorf("failed to save history entry: %w", err)
	}
	return nil
}

// Load returns entries newest first. An empty deviceName matches every
// device; limit <= 0 returns everything.
func (m *Manager) Load(deviceName string, limit int) ([]Entry, error) {
	query := `
		SELECT id, timestamp, device_name, device_url, op, method, path, usb, status, duration_ms, error
		FROM operations
		WHERE device_name = ? OR ? = ''
		ORDER BY timestamp DESC, id DESC
	`
	args := []any{deviceName, deviceName}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := m.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var timestamp string
		var usb sql.NullInt64
		var durationMs int64
		var errText sql.NullString

		err := rows.Scan(&e.ID, &timestamp, &e.Device, &e.URL, &e.Op, &e.Method, &e.Path,
			&usb, &e.Status, &durationMs, &errText)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}

		// Parse timestamp as local time
		parsed, err := time.ParseInLocation(timestampLayout, timestamp, time.Local)
		if err != nil {
			parsed, err = time.Parse(time.RFC3339, timestamp)
			if err != nil {
				parsed = time.Time{}
			}
		}
		e.Timestamp = parsed

		e.USB = -1
		if usb.Valid {
			e.USB = int(usb.Int64)
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.Error = errText.String

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (m *Manager) Clear() error {
	_, err := m.db.Exec("DELETE FROM operations")
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

func (m *Manager) GetCount() (int, error) {
	var count int
	err := m.db.QueryRow("SELECT COUNT(*) FROM operations").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get history count: %w", err)
	}
	return count, nil
}

func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// Observer journals every request made by a device client.
// Ping requests are not recorded.
func (m *Manager) Observer(deviceName, deviceURL string) device.Observer {
	return func(r device.Result) {
		if r.Op == device.OpPing {
			return
		}
		e := Entry{
			Timestamp: time.Now(),
			Device:    deviceName,
			URL:       deviceURL,
			Op:        string(r.Op),
			Method:    r.Method,
			Path:      r.Path,
			USB:       r.USB,
			Status:    r.Status,
			Duration:  r.Duration,
		}
		if r.Err != nil {
			e.Error = r.Err.Error()
		}
		if err := m.Save(e); err != nil {
			log.Warn().Err(err).Msg("failed to journal device operation")
		}
	}
}
