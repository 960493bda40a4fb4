// Package leads stores form submissions in a CSV file. The file doubles as
// the export format for managers, so the store keeps it valid at all times
// and migrates older files to the current column set on open.
package leads

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"meatbot/core/logger"

	"log/slog"
)

// Status is the workflow state of a lead.
type Status string

const (
	StatusNew        Status = "Новая"
	StatusInProgress Status = "В работе"
	StatusDone       Status = "Завершена"
)

// Valid reports whether the status is one of the known workflow values.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Emoji returns the status marker used in admin lists.
func (s Status) Emoji() string {
	switch s {
	case StatusNew:
		return "🆕"
	case StatusInProgress:
		return "⏳"
	case StatusDone:
		return "✅"
	}
	return "❓"
}

// TimeLayout is the timestamp format used inside the CSV file.
const TimeLayout = "2006-01-02 15:04:05"

// headersV2 is the current column set; V1 files lack the last two columns.
var headersV2 = []string{
	"timestamp", "user_id", "name", "phone",
	"email", "message", "status", "updated_at",
}

// Lead is one form submission. ID is the 1-based row position in the file,
// stable until a lead is deleted.
type Lead struct {
	ID        int
	Timestamp string
	UserID    int64
	Name      string
	Phone     string
	Email     string
	Message   string
	Status    Status
	UpdatedAt string
}

// SubmittedAt parses the lead timestamp; zero time when malformed.
func (l *Lead) SubmittedAt() time.Time {
	t, err := time.Parse(TimeLayout, l.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Stats aggregates lead counts per status.
type Stats struct {
	Total      int
	New        int
	InProgress int
	Done       int
}

// ErrNotFound is returned when no lead has the requested id.
var ErrNotFound = fmt.Errorf("leads: not found")

// Store reads and writes the CSV file. All operations take the lock; the
// file is small enough that full rewrites are fine.
type Store struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// Open prepares the store: creates the file with headers when missing and
// migrates V1 files in place.
func Open(path string) (*Store, error) {
	s := &Store{path: path, now: time.Now}
	if err := s.ensureFile(); err != nil {
		return nil, err
	}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureFile() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("leads: stat %s: %w", s.path, err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("leads: mkdir %s: %w", dir, err)
		}
	}
	if err := s.writeAll(nil); err != nil {
		return err
	}
	logger.Leads.Info("csv file created",
		slog.String("event", "create"),
		slog.String("path", s.path),
	)
	return nil
}

// migrate upgrades a V1 file by appending the status and updated_at columns.
// New leads get status "Новая"; updated_at starts equal to the timestamp.
func (s *Store) migrate() error {
	records, err := s.readRaw()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	header := records[0]
	if contains(header, "status") && contains(header, "updated_at") {
		return nil
	}

	var rows [][]string
	for _, rec := range records[1:] {
		if len(rec) < 6 {
			continue
		}
		rows = append(rows, append(rec[:6:6], string(StatusNew), rec[0]))
	}
	if err := s.writeAll(rows); err != nil {
		return err
	}
	logger.Leads.Info("csv migrated",
		slog.String("event", "migrate"),
		slog.String("path", s.path),
		slog.Int("rows", len(rows)),
	)
	return nil
}

func (s *Store) readRaw() ([][]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("leads: open %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("leads: read %s: %w", s.path, err)
	}
	return records, nil
}

func (s *Store) writeAll(rows [][]string) error {
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("leads: create %s: %w", tmp, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(headersV2); err != nil {
		f.Close()
		return fmt.Errorf("leads: write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("leads: write rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("leads: flush: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("leads: close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("leads: rename: %w", err)
	}
	return nil
}

func (s *Store) load() ([]Lead, error) {
	records, err := s.readRaw()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	var leads []Lead
	for i, rec := range records[1:] {
		if len(rec) < 6 {
			continue
		}
		userID, _ := strconv.ParseInt(rec[1], 10, 64)
		lead := Lead{
			ID:        i + 1,
			Timestamp: rec[0],
			UserID:    userID,
			Name:      rec[2],
			Phone:     rec[3],
			Email:     rec[4],
			Message:   rec[5],
			Status:    StatusNew,
			UpdatedAt: rec[0],
		}
		if len(rec) >= 8 {
			if st := Status(rec[6]); st.Valid() {
				lead.Status = st
			}
			if rec[7] != "" {
				lead.UpdatedAt = rec[7]
			}
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

// Append stores a new lead with the current timestamp and returns it.
func (s *Store) Append(userID int64, name, phone, email, message string) (*Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().Format(TimeLayout)
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("leads: open append: %w", err)
	}
	w := csv.NewWriter(f)
	rec := []string{
		now, strconv.FormatInt(userID, 10), name, phone,
		email, message, string(StatusNew), now,
	}
	if err := w.Write(rec); err != nil {
		f.Close()
		return nil, fmt.Errorf("leads: append: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("leads: append flush: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("leads: append close: %w", err)
	}

	leads, err := s.load()
	if err != nil {
		return nil, err
	}
	lead := leads[len(leads)-1]
	logger.Leads.Info("lead saved",
		slog.String("event", "append"),
		slog.Int("lead_id", lead.ID),
		slog.Int64("user_id", userID),
	)
	return &lead, nil
}

// All returns every lead, newest first.
func (s *Store) All() ([]Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	leads, err := s.load()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(leads, func(i, j int) bool {
		return leads[i].Timestamp > leads[j].Timestamp
	})
	return leads, nil
}

// ByStatus returns leads in one workflow state, newest first.
func (s *Store) ByStatus(status Status) ([]Lead, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	var out []Lead
	for _, l := range all {
		if l.Status == status {
			out = append(out, l)
		}
	}
	return out, nil
}

// ByID returns the lead with the given 1-based id.
func (s *Store) ByID(id int) (*Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	leads, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, l := range leads {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateStatus moves a lead to a new workflow state and touches updated_at.
func (s *Store) UpdateStatus(id int, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("leads: unknown status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readRaw()
	if err != nil {
		return err
	}
	if id < 1 || id > len(records)-1 {
		return ErrNotFound
	}

	var rows [][]string
	for i, rec := range records[1:] {
		if len(rec) < 6 {
			if i+1 == id {
				return ErrNotFound
			}
			// Malformed rows keep their position so later ids stay stable.
			rows = append(rows, rec)
			continue
		}
		if len(rec) < 8 {
			rec = append(rec[:6:6], string(StatusNew), rec[0])
		}
		if i+1 == id {
			rec[6] = string(status)
			rec[7] = s.now().Format(TimeLayout)
		}
		rows = append(rows, rec)
	}
	if err := s.writeAll(rows); err != nil {
		return err
	}
	logger.Leads.Info("lead status updated",
		slog.String("event", "status"),
		slog.Int("lead_id", id),
		slog.String("status", string(status)),
	)
	return nil
}

// Delete removes a lead. Later leads shift down by one id.
func (s *Store) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readRaw()
	if err != nil {
		return err
	}
	if id < 1 || id > len(records)-1 {
		return ErrNotFound
	}

	var rows [][]string
	for i, rec := range records[1:] {
		if i+1 == id {
			continue
		}
		rows = append(rows, rec)
	}
	if err := s.writeAll(rows); err != nil {
		return err
	}
	logger.Leads.Info("lead deleted",
		slog.String("event", "delete"),
		slog.Int("lead_id", id),
	)
	return nil
}

// Stats counts leads per workflow state.
func (s *Store) Stats() (*Stats, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	st := &Stats{Total: len(all)}
	for _, l := range all {
		switch l.Status {
		case StatusNew:
			st.New++
		case StatusInProgress:
			st.InProgress++
		case StatusDone:
			st.Done++
		}
	}
	return st, nil
}

// ExportBOM returns the file contents prefixed with a UTF-8 BOM so Excel
// renders Cyrillic correctly.
func (s *Store) ExportBOM() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("leads: read %s: %w", s.path, err)
	}
	return append([]byte{0xEF, 0xBB, 0xBF}, data...), nil
}

// Path returns the CSV file location.
func (s *Store) Path() string {
	return s.path
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}
