package leads

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"meatbot/core/logger"
)

func TestMain(m *testing.M) {
	_ = logger.InitLogger(nil)
	os.Exit(m.Run())
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "leads.csv"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestOpenCreatesFileWithHeader(t *testing.T) {
	s := newStore(t)

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	got := strings.TrimSpace(string(data))
	want := "timestamp,user_id,name,phone,email,message,status,updated_at"
	if got != want {
		t.Fatalf("header = %q, want %q", got, want)
	}
}

func TestAppendAndRead(t *testing.T) {
	s := newStore(t)
	s.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }

	lead, err := s.Append(42, "Иван Петров", "+79161234567", "ivan@example.com", "перезвоните")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if lead.ID != 1 {
		t.Errorf("ID = %d, want 1", lead.ID)
	}
	if lead.Status != StatusNew {
		t.Errorf("Status = %q, want %q", lead.Status, StatusNew)
	}
	if lead.UpdatedAt != lead.Timestamp {
		t.Errorf("UpdatedAt = %q, want timestamp %q", lead.UpdatedAt, lead.Timestamp)
	}

	got, err := s.ByID(1)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if got.Name != "Иван Петров" || got.UserID != 42 {
		t.Errorf("ByID = %+v", got)
	}
}

func TestAllNewestFirst(t *testing.T) {
	s := newStore(t)
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		offset := time.Duration(i) * time.Minute
		s.now = func() time.Time { return base.Add(offset) }
		if _, err := s.Append(int64(i+1), "Клиент", "+79160000000", "a@b.ru", ""); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	all, err := s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].ID != 3 || all[2].ID != 1 {
		t.Errorf("order = %d,%d,%d, want 3,2,1", all[0].ID, all[1].ID, all[2].ID)
	}
}

func TestUpdateStatusTouchesUpdatedAt(t *testing.T) {
	s := newStore(t)
	s.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }
	if _, err := s.Append(1, "Анна", "+79161112233", "anna@example.com", "вопрос"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	s.now = func() time.Time { return time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC) }
	if err := s.UpdateStatus(1, StatusInProgress); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	lead, err := s.ByID(1)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if lead.Status != StatusInProgress {
		t.Errorf("Status = %q, want %q", lead.Status, StatusInProgress)
	}
	if lead.UpdatedAt != "2026-08-31 09:30:00" {
		t.Errorf("UpdatedAt = %q", lead.UpdatedAt)
	}

	if err := s.UpdateStatus(99, StatusDone); err != ErrNotFound {
		t.Errorf("UpdateStatus(99) = %v, want ErrNotFound", err)
	}
	if err := s.UpdateStatus(1, Status("Чужая")); err == nil {
		t.Error("unknown status accepted")
	}
}

func TestUpdateStatusKeepsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "leads.csv")
	content := "timestamp,user_id,name,phone,email,message,status,updated_at\n" +
		"2026-08-29 10:00:00,1,Анна,+79161112233,anna@example.com,вопрос,Новая,2026-08-29 10:00:00\n" +
		"оборванная строка\n" +
		"2026-08-29 11:00:00,2,Пётр,+79161234567,petr@example.com,заказ,Новая,2026-08-29 11:00:00\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// The damaged second row cannot take a status.
	if err := s.UpdateStatus(2, StatusDone); err != ErrNotFound {
		t.Fatalf("UpdateStatus(malformed) = %v, want ErrNotFound", err)
	}

	// Updating the third lead must not drop the row above it.
	if err := s.UpdateStatus(3, StatusDone); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	lead, err := s.ByID(3)
	if err != nil {
		t.Fatalf("ByID(3): %v", err)
	}
	if lead.UserID != 2 || lead.Status != StatusDone {
		t.Errorf("lead 3 = user %d status %q, want user 2 done", lead.UserID, lead.Status)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "оборванная строка") {
		t.Error("malformed row dropped by rewrite")
	}
}

func TestDeleteShiftsIDs(t *testing.T) {
	s := newStore(t)
	for i := 0; i < 3; i++ {
		if _, err := s.Append(int64(i+1), "Клиент", "+79160000000", "a@b.ru", ""); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	if err := s.Delete(2); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	all, err := s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	// The third lead is now row 2.
	lead, err := s.ByID(2)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if lead.UserID != 3 {
		t.Errorf("UserID = %d, want 3", lead.UserID)
	}

	if err := s.Delete(99); err != ErrNotFound {
		t.Errorf("Delete(99) = %v, want ErrNotFound", err)
	}
}

func TestByStatusAndStats(t *testing.T) {
	s := newStore(t)
	for i := 0; i < 3; i++ {
		if _, err := s.Append(int64(i+1), "Клиент", "+79160000000", "a@b.ru", ""); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := s.UpdateStatus(1, StatusDone); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	fresh, err := s.ByStatus(StatusNew)
	if err != nil {
		t.Fatalf("ByStatus: %v", err)
	}
	if len(fresh) != 2 {
		t.Errorf("new leads = %d, want 2", len(fresh))
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 || stats.New != 2 || stats.Done != 1 || stats.InProgress != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestMigrateV1(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "leads.csv")
	v1 := "timestamp,user_id,name,phone,email,message\n" +
		"2026-08-29 10:00:00,7,Пётр,+79161234567,petr@example.com,хочу заказать\n"
	if err := os.WriteFile(path, []byte(v1), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	lead, err := s.ByID(1)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if lead.Status != StatusNew {
		t.Errorf("Status = %q, want %q", lead.Status, StatusNew)
	}
	if lead.UpdatedAt != "2026-08-29 10:00:00" {
		t.Errorf("UpdatedAt = %q, want original timestamp", lead.UpdatedAt)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(strings.SplitN(string(data), "\n", 2)[0], "updated_at") {
		t.Error("file not rewritten with V2 header")
	}

	// A second open must not touch the data again.
	if _, err := Open(path); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	again, _ := os.ReadFile(path)
	if string(again) != string(data) {
		t.Error("reopen modified a migrated file")
	}
}

func TestExportBOM(t *testing.T) {
	s := newStore(t)
	if _, err := s.Append(1, "Ольга", "+79161234567", "olga@example.com", ""); err != nil {
		t.Fatalf("Append: %v", err)
	}

	data, err := s.ExportBOM()
	if err != nil {
		t.Fatalf("ExportBOM: %v", err)
	}
	if len(data) < 3 || data[0] != 0xEF || data[1] != 0xBB || data[2] != 0xBF {
		t.Fatal("missing UTF-8 BOM")
	}
	if !strings.Contains(string(data[3:]), "Ольга") {
		t.Error("exported data missing lead row")
	}
}
