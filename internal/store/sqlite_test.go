package store_test

import (
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/HendryAvila/autorelate/internal/store"
)

func TestPragmas_WALAndForeignKeys(t *testing.T) {
	s := newTestStore(t)

	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	var fk int
	if err := s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestNew_OpenFailure(t *testing.T) {
	restore := store.SetOpenDB(func(string, string) (*sql.DB, error) {
		return nil, errors.New("no driver")
	})
	defer restore()

	_, err := store.New(store.Config{DataDir: t.TempDir()})
	if err == nil || !strings.Contains(err.Error(), "open database") {
		t.Errorf("err = %v, want open database error", err)
	}
}

func TestNew_DSNCarriesPragmas(t *testing.T) {
	var gotDSN string
	restore := store.SetOpenDB(func(driver, dsn string) (*sql.DB, error) {
		gotDSN = dsn
		return sql.Open(driver, dsn)
	})
	defer restore()

	s, err := store.New(store.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if !strings.Contains(gotDSN, "foreign_keys(1)") {
		t.Errorf("dsn = %q, want foreign_keys pragma", gotDSN)
	}
}
