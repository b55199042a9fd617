package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HendryAvila/autorelate/internal/issue"
	"github.com/HendryAvila/autorelate/internal/store"
)

var ctx = context.Background()

// newTestStore creates a Store backed by a temp directory for isolation.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(store.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedIssue creates an issue and returns its ID.
func seedIssue(t *testing.T, s *store.Store, subject, description string) int64 {
	t.Helper()
	id, err := s.CreateIssue(ctx, store.CreateIssueParams{Subject: subject, Description: description})
	if err != nil {
		t.Fatalf("seed issue %q: %v", subject, err)
	}
	return id
}

func seedChild(t *testing.T, s *store.Store, subject string, parent int64) int64 {
	t.Helper()
	id, err := s.CreateIssue(ctx, store.CreateIssueParams{Subject: subject, ParentID: &parent})
	if err != nil {
		t.Fatalf("seed child %q: %v", subject, err)
	}
	return id
}

func seedRelation(t *testing.T, s *store.Store, from, to int64, typ issue.RelationType) int64 {
	t.Helper()
	id, err := s.CreateRelation(ctx, from, to, typ)
	if err != nil {
		t.Fatalf("seed relation #%d → #%d: %v", from, to, err)
	}
	return id
}

func strPtr(s string) *string { return &s }

// ─── New / Initialization ───────────────────────────────────────────────────

func TestNew_CreatesDBFile(t *testing.T) {
	dir := t.TempDir()
	s, err := store.New(store.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dir, "issues.db")); err != nil {
		t.Fatalf("database file missing: %v", err)
	}
}

func TestNew_AppliesDefaults(t *testing.T) {
	s := newTestStore(t)
	cfg := s.Config()
	if cfg.MaxDescriptionLength != store.DefaultConfig().MaxDescriptionLength {
		t.Errorf("MaxDescriptionLength = %d", cfg.MaxDescriptionLength)
	}
	if cfg.MaxContextDepth != 5 {
		t.Errorf("MaxContextDepth = %d, want 5", cfg.MaxContextDepth)
	}
}

func TestNew_IdempotentReopen(t *testing.T) {
	dir := t.TempDir()

	s1, err := store.New(store.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	id := seedIssue(t, s1, "Persisted", "")
	s1.Close()

	s2, err := store.New(store.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s2.Close()

	it, err := s2.GetIssue(ctx, id)
	if err != nil {
		t.Fatalf("issue not found after reopen: %v", err)
	}
	if it.Subject != "Persisted" {
		t.Errorf("Subject = %q, want %q", it.Subject, "Persisted")
	}
}

// ─── Issues ─────────────────────────────────────────────────────────────────

func TestCreateIssue_Basic(t *testing.T) {
	s := newTestStore(t)
	id := seedIssue(t, s, "  Login fails  ", "See #2")

	it, err := s.GetIssue(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if it.Subject != "Login fails" {
		t.Errorf("Subject = %q, want trimmed", it.Subject)
	}
	if it.Description != "See #2" {
		t.Errorf("Description = %q", it.Description)
	}
	if it.ParentID != nil {
		t.Errorf("ParentID = %v, want nil", *it.ParentID)
	}
}

func TestCreateIssue_RequiresSubject(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateIssue(ctx, store.CreateIssueParams{Subject: "   "}); err == nil {
		t.Error("expected error for blank subject")
	}
}

func TestCreateIssue_WithParent(t *testing.T) {
	s := newTestStore(t)
	parent := seedIssue(t, s, "Epic", "")
	child := seedChild(t, s, "Task", parent)

	it, err := s.GetIssue(ctx, child)
	if err != nil {
		t.Fatal(err)
	}
	if it.ParentID == nil || *it.ParentID != parent {
		t.Errorf("ParentID = %v, want %d", it.ParentID, parent)
	}
}

func TestCreateIssue_MissingParent(t *testing.T) {
	s := newTestStore(t)
	missing := int64(404)
	_, err := s.CreateIssue(ctx, store.CreateIssueParams{Subject: "Orphan", ParentID: &missing})
	if !errors.Is(err, issue.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func newShortStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(store.Config{DataDir: t.TempDir(), MaxDescriptionLength: 10})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateIssue_RejectsLongDescription(t *testing.T) {
	s := newShortStore(t)

	tests := []struct {
		name string
		desc string
	}{
		{"trailing reference", "see:   #12345"},
		{"multi-byte rune at the limit", "abcdefghié"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateIssue(ctx, store.CreateIssueParams{Subject: "Long", Description: tt.desc})
			if !issue.IsValidation(err) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if !strings.Contains(err.Error(), "exceeds 10 bytes") {
				t.Errorf("err = %q", err)
			}
		})
	}

	st, _ := s.Stats(ctx)
	if st.TotalIssues != 0 {
		t.Errorf("issues = %d, want none stored", st.TotalIssues)
	}
}

func TestCreateIssue_DescriptionAtLimit(t *testing.T) {
	s := newShortStore(t)
	id := seedIssue(t, s, "Exact", "see #1234")
	it, _ := s.GetIssue(ctx, id)
	if it.Description != "see #1234" {
		t.Errorf("Description = %q", it.Description)
	}
}

func TestGetIssue_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetIssue(ctx, 999)
	if !errors.Is(err, issue.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// ─── Edits ──────────────────────────────────────────────────────────────────

func TestEdit_NoteOnly(t *testing.T) {
	s := newTestStore(t)
	id := seedIssue(t, s, "A", "original #9")

	ev, err := s.Edit(ctx, id, store.EditParams{Notes: " see #2 "})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if ev.IssueID != id || ev.Notes != "see #2" {
		t.Errorf("event = %+v", ev)
	}
	if ev.DescriptionChanged {
		t.Error("DescriptionChanged should be false for a note-only edit")
	}
	if ev.Description != "" {
		t.Errorf("Description = %q, want empty when unchanged", ev.Description)
	}
}

func TestEdit_DescriptionChange(t *testing.T) {
	s := newTestStore(t)
	id := seedIssue(t, s, "A", "old")

	ev, err := s.Edit(ctx, id, store.EditParams{Description: strPtr("now mentions #3")})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if !ev.DescriptionChanged || ev.Description != "now mentions #3" {
		t.Errorf("event = %+v", ev)
	}

	it, _ := s.GetIssue(ctx, id)
	if it.Description != "now mentions #3" {
		t.Errorf("stored description = %q", it.Description)
	}
}

func TestEdit_SameDescriptionIsNotAChange(t *testing.T) {
	s := newTestStore(t)
	id := seedIssue(t, s, "A", "same #3")

	ev, err := s.Edit(ctx, id, store.EditParams{Notes: "bump", Description: strPtr("same #3")})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if ev.DescriptionChanged {
		t.Error("unchanged description must not be reported as changed")
	}
}

func TestEdit_EmptyEditRejected(t *testing.T) {
	s := newTestStore(t)
	id := seedIssue(t, s, "A", "same")

	if _, err := s.Edit(ctx, id, store.EditParams{Description: strPtr("same")}); err == nil {
		t.Error("expected error for an edit with no effect")
	}
	journals, _ := s.Journals(ctx, id)
	if len(journals) != 0 {
		t.Errorf("journals = %d, want 0", len(journals))
	}
}

func TestEdit_RejectsLongDescription(t *testing.T) {
	s := newShortStore(t)
	id := seedIssue(t, s, "A", "old")

	_, err := s.Edit(ctx, id, store.EditParams{Notes: "n", Description: strPtr("see:   #12345")})
	if !issue.IsValidation(err) {
		t.Fatalf("err = %v, want ValidationError", err)
	}

	it, _ := s.GetIssue(ctx, id)
	if it.Description != "old" {
		t.Errorf("description = %q, want unchanged", it.Description)
	}
	if journals, _ := s.Journals(ctx, id); len(journals) != 0 {
		t.Errorf("journals = %d, want 0", len(journals))
	}
}

func TestEdit_UnknownIssue(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Edit(ctx, 77, store.EditParams{Notes: "hello"})
	if !errors.Is(err, issue.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestEdit_WritesJournal(t *testing.T) {
	s := newTestStore(t)
	id := seedIssue(t, s, "A", "")

	if _, err := s.Edit(ctx, id, store.EditParams{Notes: "first"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Edit(ctx, id, store.EditParams{Description: strPtr("new")}); err != nil {
		t.Fatal(err)
	}

	journals, err := s.Journals(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(journals) != 2 {
		t.Fatalf("journals = %d, want 2", len(journals))
	}
	if journals[0].Notes != "first" || journals[0].DescriptionChanged {
		t.Errorf("journal[0] = %+v", journals[0])
	}
	if journals[1].Notes != "" || !journals[1].DescriptionChanged {
		t.Errorf("journal[1] = %+v", journals[1])
	}
}

func TestEdit_JournalFailureRollsBack(t *testing.T) {
	s := newTestStore(t)
	id := seedIssue(t, s, "A", "old")
	s.FailExecMatching("INSERT INTO journals", errors.New("disk full"))

	if _, err := s.Edit(ctx, id, store.EditParams{Description: strPtr("new")}); err == nil {
		t.Fatal("expected error")
	}

	it, _ := s.GetIssue(ctx, id)
	if it.Description != "old" {
		t.Errorf("description = %q, want rollback to %q", it.Description, "old")
	}
}

// ─── Stats ──────────────────────────────────────────────────────────────────

func TestStats(t *testing.T) {
	s := newTestStore(t)
	a := seedIssue(t, s, "A", "")
	b := seedIssue(t, s, "B", "")
	c := seedIssue(t, s, "C", "")
	seedRelation(t, s, a, b, issue.Relates)
	seedRelation(t, s, a, c, issue.Relates)
	seedRelation(t, s, b, c, issue.Blocks)
	if _, err := s.Edit(ctx, a, store.EditParams{Notes: "n"}); err != nil {
		t.Fatal(err)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalIssues != 3 || st.TotalJournals != 1 || st.TotalRelations != 3 {
		t.Errorf("stats = %+v", st)
	}
	if st.RelationsByType[issue.Relates] != 2 || st.RelationsByType[issue.Blocks] != 1 {
		t.Errorf("by type = %v", st.RelationsByType)
	}
}
