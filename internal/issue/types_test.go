package issue

import (
	"fmt"
	"testing"
)

func TestRelationType_IsValid(t *testing.T) {
	for _, rt := range RelationTypes {
		if !rt.IsValid() {
			t.Errorf("%q should be valid", rt)
		}
	}
	for _, rt := range []RelationType{"", "relates_to", "RELATES", "parent"} {
		if rt.IsValid() {
			t.Errorf("%q should not be valid", rt)
		}
	}
}

func TestRelationType_ConflictsWithRelates(t *testing.T) {
	tests := []struct {
		typ  RelationType
		want bool
	}{
		{Relates, false},
		{Duplicates, true},
		{Duplicated, true},
		{Blocks, true},
		{Blocked, true},
		{Precedes, true},
		{Follows, true},
		{CopiedTo, true},
		{CopiedFrom, true},
		{"unknown", false},
	}
	for _, tt := range tests {
		if got := tt.typ.ConflictsWithRelates(); got != tt.want {
			t.Errorf("%q.ConflictsWithRelates() = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestIssue_IsParentOf(t *testing.T) {
	parentID := int64(1)
	parent := &Issue{ID: 1}
	child := &Issue{ID: 2, ParentID: &parentID}
	orphan := &Issue{ID: 3}

	if !parent.IsParentOf(child) {
		t.Error("1 should be parent of 2")
	}
	if child.IsParentOf(parent) {
		t.Error("2 should not be parent of 1")
	}
	if parent.IsParentOf(orphan) {
		t.Error("orphan has no parent")
	}
}

func TestIsValidation(t *testing.T) {
	ve := NewValidationError("relation already exists")
	if !IsValidation(ve) {
		t.Error("bare ValidationError not detected")
	}
	if !IsValidation(fmt.Errorf("creating relation: %w", ve)) {
		t.Error("wrapped ValidationError not detected")
	}
	if IsValidation(ErrNotFound) {
		t.Error("ErrNotFound is not a validation error")
	}
	if ve.Error() != "validation failed: relation already exists" {
		t.Errorf("Error() = %q", ve.Error())
	}
}
