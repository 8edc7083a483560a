package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/model"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/storage"
)

func TestSaveAssignsID(t *testing.T) {
	store := New()
	u := &model.User{Email: "a@example.org"}

	if err := store.Save(context.Background(), u); err != nil {
		t.Fatalf("save: %v", err)
	}
	if u.ID == "" {
		t.Fatalf("expected an id to be assigned")
	}
}

func TestFindByCriteria(t *testing.T) {
	store := New()
	ctx := context.Background()

	for _, email := range []string{"a@example.org", "b@example.org"} {
		if err := store.Save(ctx, &model.User{Email: email}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	found, err := store.FindByCriteria(ctx, model.KindUser, storage.Criteria{"email": "b@example.org"})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 match, got %d", len(found))
	}

	all, err := store.FindAll(ctx, model.KindUser)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 users, got %d", len(all))
	}
}

func TestRelationshipPairUniqueness(t *testing.T) {
	store := New()
	ctx := context.Background()

	first := &model.Relationship{SubjectKind: "project", SubjectID: "p1", FollowerID: "u1"}
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	// Re-saving the same record is an update, not a duplicate.
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("re-save: %v", err)
	}

	dup := &model.Relationship{SubjectKind: "project", SubjectID: "p1", FollowerID: "u1"}
	if err := store.Save(ctx, dup); !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := New()
	ctx := context.Background()

	u := &model.User{Email: "a@example.org"}
	if err := store.Save(ctx, u); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, u); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, u); err != nil {
		t.Fatalf("second delete must be a no-op, got %v", err)
	}

	all, _ := store.FindAll(ctx, model.KindUser)
	if len(all) != 0 {
		t.Fatalf("expected empty store, got %d", len(all))
	}
}
