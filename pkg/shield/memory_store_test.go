package shield

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryStore_Roundtrip(t *testing.T) {
	store := NewInMemoryStore()
	defer store.Close()
	ctx := context.Background()

	if got, err := store.Get(ctx, "missing"); err != nil || got != nil {
		t.Errorf("Get(missing) = %v, %v, want nil, nil", got, err)
	}

	session := &AnalystSession{
		AnalystID:     "analyst-1",
		SessionStart:  time.Now().UTC(),
		CasesReviewed: 3,
	}
	if err := store.Save(ctx, session); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "analyst-1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.CasesReviewed != 3 {
		t.Errorf("Get = %+v, want saved session", got)
	}

	// Mutating the returned session must not leak into the store
	got.CasesReviewed = 99
	again, err := store.Get(ctx, "analyst-1")
	if err != nil {
		t.Fatal(err)
	}
	if again.CasesReviewed != 3 {
		t.Error("Get must return a copy, not shared state")
	}
}

func TestInMemoryStore_SaveValidation(t *testing.T) {
	store := NewInMemoryStore()
	defer store.Close()
	ctx := context.Background()

	if err := store.Save(ctx, nil); err == nil {
		t.Error("Save(nil) should fail")
	}
	if err := store.Save(ctx, &AnalystSession{}); err == nil {
		t.Error("Save without analyst ID should fail")
	}
}

func TestInMemoryStore_Delete(t *testing.T) {
	store := NewInMemoryStore()
	defer store.Close()
	ctx := context.Background()

	session := &AnalystSession{AnalystID: "analyst-1", SessionStart: time.Now().UTC()}
	if err := store.Save(ctx, session); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "analyst-1"); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "analyst-1")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("Deleted session should not be returned")
	}
}

func TestInMemoryStore_StaleSessionsNotReturned(t *testing.T) {
	store := NewInMemoryStore(WithMaxAge(time.Millisecond), WithCleanupInterval(time.Hour))
	defer store.Close()
	ctx := context.Background()

	session := &AnalystSession{AnalystID: "analyst-1", SessionStart: time.Now().UTC()}
	if err := store.Save(ctx, session); err != nil {
		t.Fatal(err)
	}

	time.Sleep(5 * time.Millisecond)

	got, err := store.Get(ctx, "analyst-1")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("Stale session should be treated as not found")
	}
}
