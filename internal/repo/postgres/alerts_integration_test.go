//go:build integration

package postgres

// go test -tags=integration ./internal/repo/postgres -run AlertsCRUD -count=1

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestAlertsCRUD(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	id := fmt.Sprintf("alert-%d", time.Now().UnixNano())

	// none yet
	rec, err := store.Get(ctx, id)
	if err != nil || rec != nil {
		t.Fatalf("expected nil, got %+v err=%v", rec, err)
	}

	// set (no sent time)
	if err := store.Set(ctx, id, false, time.Time{}); err != nil {
		t.Fatalf("set: %v", err)
	}
	rec, err = store.Get(ctx, id)
	if err != nil || rec == nil || rec.LastSentAt != nil || rec.LastState {
		t.Fatalf("unexpected: %+v err=%v", rec, err)
	}

	// set with sent time
	if err := store.Set(ctx, id, true, time.Now()); err != nil {
		t.Fatalf("set2: %v", err)
	}
	rec, err = store.Get(ctx, id)
	if err != nil || rec == nil || rec.LastSentAt == nil || !rec.LastState {
		t.Fatalf("unexpected2: %+v err=%v", rec, err)
	}

	// keys are case-insensitive
	if err := store.Set(ctx, " "+strings.ToUpper(id), false, time.Time{}); err != nil {
		t.Fatalf("set3: %v", err)
	}
	rec, err = store.Get(ctx, id)
	if err != nil || rec == nil || rec.LastState {
		t.Fatalf("unexpected3: %+v err=%v", rec, err)
	}
}
