package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type fakeMirror struct {
	appended []int64
	removed  []int64
	fail     bool
}

func (m *fakeMirror) AppendTransaction(_ context.Context, tx core.Transaction) (string, error) {
	if m.fail {
		return "", errors.New("mirror unavailable")
	}
	m.appended = append(m.appended, tx.ID)
	return "Transactions!A2:F2", nil
}

func (m *fakeMirror) RemoveTransaction(_ context.Context, id int64) error {
	if m.fail {
		return errors.New("mirror unavailable")
	}
	m.removed = append(m.removed, id)
	return nil
}

func newTestStore(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "worker.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedTx(t *testing.T, repo *storage.SQLiteRepository, desc string) int64 {
	t.Helper()
	date, err := core.ParseDate("2024-03-15")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	id, err := repo.AddTransaction(context.Background(), core.Transaction{
		Date:        date,
		Description: desc,
		Amount:      decimal.RequireFromString("42.50"),
		Category:    "Food & Dining",
		Type:        core.Expense,
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	return id
}

func TestHandleMessageUpsert(t *testing.T) {
	store := newTestStore(t)
	mirror := &fakeMirror{}
	w := NewMirrorWorker(store, mirror, 10)
	ctx := context.Background()

	id := seedTx(t, store, "Coffee")

	if err := w.HandleMessage(ctx, amqp.NewSyncMessage(amqp.ActionUpsert, id)); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(mirror.appended) != 1 || mirror.appended[0] != id {
		t.Errorf("appended = %v, want [%d]", mirror.appended, id)
	}

	pending, err := store.ListPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingSync: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("got %d pending after sync, want 0", len(pending))
	}
}

func TestHandleMessageDelete(t *testing.T) {
	store := newTestStore(t)
	mirror := &fakeMirror{}
	w := NewMirrorWorker(store, mirror, 10)

	if err := w.HandleMessage(context.Background(), amqp.NewSyncMessage(amqp.ActionDelete, 7)); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(mirror.removed) != 1 || mirror.removed[0] != 7 {
		t.Errorf("removed = %v, want [7]", mirror.removed)
	}
}

func TestHandleMessageUnknownActionDropped(t *testing.T) {
	store := newTestStore(t)
	w := NewMirrorWorker(store, &fakeMirror{}, 10)

	msg := amqp.NewSyncMessage("rename", 1)
	if err := w.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("unknown action should not error, got %v", err)
	}
}

func TestHandleMessageMirrorFailureMarksError(t *testing.T) {
	store := newTestStore(t)
	mirror := &fakeMirror{fail: true}
	w := NewMirrorWorker(store, mirror, 10)
	ctx := context.Background()

	id := seedTx(t, store, "Coffee")

	if err := w.HandleMessage(ctx, amqp.NewSyncMessage(amqp.ActionUpsert, id)); err == nil {
		t.Fatal("expected error from failing mirror")
	}

	// Marked as error, so the pending scan no longer retries it.
	pending, err := store.ListPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingSync: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("got %d pending after mirror failure, want 0", len(pending))
	}
}

func TestProcessPending(t *testing.T) {
	store := newTestStore(t)
	mirror := &fakeMirror{}
	w := NewMirrorWorker(store, mirror, 10)
	ctx := context.Background()

	first := seedTx(t, store, "Coffee")
	second := seedTx(t, store, "Lunch")

	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if len(mirror.appended) != 2 {
		t.Fatalf("appended %d transactions, want 2", len(mirror.appended))
	}
	if mirror.appended[0] != first || mirror.appended[1] != second {
		t.Errorf("appended = %v, want oldest first [%d %d]", mirror.appended, first, second)
	}

	// Second run finds nothing to do.
	mirror.appended = nil
	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if len(mirror.appended) != 0 {
		t.Errorf("second run appended %d, want 0", len(mirror.appended))
	}
}

func TestStartupCheck(t *testing.T) {
	store := newTestStore(t)
	mirror := &fakeMirror{}
	w := NewMirrorWorker(store, mirror, 2)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		seedTx(t, store, "Tx")
	}

	if err := w.StartupCheck(ctx); err != nil {
		t.Fatalf("StartupCheck: %v", err)
	}
	// Startup uses a 5x batch, so all five fit.
	if len(mirror.appended) != 5 {
		t.Errorf("appended %d transactions, want 5", len(mirror.appended))
	}
}
