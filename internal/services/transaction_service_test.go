package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

type fakeStore struct {
	ledger.Store

	nextID    int64
	added     []core.Transaction
	deleted   []int64
	addErr    error
	deleteErr error
}

func (s *fakeStore) AddTransaction(_ context.Context, tx core.Transaction) (int64, error) {
	if s.addErr != nil {
		return 0, s.addErr
	}
	s.nextID++
	s.added = append(s.added, tx)
	return s.nextID, nil
}

func (s *fakeStore) DeleteTransaction(_ context.Context, id int64) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	return nil
}

type fakePublisher struct {
	published []string
	err       error
}

func (p *fakePublisher) PublishSync(_ context.Context, action string, id int64) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, action)
	return nil
}

func sampleTx() core.Transaction {
	date, _ := core.ParseDate("2024-03-15")
	return core.Transaction{
		Date:        date,
		Description: "Coffee",
		Amount:      decimal.RequireFromString("4.50"),
		Category:    "Food & Dining",
		Type:        core.Expense,
	}
}

func TestCreateTransactionPublishesSync(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := NewTransactionService(store, pub)

	id, err := svc.CreateTransaction(context.Background(), sampleTx())
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if id != 1 {
		t.Errorf("id = %d, want 1", id)
	}
	if len(pub.published) != 1 || pub.published[0] != "upsert" {
		t.Errorf("published = %v, want [upsert]", pub.published)
	}
}

func TestCreateTransactionStoreFailure(t *testing.T) {
	store := &fakeStore{addErr: errors.New("disk full")}
	pub := &fakePublisher{}
	svc := NewTransactionService(store, pub)

	if _, err := svc.CreateTransaction(context.Background(), sampleTx()); err == nil {
		t.Fatal("expected error from store failure")
	}
	if len(pub.published) != 0 {
		t.Errorf("published %v despite store failure", pub.published)
	}
}

func TestCreateTransactionPublishFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewTransactionService(store, pub)

	id, err := svc.CreateTransaction(context.Background(), sampleTx())
	if err != nil {
		t.Fatalf("CreateTransaction should succeed when publish fails, got %v", err)
	}
	if id != 1 {
		t.Errorf("id = %d, want 1", id)
	}
}

func TestCreateTransactionWithoutPublisher(t *testing.T) {
	store := &fakeStore{}
	svc := NewTransactionService(store, nil)

	if _, err := svc.CreateTransaction(context.Background(), sampleTx()); err != nil {
		t.Fatalf("CreateTransaction without publisher: %v", err)
	}
}

func TestDeleteTransactionPublishesDelete(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := NewTransactionService(store, pub)

	if err := svc.DeleteTransaction(context.Background(), 5); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != 5 {
		t.Errorf("deleted = %v, want [5]", store.deleted)
	}
	if len(pub.published) != 1 || pub.published[0] != "delete" {
		t.Errorf("published = %v, want [delete]", pub.published)
	}
}

func TestDeleteTransactionNotFound(t *testing.T) {
	store := &fakeStore{deleteErr: core.ErrNotFound}
	pub := &fakePublisher{}
	svc := NewTransactionService(store, pub)

	err := svc.DeleteTransaction(context.Background(), 99)
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want core.ErrNotFound", err)
	}
	if len(pub.published) != 0 {
		t.Errorf("published %v for missing transaction", pub.published)
	}
}
