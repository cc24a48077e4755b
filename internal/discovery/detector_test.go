package discovery

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"core-launchpad/internal/storage"
	"core-launchpad/internal/storage/memory"
)

func TestDetector_FirstObservationOnly(t *testing.T) {
	detector := NewPoolDetector(memory.NewDiscoveryProgressStore())
	ctx := context.Background()

	isNew, err := detector.Observe(ctx, "0xABC")
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if !isNew {
		t.Fatal("Expected first observation to be new")
	}

	isNew, err = detector.Observe(ctx, "0xabc")
	if err != nil {
		t.Fatalf("Observe (2) failed: %v", err)
	}
	if isNew {
		t.Error("Same pool in different case should not be new again")
	}
}

func TestDetector_SurvivesRestart(t *testing.T) {
	store := memory.NewDiscoveryProgressStore()
	ctx := context.Background()

	first := NewPoolDetector(store)
	if _, err := first.Observe(ctx, "0x01"); err != nil {
		t.Fatalf("Observe failed: %v", err)
	}

	second := NewPoolDetector(store)
	n, err := second.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 loaded pool, got %d", n)
	}

	isNew, err := second.Observe(ctx, "0x01")
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if isNew {
		t.Error("Pool seen before restart should not be new")
	}
}

func TestDetector_StoreCheckedOnCacheMiss(t *testing.T) {
	store := memory.NewDiscoveryProgressStore()
	ctx := context.Background()
	if err := store.MarkPoolSeen(ctx, "0x02"); err != nil {
		t.Fatalf("MarkPoolSeen failed: %v", err)
	}

	detector := NewPoolDetector(store)
	isNew, err := detector.Observe(ctx, "0x02")
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if isNew {
		t.Error("Pool already in store should not be new")
	}
	if detector.Known() != 1 {
		t.Errorf("Expected pool to be cached, known=%d", detector.Known())
	}
}

func TestDetector_MemoryOnly(t *testing.T) {
	detector := NewPoolDetector(nil)
	ctx := context.Background()

	fresh := detector.ObserveAll(ctx, []string{"0x01", "0x02", "0x01"}, zap.NewNop())
	if len(fresh) != 2 {
		t.Fatalf("Expected 2 new pools, got %v", fresh)
	}

	detector.Reset()
	if detector.Known() != 0 {
		t.Error("Reset should clear the cache")
	}
}

type failingStore struct {
	storage.DiscoveryProgressStore
}

func (failingStore) IsPoolSeen(context.Context, string) (bool, error) {
	return false, errors.New("db down")
}

func TestDetector_StoreErrorLeavesPoolUnseen(t *testing.T) {
	detector := NewPoolDetector(failingStore{memory.NewDiscoveryProgressStore()})

	fresh := detector.ObserveAll(context.Background(), []string{"0x01"}, zap.NewNop())
	if len(fresh) != 0 {
		t.Errorf("Expected no new pools on store error, got %v", fresh)
	}
	if detector.Known() != 0 {
		t.Error("Pool should stay unseen after a store error")
	}
}
