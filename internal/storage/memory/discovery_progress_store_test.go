package memory

import (
	"context"
	"errors"
	"testing"

	"core-launchpad/internal/storage"
)

func TestDiscoveryProgressStore_LastProcessed(t *testing.T) {
	store := NewDiscoveryProgressStore()
	ctx := context.Background()

	if _, err := store.GetLastProcessed(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first write, got %v", err)
	}

	if err := store.SetLastProcessed(ctx, &storage.DiscoveryProgress{Block: 10, TxHash: "0xaa"}); err != nil {
		t.Fatalf("SetLastProcessed failed: %v", err)
	}
	if err := store.SetLastProcessed(ctx, &storage.DiscoveryProgress{Block: 12, TxHash: "0xbb"}); err != nil {
		t.Fatalf("SetLastProcessed failed: %v", err)
	}

	got, err := store.GetLastProcessed(ctx)
	if err != nil {
		t.Fatalf("GetLastProcessed failed: %v", err)
	}
	if got.Block != 12 || got.TxHash != "0xbb" {
		t.Errorf("unexpected progress: %+v", got)
	}

	if err := store.SetLastProcessed(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil, got %v", err)
	}
}

func TestDiscoveryProgressStore_SeenPools(t *testing.T) {
	store := NewDiscoveryProgressStore()
	ctx := context.Background()

	seen, err := store.IsPoolSeen(ctx, "0x02")
	if err != nil || seen {
		t.Fatalf("expected unseen pool, got seen=%v err=%v", seen, err)
	}

	for _, p := range []string{"0x02", "0x01", "0x02"} {
		if err := store.MarkPoolSeen(ctx, p); err != nil {
			t.Fatalf("MarkPoolSeen(%s) failed: %v", p, err)
		}
	}

	seen, _ = store.IsPoolSeen(ctx, "0x02")
	if !seen {
		t.Error("expected 0x02 to be seen")
	}

	pools, _ := store.LoadSeenPools(ctx)
	if len(pools) != 2 || pools[0] != "0x01" || pools[1] != "0x02" {
		t.Errorf("unexpected seen pools: %v", pools)
	}

	if _, err := store.IsPoolSeen(ctx, ""); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
