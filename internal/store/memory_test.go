package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func TestMemoryHistoryWindow(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)
	userID := int64(1)

	for i := 0; i < 13; i++ {
		err := m.AppendHistory(ctx, userID, Entry{Role: RoleUser, Content: fmt.Sprintf("msg-%d", i)})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	entries, err := m.LoadHistory(ctx, userID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 10 {
		t.Fatalf("want 10 entries, got %d", len(entries))
	}
	if entries[0].Content != "msg-3" || entries[9].Content != "msg-12" {
		t.Fatalf("unexpected window: first=%q last=%q", entries[0].Content, entries[9].Content)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Seq <= entries[i-1].Seq {
			t.Fatalf("seq not strictly increasing at %d: %d then %d", i, entries[i-1].Seq, entries[i].Seq)
		}
	}
}

func TestMemoryUnknownUserEmpty(t *testing.T) {
	m := NewMemory(10)
	entries, err := m.LoadHistory(context.Background(), 404)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("want empty history, got %d entries", len(entries))
	}
}

func TestMemoryLoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)
	_ = m.AppendHistory(ctx, 1, Entry{Role: RoleUser, Content: "hello"})

	entries, _ := m.LoadHistory(ctx, 1)
	entries[0].Content = "mutated"

	again, _ := m.LoadHistory(ctx, 1)
	if again[0].Content != "hello" {
		t.Fatalf("internal state mutated via returned slice")
	}
}

func TestMemoryIncrementUsageLimit(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)
	userID := int64(42)

	for i := 1; i <= 15; i++ {
		count, ok, err := m.IncrementUsage(ctx, userID, 15)
		if err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
		if !ok || count != i {
			t.Fatalf("increment %d: ok=%v count=%d", i, ok, count)
		}
	}

	count, ok, err := m.IncrementUsage(ctx, userID, 15)
	if err != nil {
		t.Fatalf("increment past limit: %v", err)
	}
	if ok {
		t.Fatalf("admitted past the limit")
	}
	if count != 15 {
		t.Fatalf("denied attempt charged the counter: %d", count)
	}

	got, err := m.UsageCount(ctx, userID)
	if err != nil || got != 15 {
		t.Fatalf("usage count after denial: %d, %v", got, err)
	}
}

func TestMemoryConcurrentAppendsKeepWindow(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)
	userID := int64(7)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				_ = m.AppendHistory(ctx, userID,
					Entry{Role: RoleUser, Content: fmt.Sprintf("g%d-u%d", g, i)},
					Entry{Role: RoleAssistant, Content: fmt.Sprintf("g%d-a%d", g, i)},
				)
			}
		}(g)
	}
	wg.Wait()

	entries, err := m.LoadHistory(ctx, userID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 10 {
		t.Fatalf("window violated under concurrency: %d entries", len(entries))
	}
	seen := make(map[int64]bool)
	for i, e := range entries {
		if seen[e.Seq] {
			t.Fatalf("duplicate seq %d", e.Seq)
		}
		seen[e.Seq] = true
		if i > 0 && e.Seq != entries[i-1].Seq+1 {
			t.Fatalf("gap inside window: %d after %d", e.Seq, entries[i-1].Seq)
		}
	}
}

func TestMemoryConcurrentIncrementsNoLostUpdate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)
	userID := int64(9)
	limit := 1000

	var wg sync.WaitGroup
	admitted := make([]int, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if _, ok, _ := m.IncrementUsage(ctx, userID, limit); ok {
					admitted[g]++
				}
			}
		}(g)
	}
	wg.Wait()

	total := 0
	for _, n := range admitted {
		total += n
	}
	count, err := m.UsageCount(ctx, userID)
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if count != total {
		t.Fatalf("lost update: %d admitted but count=%d", total, count)
	}
}

func TestMemoryUsersListsOnlyCharged(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)
	_, _, _ = m.IncrementUsage(ctx, 1, 5)
	_ = m.AppendHistory(ctx, 2, Entry{Role: RoleUser, Content: "no quota yet"})

	ids, err := m.Users(ctx)
	if err != nil {
		t.Fatalf("users: %v", err)
	}
	if len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("unexpected users: %v", ids)
	}
}
