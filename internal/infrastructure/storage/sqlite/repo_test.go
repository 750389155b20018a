package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
)

func TestSQLiteRepoSaveAndLookup(t *testing.T) {
	repo, err := New(filepath.Join(t.TempDir(), "symbols.db"))
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	err = repo.SaveStreamerSymbols(ctx, map[string]string{
		"AAPL":                  "AAPL",
		"SPX":                   "$SPX.X",
		"AAPL  240119C00190000": ".AAPL240119C190",
	})
	if err != nil {
		t.Fatalf("SaveStreamerSymbols failed: %v", err)
	}

	got, err := repo.LookupStreamerSymbols(ctx, []string{"SPX", "AAPL  240119C00190000", "MSFT"})
	if err != nil {
		t.Fatalf("LookupStreamerSymbols failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %v", got)
	}
	if got["SPX"] != "$SPX.X" || got["AAPL  240119C00190000"] != ".AAPL240119C190" {
		t.Errorf("unexpected entries %v", got)
	}
}

func TestSQLiteRepoUpsertReplaces(t *testing.T) {
	repo, err := New(filepath.Join(t.TempDir(), "nested", "symbols.db"))
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	if err := repo.SaveStreamerSymbols(ctx, map[string]string{"/ES": "/ESZ24:XCME"}); err != nil {
		t.Fatalf("SaveStreamerSymbols failed: %v", err)
	}
	if err := repo.SaveStreamerSymbols(ctx, map[string]string{"/ES": "/ESH25:XCME"}); err != nil {
		t.Fatalf("SaveStreamerSymbols failed: %v", err)
	}
	got, err := repo.LookupStreamerSymbols(ctx, []string{"/ES"})
	if err != nil {
		t.Fatalf("LookupStreamerSymbols failed: %v", err)
	}
	if got["/ES"] != "/ESH25:XCME" {
		t.Errorf("expected latest value, got %q", got["/ES"])
	}
}

func TestSQLiteRepoLookupBatches(t *testing.T) {
	repo, err := New(filepath.Join(t.TempDir(), "symbols.db"))
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	entries := map[string]string{}
	symbols := make([]string, 0, 1200)
	for i := 0; i < 1200; i++ {
		s := fmt.Sprintf("SYM%d", i)
		entries[s] = "." + s
		symbols = append(symbols, s)
	}
	if err := repo.SaveStreamerSymbols(ctx, entries); err != nil {
		t.Fatalf("SaveStreamerSymbols failed: %v", err)
	}
	got, err := repo.LookupStreamerSymbols(ctx, symbols)
	if err != nil {
		t.Fatalf("LookupStreamerSymbols failed: %v", err)
	}
	if len(got) != len(symbols) {
		t.Errorf("expected %d entries, got %d", len(symbols), len(got))
	}
}
