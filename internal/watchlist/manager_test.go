package watchlist

import (
	"path/filepath"
	"slices"
	"testing"
)

func TestNewManager_Seeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "watchlist.json")
	m, err := NewManager(path, []string{"btcusdt", "ETHUSDT", "BTCUSDT"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.Symbols(); !slices.Equal(got, []string{"BTCUSDT", "ETHUSDT"}) {
		t.Errorf("unexpected seed %v", got)
	}

	// a second start keeps the persisted list and ignores the seed
	if _, err := m.Remove("ETHUSDT"); err != nil {
		t.Fatal(err)
	}
	again, err := NewManager(path, []string{"SOLUSDT"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := again.Symbols(); !slices.Equal(got, []string{"BTCUSDT"}) {
		t.Errorf("expected persisted list, got %v", got)
	}
}

func TestNewManager_BadSeed(t *testing.T) {
	if _, err := NewManager(filepath.Join(t.TempDir(), "w.json"), []string{"BTC/USDT"}); err == nil {
		t.Error("expected an invalid symbol error")
	}
}

func TestAddRemove(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "w.json"), nil)
	if err != nil {
		t.Fatal(err)
	}

	if added, err := m.Add(" solusdt "); err != nil || !added {
		t.Fatalf("expected add, got %v %v", added, err)
	}
	if added, _ := m.Add("SOLUSDT"); added {
		t.Error("duplicate add should report false")
	}
	if !m.Contains("solusdt") {
		t.Error("expected SOLUSDT to be watched")
	}
	if _, err := m.Add("not a symbol"); err == nil {
		t.Error("expected invalid symbol error")
	}

	if removed, err := m.Remove("SOLUSDT"); err != nil || !removed {
		t.Fatalf("expected remove, got %v %v", removed, err)
	}
	if removed, _ := m.Remove("SOLUSDT"); removed {
		t.Error("second remove should report false")
	}
	if len(m.Symbols()) != 0 {
		t.Errorf("expected empty watchlist, got %v", m.Symbols())
	}
}

func TestSymbolsReturnsCopy(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "w.json"), []string{"BTCUSDT"})
	if err != nil {
		t.Fatal(err)
	}
	s := m.Symbols()
	s[0] = "MUTATED"
	if m.Symbols()[0] != "BTCUSDT" {
		t.Error("Symbols must not expose internal state")
	}
}
