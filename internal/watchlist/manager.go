package watchlist

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{2,20}$`)

// Normalize upper-cases and trims a symbol and checks it looks like an exchange pair.
func Normalize(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if !symbolPattern.MatchString(s) {
		return "", fmt.Errorf("invalid symbol %q", symbol)
	}
	return s, nil
}

// Manager guards the watchlist and persists every change.
type Manager struct {
	mu       sync.Mutex
	state    *State
	filePath string
}

// NewManager loads the watchlist from disk, seeding it with the given symbols
// the first time.
func NewManager(filePath string, seed []string) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, fmt.Errorf("load watchlist: %w", err)
	}

	if !state.Initialized {
		for _, s := range seed {
			n, err := Normalize(s)
			if err != nil {
				return nil, err
			}
			if !slices.Contains(state.Symbols, n) {
				state.Symbols = append(state.Symbols, n)
			}
		}
		state.Initialized = true
	}

	m := &Manager{state: state, filePath: filePath}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

// Symbols returns a copy of the watchlist in insertion order.
func (m *Manager) Symbols() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.state.Symbols)
}

// Contains reports whether the symbol is watched.
func (m *Manager) Contains(symbol string) bool {
	s, err := Normalize(symbol)
	if err != nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Contains(m.state.Symbols, s)
}

// Add appends a symbol. It reports false when the symbol was already present.
func (m *Manager) Add(symbol string) (bool, error) {
	s, err := Normalize(symbol)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if slices.Contains(m.state.Symbols, s) {
		return false, nil
	}
	m.state.Symbols = append(m.state.Symbols, s)
	if err := m.save(); err != nil {
		m.state.Symbols = m.state.Symbols[:len(m.state.Symbols)-1]
		return false, fmt.Errorf("save watchlist: %w", err)
	}
	return true, nil
}

// Remove drops a symbol. It reports false when the symbol was not present.
func (m *Manager) Remove(symbol string) (bool, error) {
	s, err := Normalize(symbol)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := slices.Index(m.state.Symbols, s)
	if i < 0 {
		return false, nil
	}
	prev := slices.Clone(m.state.Symbols)
	m.state.Symbols = slices.Delete(m.state.Symbols, i, i+1)
	if err := m.save(); err != nil {
		m.state.Symbols = prev
		return false, fmt.Errorf("save watchlist: %w", err)
	}
	return true, nil
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.state)
}
