/*
Package save
File: save.go
Description:
    Serializes the game document and the player's settings into versioned
    JSON envelopes on a key/value store. The Manager is the only reader and
    writer of durable storage. A reset flag blocks writes while a wipe is in
    progress so an autosave cannot bring cleared state back.
*/

package save

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/everforgeworks/gangwars/internal/game"
)

const (
	// Version is the schema tag written into every envelope. Envelopes with
	// any other version are discarded on load.
	Version = 1

	GameKey     = "gangwars.save"
	SettingsKey = "gangwars.settings"
)

// KV is the durable storage the manager writes through.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Envelope wraps a game snapshot.
type Envelope struct {
	Version   int        `json:"version"`
	Timestamp int64      `json:"timestamp"`
	GameState game.State `json:"gameState"`
}

// Settings are the player's audio preferences.
type Settings struct {
	Version      int     `json:"version"`
	MusicVolume  float64 `json:"musicVolume"`
	SfxVolume    float64 `json:"sfxVolume"`
	MusicEnabled bool    `json:"musicEnabled"`
	SfxEnabled   bool    `json:"sfxEnabled"`
}

// DefaultSettings is what a fresh install starts with.
func DefaultSettings() Settings {
	return Settings{
		Version:      Version,
		MusicVolume:  0.5,
		SfxVolume:    0.7,
		MusicEnabled: true,
		SfxEnabled:   true,
	}
}

// Manager reads and writes envelopes.
type Manager struct {
	kv        KV
	now       func() time.Time
	resetting atomic.Bool
}

// NewManager wraps kv.
func NewManager(kv KV) *Manager {
	return &Manager{kv: kv, now: time.Now}
}

// Save writes a snapshot. It is a no-op while a reset is running.
func (m *Manager) Save(ctx context.Context, st game.State) error {
	if m.resetting.Load() {
		return nil
	}
	data, err := json.Marshal(Envelope{
		Version:   Version,
		Timestamp: m.now().UnixMilli(),
		GameState: st,
	})
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}
	if err := m.kv.Set(ctx, GameKey, string(data)); err != nil {
		return fmt.Errorf("write save: %w", err)
	}
	return nil
}

// Load returns the stored snapshot. Missing, corrupt or outdated saves all
// report found=false; only storage failures are errors.
func (m *Manager) Load(ctx context.Context) (game.State, bool, error) {
	raw, found, err := m.kv.Get(ctx, GameKey)
	if err != nil {
		return game.State{}, false, fmt.Errorf("read save: %w", err)
	}
	if !found {
		return game.State{}, false, nil
	}

	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		log.Printf("Save: discarding corrupt save: %v", err)
		return game.State{}, false, nil
	}
	if env.Version != Version {
		log.Printf("Save: discarding save with version %d (want %d)", env.Version, Version)
		return game.State{}, false, nil
	}
	return env.GameState, true, nil
}

// Reset wipes durable storage. Saves issued while the wipe runs are dropped.
func (m *Manager) Reset(ctx context.Context) error {
	m.resetting.Store(true)
	defer m.resetting.Store(false)

	if err := m.kv.Clear(ctx); err != nil {
		return fmt.Errorf("clear storage: %w", err)
	}
	return nil
}

// SaveSettings writes the settings envelope.
func (m *Manager) SaveSettings(ctx context.Context, s Settings) error {
	s.Version = Version
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := m.kv.Set(ctx, SettingsKey, string(data)); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// LoadSettings returns stored settings, or the defaults when none are usable.
func (m *Manager) LoadSettings(ctx context.Context) Settings {
	raw, found, err := m.kv.Get(ctx, SettingsKey)
	if err != nil {
		log.Printf("Save: read settings: %v", err)
		return DefaultSettings()
	}
	if !found {
		return DefaultSettings()
	}

	var s Settings
	if err := json.Unmarshal([]byte(raw), &s); err != nil || s.Version != Version {
		log.Printf("Save: discarding stored settings")
		return DefaultSettings()
	}
	return s
}
