package settings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"telemetry_map/core-go/internal/columns"
	"telemetry_map/core-go/internal/sqlcgen"
)

var ErrUnknownSetting = errors.New("settings: unknown column setting")

// Settings maps a column settings key to its visibility.
type Settings map[string]bool

// Defaults shows every column.
func Defaults() Settings {
	out := make(Settings)
	for _, key := range columns.Settings() {
		out[key] = true
	}
	return out
}

func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Apply returns a copy of s with patch applied. Keys no column is toggled by are rejected.
func (s Settings) Apply(patch map[string]bool) (Settings, error) {
	known := make(map[string]struct{})
	for _, key := range columns.Settings() {
		known[key] = struct{}{}
	}

	var unknown []string
	for k := range patch {
		if _, ok := known[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %v", ErrUnknownSetting, unknown)
	}

	out := s.Clone()
	for k, v := range patch {
		out[k] = v
	}
	return out, nil
}

type Store interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
}

type MemoryStore struct {
	mu sync.Mutex
	s  Settings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{s: Defaults()}
}

func (m *MemoryStore) Load(context.Context) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = s.Clone()
	return nil
}

// Queries is the subset of sqlcgen.Queries the Postgres store needs.
type Queries interface {
	EnsureColumnSettingsTable(ctx context.Context) error
	ListColumnSettings(ctx context.Context) ([]sqlcgen.ColumnSetting, error)
	UpsertColumnSetting(ctx context.Context, arg sqlcgen.UpsertColumnSettingParams) error
}

// PostgresStore persists column visibility in the column_settings table. Rows missing from
// the table fall back to the defaults.
type PostgresStore struct {
	q Queries
}

func NewPostgresStore(ctx context.Context, q Queries) (*PostgresStore, error) {
	if err := q.EnsureColumnSettingsTable(ctx); err != nil {
		return nil, fmt.Errorf("ensure column_settings table: %w", err)
	}
	return &PostgresStore{q: q}, nil
}

func (p *PostgresStore) Load(ctx context.Context) (Settings, error) {
	rows, err := p.q.ListColumnSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list column settings: %w", err)
	}
	out := Defaults()
	for _, row := range rows {
		if _, ok := out[row.Setting]; ok {
			out[row.Setting] = row.Visible
		}
	}
	return out, nil
}

func (p *PostgresStore) Save(ctx context.Context, s Settings) error {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := p.q.UpsertColumnSetting(ctx, sqlcgen.UpsertColumnSettingParams{Setting: k, Visible: s[k]}); err != nil {
			return fmt.Errorf("upsert column setting %q: %w", k, err)
		}
	}
	return nil
}

// Service caches the current settings in front of a Store.
type Service struct {
	log   zerolog.Logger
	store Store

	mu      sync.RWMutex
	current Settings
}

// NewService loads the stored settings. A store that cannot be read leaves the defaults in
// place; the failure is logged.
func NewService(ctx context.Context, log zerolog.Logger, store Store) *Service {
	svc := &Service{log: log, store: store, current: Defaults()}
	loaded, err := store.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("loading column settings failed; using defaults")
		return svc
	}
	svc.current = loaded
	return svc
}

func (s *Service) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Update applies patch, persists the result and makes it current.
func (s *Service) Update(ctx context.Context, patch map[string]bool) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.current.Apply(patch)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, next); err != nil {
		return nil, err
	}
	s.current = next
	s.log.Info().Int("changed", len(patch)).Msg("column settings updated")
	return next.Clone(), nil
}
