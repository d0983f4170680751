package settings

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"telemetry_map/core-go/internal/sqlcgen"
)

type fakeQueries struct {
	ensureFn func(ctx context.Context) error
	listFn   func(ctx context.Context) ([]sqlcgen.ColumnSetting, error)
	upsertFn func(ctx context.Context, arg sqlcgen.UpsertColumnSettingParams) error
}

func (f *fakeQueries) EnsureColumnSettingsTable(ctx context.Context) error {
	if f.ensureFn == nil {
		return nil
	}
	return f.ensureFn(ctx)
}

func (f *fakeQueries) ListColumnSettings(ctx context.Context) ([]sqlcgen.ColumnSetting, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx)
}

func (f *fakeQueries) UpsertColumnSetting(ctx context.Context, arg sqlcgen.UpsertColumnSettingParams) error {
	if f.upsertFn == nil {
		return nil
	}
	return f.upsertFn(ctx, arg)
}

func TestDefaults_EnableEveryColumn(t *testing.T) {
	d := Defaults()
	if len(d) == 0 {
		t.Fatalf("expected defaults to list column settings")
	}
	for k, v := range d {
		if !v {
			t.Fatalf("expected %s enabled by default", k)
		}
	}
}

func TestApply_RejectsUnknownKeys(t *testing.T) {
	_, err := Defaults().Apply(map[string]bool{"txs": false, "banana": true})
	if !errors.Is(err, ErrUnknownSetting) {
		t.Fatalf("expected ErrUnknownSetting, got %v", err)
	}
}

func TestApply_DoesNotMutateReceiver(t *testing.T) {
	base := Defaults()
	next, err := base.Apply(map[string]bool{"txs": false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next["txs"] || !base["txs"] {
		t.Fatalf("expected copy-on-apply, base=%v next=%v", base["txs"], next["txs"])
	}
}

func TestPostgresStore_LoadOverlaysDefaults(t *testing.T) {
	q := &fakeQueries{
		listFn: func(ctx context.Context) ([]sqlcgen.ColumnSetting, error) {
			return []sqlcgen.ColumnSetting{
				{Setting: "txs", Visible: false},
				{Setting: "retired_column", Visible: true},
			}, nil
		},
	}
	store, err := NewPostgresStore(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["txs"] {
		t.Fatalf("expected stored txs=false to win")
	}
	if !got["peers"] {
		t.Fatalf("expected missing rows to default to visible")
	}
	if _, ok := got["retired_column"]; ok {
		t.Fatalf("expected unknown stored settings to be ignored")
	}
}

func TestPostgresStore_SaveUpsertsEveryKeyInOrder(t *testing.T) {
	var saved []string
	q := &fakeQueries{
		upsertFn: func(ctx context.Context, arg sqlcgen.UpsertColumnSettingParams) error {
			saved = append(saved, arg.Setting)
			return nil
		},
	}
	store, err := NewPostgresStore(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Save(context.Background(), Settings{"txs": true, "peers": false}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(saved) != 2 || saved[0] != "peers" || saved[1] != "txs" {
		t.Fatalf("expected sorted upserts [peers txs], got %v", saved)
	}
}

func TestPostgresStore_EnsureFailure(t *testing.T) {
	q := &fakeQueries{ensureFn: func(ctx context.Context) error { return errors.New("boom") }}
	if _, err := NewPostgresStore(context.Background(), q); err == nil {
		t.Fatalf("expected error when the table cannot be created")
	}
}

type failingStore struct{ err error }

func (f failingStore) Load(context.Context) (Settings, error) { return nil, f.err }
func (f failingStore) Save(context.Context, Settings) error { return f.err }

func TestService_FallsBackToDefaultsWhenLoadFails(t *testing.T) {
	svc := NewService(context.Background(), zerolog.New(io.Discard), failingStore{err: errors.New("down")})
	if !svc.Current()["txs"] {
		t.Fatalf("expected defaults after failed load")
	}

	if _, err := svc.Update(context.Background(), map[string]bool{"txs": false}); err == nil {
		t.Fatalf("expected save failure to surface")
	}
	if !svc.Current()["txs"] {
		t.Fatalf("expected failed update to leave settings untouched")
	}
}

func TestService_UpdatePersists(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(context.Background(), zerolog.New(io.Discard), store)

	got, err := svc.Update(context.Background(), map[string]bool{"uptime": false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["uptime"] || svc.Current()["uptime"] {
		t.Fatalf("expected uptime hidden after update")
	}

	stored, _ := store.Load(context.Background())
	if stored["uptime"] {
		t.Fatalf("expected memory store to hold the update")
	}
}
