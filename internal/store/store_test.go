package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/detector"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file should exist after creating store")
	}
	if s.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", s.Path(), dbPath)
	}
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"bindings", "settings"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s should exist: %v", table, err)
		}
	}
}

func TestNewStore_InMemory(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create in-memory store: %v", err)
	}
	defer s.Close()

	if err := s.Settings().Set("k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v, err := s.Settings().Get("k"); err != nil || v != "v" {
		t.Errorf("Get() = %q, %v", v, err)
	}
}

func TestBindingRepository_CreateAndGet(t *testing.T) {
	repo := newTestStore(t).Bindings()

	b := &Binding{
		Handedness: detector.Left,
		Gesture:    "Victory",
		Action:     action.Hotkey("ctrl", "left"),
		Enabled:    true,
	}
	if err := repo.Create(b); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if b.ID == "" {
		t.Fatal("Create() should assign an ID")
	}
	if b.Position != 1 {
		t.Errorf("Position = %d, want 1", b.Position)
	}

	got, err := repo.GetByID(b.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Handedness != detector.Left || got.Gesture != "Victory" || !got.Enabled {
		t.Errorf("GetByID() = %+v", got)
	}
	if got.Action.String() != "hotkey(ctrl+left)" {
		t.Errorf("action = %s, want hotkey(ctrl+left)", got.Action)
	}
}

func TestBindingRepository_CreateRejectsInvalid(t *testing.T) {
	repo := newTestStore(t).Bindings()

	tests := []struct {
		name string
		b    Binding
	}{
		{"unknown hand", Binding{Handedness: detector.Unknown, Gesture: "Victory", Action: action.Click("left")}},
		{"empty gesture", Binding{Handedness: detector.Right, Action: action.Click("left")}},
		{"bad action", Binding{Handedness: detector.Right, Gesture: "Victory", Action: action.Scroll(0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.b
			if err := repo.Create(&b); !errors.Is(err, action.ErrInvalidBinding) {
				t.Errorf("Create() error = %v, want ErrInvalidBinding", err)
			}
		})
	}
}

func TestBindingRepository_ListOrder(t *testing.T) {
	repo := newTestStore(t).Bindings()

	second := &Binding{Position: 5, Handedness: detector.Right, Gesture: "Victory", Action: action.Scroll(-3), Enabled: true}
	first := &Binding{Position: 2, Handedness: detector.Right, Gesture: "Pointing_Up", Action: action.Scroll(3), Enabled: true}
	appended := &Binding{Handedness: detector.Right, Gesture: "Thumb_Up", Action: action.Click("right")}

	for _, b := range []*Binding{second, first, appended} {
		if err := repo.Create(b); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	if appended.Position != 6 {
		t.Errorf("appended position = %d, want 6", appended.Position)
	}

	list, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"Pointing_Up", "Victory", "Thumb_Up"}
	if len(list) != len(want) {
		t.Fatalf("List() returned %d bindings, want %d", len(list), len(want))
	}
	for i, w := range want {
		if list[i].Gesture != w {
			t.Errorf("list[%d] = %s, want %s", i, list[i].Gesture, w)
		}
	}

	// Disabled bindings are left out of the action map.
	m, err := repo.ActionMap()
	if err != nil {
		t.Fatalf("ActionMap() error = %v", err)
	}
	if len(m) != 2 || m[0].Gesture != "Pointing_Up" {
		t.Errorf("ActionMap() = %+v", m)
	}
}

func TestBindingRepository_UpdateAndDelete(t *testing.T) {
	repo := newTestStore(t).Bindings()

	b := &Binding{Handedness: detector.Right, Gesture: "ILoveYou", Action: action.Plugin("media-control", "play-pause", nil), Enabled: true}
	if err := repo.Create(b); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	b.Action = action.Plugin("media-control", "mute", nil)
	b.Enabled = false
	if err := repo.Update(b); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID(b.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Action.Name != "mute" || got.Enabled {
		t.Errorf("after update = %+v", got)
	}

	if err := repo.Delete(b.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}

	missing := &Binding{ID: "missing", Handedness: detector.Right, Gesture: "Victory", Action: action.Click("")}
	if err := repo.Update(missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

func TestBindingRepository_Seed(t *testing.T) {
	repo := newTestStore(t).Bindings()
	defaults := action.DefaultBindings(action.DefaultScrollAmount)

	seeded, err := repo.Seed(defaults)
	if err != nil || !seeded {
		t.Fatalf("Seed() = %v, %v, want true", seeded, err)
	}

	got, err := repo.ActionMap()
	if err != nil {
		t.Fatalf("ActionMap() error = %v", err)
	}
	if len(got) != len(defaults) {
		t.Fatalf("ActionMap() returned %d bindings, want %d", len(got), len(defaults))
	}
	for i := range defaults {
		if got[i].Handedness != defaults[i].Handedness || got[i].Gesture != defaults[i].Gesture ||
			got[i].Action.String() != defaults[i].Action.String() {
			t.Errorf("binding %d = %+v, want %+v", i, got[i], defaults[i])
		}
	}

	seeded, err = repo.Seed(defaults)
	if err != nil || seeded {
		t.Errorf("second Seed() = %v, %v, want false", seeded, err)
	}
	if n, _ := repo.Count(); n != len(defaults) {
		t.Errorf("Count() = %d, want %d", n, len(defaults))
	}
}

func TestSettingsRepository(t *testing.T) {
	repo := newTestStore(t).Settings()

	if _, err := repo.Get(SettingEnabled); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on empty store error = %v, want ErrNotFound", err)
	}

	if err := repo.Set(SettingEnabled, "true"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set(SettingEnabled, "false"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	if v, _ := repo.Get(SettingEnabled); v != "false" {
		t.Errorf("Get() = %q, want false", v)
	}

	type tunables struct {
		Radius   float64 `json:"dead_zone_radius"`
		Cooldown string  `json:"cooldown"`
	}
	if err := repo.SetJSON(SettingTunables, tunables{Radius: 5, Cooldown: "500ms"}); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}
	var got tunables
	if err := repo.GetJSON(SettingTunables, &got); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if got.Radius != 5 || got.Cooldown != "500ms" {
		t.Errorf("GetJSON() = %+v", got)
	}

	if err := repo.Delete(SettingTunables); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(SettingTunables); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}
