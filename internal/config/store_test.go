package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithDir(t.TempDir())}, opts...)
	s, err := NewStore(opts...)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestDatasourceRoundTrip(t *testing.T) {
	s := newTestStore(t)
	list := []Datasource{
		{Name: "prod", Host: "10.0.0.1", Port: 6379, UseTLS: true,
			Tunnel: &Tunnel{Host: "jump", Port: 22, Username: "ops"}},
		{Name: "local", Host: "127.0.0.1", Port: 6379, Delimiter: "/"},
	}
	if err := s.SaveDatasources(list, "local"); err != nil {
		t.Fatalf("SaveDatasources: %v", err)
	}

	got, def, err := s.LoadDatasources()
	if err != nil {
		t.Fatalf("LoadDatasources: %v", err)
	}
	if def != "local" {
		t.Errorf("default = %q", def)
	}
	// Saved sorted by name.
	if len(got) != 2 || got[0].Name != "local" || got[1].Name != "prod" {
		t.Fatalf("got = %+v", got)
	}
	if got[1].Tunnel == nil || got[1].Tunnel.Host != "jump" {
		t.Errorf("tunnel lost: %+v", got[1].Tunnel)
	}
}

func TestLoadDatasourcesMissingFile(t *testing.T) {
	s := newTestStore(t)
	list, def, err := s.LoadDatasources()
	if err != nil || list != nil || def != "" {
		t.Errorf("missing file: %v %q %v", list, def, err)
	}
}

func TestFindDatasource(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveDatasources([]Datasource{{Name: "a", Host: "h", Port: 1}}, "a"); err != nil {
		t.Fatal(err)
	}
	ds, err := s.FindDatasource("a")
	if err != nil || ds.Host != "h" {
		t.Errorf("FindDatasource(a) = %+v %v", ds, err)
	}
	// Empty name resolves the default.
	ds, err = s.FindDatasource("")
	if err != nil || ds.Name != "a" {
		t.Errorf("FindDatasource(default) = %+v %v", ds, err)
	}
	if _, err := s.FindDatasource("nope"); !errors.Is(err, ErrNoSuchDatasource) {
		t.Errorf("err = %v", err)
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	s := newTestStore(t)
	lines := []string{"GET a", "SET b 1", "SCAN 0"}
	if err := s.SaveHistory(lines); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}
	if got := s.LoadHistory(); !reflect.DeepEqual(got, lines) {
		t.Errorf("LoadHistory = %v", got)
	}
}

func TestHistoryTrimOnSave(t *testing.T) {
	s := newTestStore(t, WithHistoryMax(2))
	if err := s.SaveHistory([]string{"a", "b", "c"}); err != nil {
		t.Fatal(err)
	}
	if got := s.LoadHistory(); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("LoadHistory = %v", got)
	}
}

func TestAppendHistory(t *testing.T) {
	s := newTestStore(t, WithHistoryMax(3))
	for _, l := range []string{"a", "a", "b", "c", "d"} {
		if err := s.AppendHistory(l); err != nil {
			t.Fatalf("AppendHistory(%q): %v", l, err)
		}
	}
	// Consecutive duplicate collapsed, oldest evicted.
	if got := s.LoadHistory(); !reflect.DeepEqual(got, []string{"b", "c", "d"}) {
		t.Errorf("LoadHistory = %v", got)
	}
}

func TestLoadHistoryGarbageIsEmpty(t *testing.T) {
	s := newTestStore(t)
	if err := os.MkdirAll(s.Dir(), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir(), "history.json"), []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := s.LoadHistory(); got != nil {
		t.Errorf("garbage history = %v", got)
	}
}

func TestWriteIsAtomic(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveHistory([]string{"one"}); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" && filepath.Ext(e.Name()) != ".yaml" {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}
