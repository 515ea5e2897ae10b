package explorer

import (
	"context"
	"path"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/honhimW/ratisui/internal/backend"
	"github.com/honhimW/ratisui/internal/dispatcher"
)

// fakeBackend serves a fixed keyspace from memory. Scan cursors are
// plain indexes into the sorted key list.
type fakeBackend struct {
	keys    []string
	types   map[string]string
	strings map[string][]byte
	hashes  map[string]map[string]string
}

func newFakeBackend(keys ...string) *fakeBackend {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	return &fakeBackend{
		keys:    sorted,
		types:   make(map[string]string),
		strings: make(map[string][]byte),
		hashes:  make(map[string]map[string]string),
	}
}

func (f *fakeBackend) ScanBatch(_ context.Context, cur backend.Cursor, pattern string, count int64) (backend.ScanPage, error) {
	var page backend.ScanPage
	if cur.Node >= 1 {
		page.Finished = true
		return page, nil
	}
	start := int(cur.Token)
	end := start + int(count)
	if end > len(f.keys) {
		end = len(f.keys)
	}
	for _, k := range f.keys[start:end] {
		if ok, _ := path.Match(pattern, k); ok || pattern == "*" || pattern == "" {
			page.Keys = append(page.Keys, k)
		}
	}
	if end == len(f.keys) {
		page.Next = backend.Cursor{Node: 1}
		page.Finished = true
	} else {
		page.Next = backend.Cursor{Token: uint64(end)}
	}
	return page, nil
}

func (f *fakeBackend) DescribeKey(_ context.Context, key string) (backend.KeyMeta, error) {
	t, ok := f.types[key]
	if !ok {
		t = "none"
	}
	return backend.KeyMeta{Type: t, TTL: -1, Bytes: 64}, nil
}

func (f *fakeBackend) GetBytes(_ context.Context, key string) ([]byte, error) {
	return f.strings[key], nil
}

func (f *fakeBackend) ListRange(context.Context, string, int64, int64) ([]string, error) {
	return nil, nil
}

func (f *fakeBackend) SetMembers(context.Context, string) ([]string, error) {
	return nil, nil
}

func (f *fakeBackend) HashAll(_ context.Context, key string) (map[string]string, error) {
	return f.hashes[key], nil
}

func (f *fakeBackend) SortedRange(context.Context, string, int64, int64) ([]redis.Z, error) {
	return nil, nil
}

func (f *fakeBackend) StreamRange(context.Context, string, int64) ([]redis.XMessage, error) {
	return nil, nil
}

func newTestDispatcher(t *testing.T) *dispatcher.Dispatcher {
	t.Helper()
	d := dispatcher.New(dispatcher.WithWorkers(2))
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = d.Stop(ctx)
	})
	return d
}

// runScan pumps the dispatcher until the scan finishes, mimicking
// the render loop's per-tick drain.
func runScan(t *testing.T, d *dispatcher.Dispatcher, s *Scanner, pattern string, batch int64) {
	t.Helper()
	s.StartScan(pattern, batch)
	deadline := time.Now().Add(5 * time.Second)
	for s.Snapshot().Scanning {
		if time.Now().After(deadline) {
			t.Fatal("scan did not finish")
		}
		for _, out := range d.PollCompleted() {
			if out.Slot != dispatcher.SlotExplorerScan {
				continue
			}
			if _, err := s.ApplyScan(out); err != nil {
				t.Fatalf("ApplyScan: %v", err)
			}
		}
		time.Sleep(time.Millisecond)
	}
}

func TestScanPatternExample(t *testing.T) {
	fb := newFakeBackend("user:1", "user:2", "order:1")
	d := newTestDispatcher(t)
	s := NewScanner(d, fb, ":")

	runScan(t, d, s, "user:*", 2)

	snap := s.Snapshot()
	want := []string{"user:1", "user:2"}
	if !reflect.DeepEqual(snap.Keys, want) {
		t.Errorf("Keys = %v, want %v", snap.Keys, want)
	}
	if !snap.Exhausted {
		t.Error("scan should be exhausted")
	}
	if snap.Batches > 2 {
		t.Errorf("Batches = %d, want at most 2", snap.Batches)
	}
}

func TestScanBatchSizeInvariance(t *testing.T) {
	keys := []string{"a:1", "a:2", "b:1", "b:2:x", "c", "c:1", "d:9"}
	fb := newFakeBackend(keys...)
	d := newTestDispatcher(t)

	var results [][]string
	for _, batch := range []int64{1, 3, 100} {
		s := NewScanner(d, fb, ":")
		runScan(t, d, s, "*", batch)
		results = append(results, s.Snapshot().Keys)
	}
	for i := 1; i < len(results); i++ {
		if !reflect.DeepEqual(results[0], results[i]) {
			t.Errorf("batch size changed final key set: %v vs %v", results[0], results[i])
		}
	}
}

func TestScanEmptyKeyspace(t *testing.T) {
	fb := newFakeBackend()
	d := newTestDispatcher(t)
	s := NewScanner(d, fb, ":")

	runScan(t, d, s, "*", 10)

	snap := s.Snapshot()
	if len(snap.Keys) != 0 {
		t.Errorf("Keys = %v, want none", snap.Keys)
	}
	if !snap.Exhausted {
		t.Error("empty keyspace should exhaust immediately")
	}
	if snap.Batches != 1 {
		t.Errorf("Batches = %d, want 1", snap.Batches)
	}
}

func TestScanRestartSupersedesOldEpoch(t *testing.T) {
	fb := newFakeBackend("user:1", "user:2", "order:1")
	d := newTestDispatcher(t)
	s := NewScanner(d, fb, ":")

	first := s.StartScan("user:*", 1)
	second := s.StartScan("order:*", 10)
	if second <= first {
		t.Fatalf("restart must advance the epoch: %d then %d", first, second)
	}

	// A stale outcome hand-built against the first epoch must be
	// ignored even if it somehow reaches the scanner.
	stale := dispatcher.Outcome{
		Slot:   dispatcher.SlotExplorerScan,
		Epoch:  first,
		Status: dispatcher.StatusCompleted,
		Value:  backend.ScanPage{Keys: []string{"user:1"}, Finished: true},
	}
	if _, err := s.ApplyScan(stale); err != nil {
		t.Fatalf("ApplyScan stale: %v", err)
	}
	if len(s.Snapshot().Keys) != 0 {
		t.Error("stale batch must not reach the tree")
	}

	deadline := time.Now().Add(5 * time.Second)
	for s.Snapshot().Scanning {
		if time.Now().After(deadline) {
			t.Fatal("scan did not finish")
		}
		for _, out := range d.PollCompleted() {
			if out.Slot == dispatcher.SlotExplorerScan {
				if _, err := s.ApplyScan(out); err != nil {
					t.Fatalf("ApplyScan: %v", err)
				}
			}
		}
		time.Sleep(time.Millisecond)
	}
	if got := s.Snapshot().Keys; !reflect.DeepEqual(got, []string{"order:1"}) {
		t.Errorf("Keys = %v, want [order:1]", got)
	}
}

func TestCancelKeepsBuiltTree(t *testing.T) {
	fb := newFakeBackend("a:1", "b:1")
	d := newTestDispatcher(t)
	s := NewScanner(d, fb, ":")
	runScan(t, d, s, "*", 10)

	s.Cancel()
	snap := s.Snapshot()
	if snap.Scanning {
		t.Error("cancel should stop scanning")
	}
	if len(snap.Keys) != 2 {
		t.Errorf("cancel must not discard tree, Keys = %v", snap.Keys)
	}
}

func TestLoadKeyStringValue(t *testing.T) {
	fb := newFakeBackend("user:1")
	fb.types["user:1"] = "string"
	fb.strings["user:1"] = []byte("hello")
	d := newTestDispatcher(t)
	s := NewScanner(d, fb, ":")
	runScan(t, d, s, "*", 10)

	s.LoadKey("user:1")
	deadline := time.Now().Add(5 * time.Second)
	for s.Snapshot().Current == nil {
		if time.Now().After(deadline) {
			t.Fatal("key load did not complete")
		}
		for _, out := range d.PollCompleted() {
			if out.Slot == dispatcher.SlotExplorerKey {
				if err := s.ApplyKey(out); err != nil {
					t.Fatalf("ApplyKey: %v", err)
				}
			}
		}
		time.Sleep(time.Millisecond)
	}

	cur := s.Snapshot().Current
	if cur.Key != "user:1" || string(cur.Raw) != "hello" {
		t.Errorf("Current = %+v", cur)
	}
	if cur.Meta.Type != "string" {
		t.Errorf("Meta.Type = %q", cur.Meta.Type)
	}
	// Type back-fills into the tree.
	node := s.Snapshot().Root.Children()[0].Children()[0]
	if node.ValueKind != "string" {
		t.Errorf("ValueKind = %q", node.ValueKind)
	}
}

func TestLoadMissingKeyFails(t *testing.T) {
	fb := newFakeBackend()
	d := newTestDispatcher(t)
	s := NewScanner(d, fb, ":")

	s.LoadKey("ghost")
	deadline := time.Now().Add(5 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatal("no outcome for missing key")
		}
		outs := d.PollCompleted()
		done := false
		for _, out := range outs {
			if out.Slot != dispatcher.SlotExplorerKey {
				continue
			}
			if out.Status != dispatcher.StatusFailed {
				t.Fatalf("Status = %v, want failed", out.Status)
			}
			if err := s.ApplyKey(out); err == nil {
				t.Error("ApplyKey should surface the failure")
			}
			done = true
		}
		if done {
			break
		}
		time.Sleep(time.Millisecond)
	}
}
