package explorer

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/honhimW/ratisui/internal/backend"
	"github.com/honhimW/ratisui/internal/dispatcher"
)

// Backend is the slice of the connection manager the explorer needs.
// *backend.Client satisfies it.
type Backend interface {
	ScanBatch(ctx context.Context, cur backend.Cursor, pattern string, count int64) (backend.ScanPage, error)
	DescribeKey(ctx context.Context, key string) (backend.KeyMeta, error)
	GetBytes(ctx context.Context, key string) ([]byte, error)
	ListRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	SetMembers(ctx context.Context, key string) ([]string, error)
	HashAll(ctx context.Context, key string) (map[string]string, error)
	SortedRange(ctx context.Context, key string, start, stop int64) ([]redis.Z, error)
	StreamRange(ctx context.Context, key string, count int64) ([]redis.XMessage, error)
}

// DefaultBatchSize is used when StartScan is given a non-positive
// batch size.
const DefaultBatchSize = 500

// KeyView is the loaded value of one selected key. Raw holds string
// values verbatim for the decoder chain; container types arrive
// pre-rendered as Lines.
type KeyView struct {
	Key   string
	Meta  backend.KeyMeta
	Raw   []byte
	Lines []string
}

// Snapshot is the immutable per-tick view of scan state.
type Snapshot struct {
	Root      *Node
	Keys      []string
	Pattern   string
	Scanning  bool
	Exhausted bool
	Batches   int
	Current   *KeyView
}

// Scanner drives incremental keyspace enumeration. All methods must
// be called from the render loop goroutine; only the operation
// closures it submits run concurrently.
type Scanner struct {
	d      *dispatcher.Dispatcher
	client Backend

	delimiter string
	tree      *Tree

	pattern   string
	batchSize int64
	cursor    backend.Cursor
	scanEpoch dispatcher.Epoch
	scanning  bool
	exhausted bool
	batches   int

	keyEpoch dispatcher.Epoch
	current  *KeyView
}

// NewScanner wires a scanner to its dispatcher and backend. An empty
// delimiter defaults to ":".
func NewScanner(d *dispatcher.Dispatcher, client Backend, delimiter string) *Scanner {
	if delimiter == "" {
		delimiter = ":"
	}
	return &Scanner{
		d:         d,
		client:    client,
		delimiter: delimiter,
		tree:      NewTree(delimiter),
	}
}

// StartScan begins a fresh enumeration, discarding any scan in
// progress along with its tree. The previous epoch's in-flight batch
// is superseded at the dispatcher.
func (s *Scanner) StartScan(pattern string, batchSize int64) dispatcher.Epoch {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	s.pattern = pattern
	s.batchSize = batchSize
	s.cursor = backend.Cursor{}
	s.tree = NewTree(s.delimiter)
	s.scanning = true
	s.exhausted = false
	s.batches = 0
	s.current = nil
	return s.submitBatch()
}

func (s *Scanner) submitBatch() dispatcher.Epoch {
	cur := s.cursor
	pattern := s.pattern
	count := s.batchSize
	client := s.client
	s.scanEpoch = s.d.Submit(dispatcher.SlotExplorerScan, dispatcher.KindRead,
		func(ctx context.Context) (any, error) {
			return client.ScanBatch(ctx, cur, pattern, count)
		})
	return s.scanEpoch
}

// ApplyScan merges one completed batch and, if the keyspace is not
// exhausted, submits the next one. Outcomes from superseded epochs
// are ignored. The returned slice holds the keys this batch added.
func (s *Scanner) ApplyScan(out dispatcher.Outcome) ([]string, error) {
	if out.Slot != dispatcher.SlotExplorerScan || out.Epoch != s.scanEpoch {
		return nil, nil
	}
	if out.Status == dispatcher.StatusFailed {
		s.scanning = false
		return nil, fmt.Errorf("explorer: scan batch: %w", out.Err)
	}
	page, ok := out.Value.(backend.ScanPage)
	if !ok {
		s.scanning = false
		return nil, fmt.Errorf("explorer: unexpected batch payload %T", out.Value)
	}
	var added []string
	for _, key := range page.Keys {
		if s.tree.Insert(key) {
			added = append(added, key)
		}
	}
	s.cursor = page.Next
	s.batches++
	if page.Finished {
		s.scanning = false
		s.exhausted = true
		return added, nil
	}
	s.submitBatch()
	return added, nil
}

// LoadKey fetches one key's metadata and value on the key slot. A
// second call before the first completes supersedes it.
func (s *Scanner) LoadKey(key string) dispatcher.Epoch {
	client := s.client
	s.keyEpoch = s.d.Submit(dispatcher.SlotExplorerKey, dispatcher.KindRead,
		func(ctx context.Context) (any, error) {
			return loadKey(ctx, client, key)
		})
	return s.keyEpoch
}

func loadKey(ctx context.Context, client Backend, key string) (KeyView, error) {
	view := KeyView{Key: key}
	meta, err := client.DescribeKey(ctx, key)
	if err != nil {
		return view, err
	}
	view.Meta = meta
	switch meta.Type {
	case "string":
		view.Raw, err = client.GetBytes(ctx, key)
	case "list":
		var items []string
		items, err = client.ListRange(ctx, key, 0, 999)
		view.Lines = items
	case "set":
		var items []string
		items, err = client.SetMembers(ctx, key)
		view.Lines = items
	case "hash":
		var fields map[string]string
		fields, err = client.HashAll(ctx, key)
		view.Lines = backend.RenderLines(fields)
	case "zset":
		zs, zerr := client.SortedRange(ctx, key, 0, 999)
		err = zerr
		for _, z := range zs {
			view.Lines = append(view.Lines, fmt.Sprintf("%v %s", z.Score, z.Member))
		}
	case "stream":
		msgs, xerr := client.StreamRange(ctx, key, 100)
		err = xerr
		for _, m := range msgs {
			view.Lines = append(view.Lines, m.ID+" "+backend.RenderValue(m.Values))
		}
	case "none":
		err = fmt.Errorf("explorer: key %q no longer exists", key)
	default:
		view.Raw, err = client.GetBytes(ctx, key)
	}
	return view, err
}

// ApplyKey installs a completed key load as the current view and
// back-fills the key's type into the tree.
func (s *Scanner) ApplyKey(out dispatcher.Outcome) error {
	if out.Slot != dispatcher.SlotExplorerKey || out.Epoch != s.keyEpoch {
		return nil
	}
	if out.Status == dispatcher.StatusFailed {
		return fmt.Errorf("explorer: load key: %w", out.Err)
	}
	view, ok := out.Value.(KeyView)
	if !ok {
		return fmt.Errorf("explorer: unexpected key payload %T", out.Value)
	}
	s.current = &view
	s.tree.SetValueKind(view.Key, view.Meta.Type)
	return nil
}

// Cancel abandons the scan in progress. Tree state already built
// stays visible.
func (s *Scanner) Cancel() {
	s.d.Cancel(dispatcher.SlotExplorerScan)
	s.scanning = false
}

// Keys returns the sorted keys scanned so far.
func (s *Scanner) Keys() []string { return s.tree.Keys() }

// Snapshot captures current scan state for one render tick.
func (s *Scanner) Snapshot() Snapshot {
	return Snapshot{
		Root:      s.tree.Snapshot(),
		Keys:      s.tree.Keys(),
		Pattern:   s.pattern,
		Scanning:  s.scanning,
		Exhausted: s.exhausted,
		Batches:   s.batches,
		Current:   s.current,
	}
}
