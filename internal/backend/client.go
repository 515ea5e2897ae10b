package backend

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Mode is the deployment shape reported by the server.
type Mode int

const (
	ModeStandalone Mode = iota
	ModeCluster
	ModeSentinel
)

func (m Mode) String() string {
	switch m {
	case ModeStandalone:
		return "standalone"
	case ModeCluster:
		return "cluster"
	case ModeSentinel:
		return "sentinel"
	default:
		return "unknown"
	}
}

// Options configures a connection to a data source.
type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	DB       int
	UseTLS   bool
	Tunnel   *TunnelOptions

	// DialTimeout bounds the initial probe. Zero means 5s.
	DialTimeout time.Duration
}

func (o Options) addr() string {
	return net.JoinHostPort(o.Host, fmt.Sprintf("%d", o.Port))
}

// Client wraps the redis connection pool for one data source. All
// commands take a context so the dispatcher can cancel them mid
// flight.
type Client struct {
	opts   Options
	mode   Mode
	uc     redis.UniversalClient
	single *redis.Client
	clus   *redis.ClusterClient
	tunnel *Tunnel

	// scanners holds one plain client per node that owns keys: the
	// sole node when standalone, every master when clustered. SCAN
	// cursors are only meaningful against the node that issued them,
	// so the scanner walks these in a fixed order.
	scanners []*redis.Client
}

// Open connects, probes the server mode via INFO, and upgrades the
// pool to a cluster client when the server reports cluster mode.
func Open(ctx context.Context, opts Options) (*Client, error) {
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}

	var tunnel *Tunnel
	var dialer func(ctx context.Context, network, addr string) (net.Conn, error)
	if opts.Tunnel != nil {
		t, err := NewTunnel(*opts.Tunnel)
		if err != nil {
			return nil, err
		}
		tunnel = t
		dialer = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return t.Dial(network, addr)
		}
	}

	var tlsConfig *tls.Config
	if opts.UseTLS {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	probe := redis.NewClient(&redis.Options{
		Addr:        opts.addr(),
		Username:    opts.Username,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
		Dialer:      dialer,
		TLSConfig:   tlsConfig,
	})

	info, err := probe.Info(ctx, "server").Result()
	if err != nil {
		_ = probe.Close()
		if tunnel != nil {
			_ = tunnel.Close()
		}
		return nil, fmt.Errorf("backend: probe %s: %w", opts.addr(), err)
	}

	c := &Client{opts: opts, tunnel: tunnel, mode: parseMode(info)}

	if c.mode == ModeCluster {
		_ = probe.Close()
		clus := redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:       []string{opts.addr()},
			Username:    opts.Username,
			Password:    opts.Password,
			DialTimeout: opts.DialTimeout,
			Dialer:      dialer,
			TLSConfig:   tlsConfig,
		})
		if err := clus.Ping(ctx).Err(); err != nil {
			_ = clus.Close()
			if tunnel != nil {
				_ = tunnel.Close()
			}
			return nil, fmt.Errorf("backend: cluster ping: %w", err)
		}
		c.clus = clus
		c.uc = clus
		if err := c.refreshScanners(ctx); err != nil {
			_ = clus.Close()
			if tunnel != nil {
				_ = tunnel.Close()
			}
			return nil, err
		}
		return c, nil
	}

	c.single = probe
	c.uc = probe
	c.scanners = []*redis.Client{probe}
	return c, nil
}

// refreshScanners rebuilds the per-master scanner list in a stable
// address order so scan cursors stay attached to the same node index
// across batches.
func (c *Client) refreshScanners(ctx context.Context) error {
	var masters []*redis.Client
	err := c.clus.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
		masters = append(masters, node)
		return nil
	})
	if err != nil {
		return fmt.Errorf("backend: enumerate masters: %w", err)
	}
	sort.Slice(masters, func(i, j int) bool {
		return masters[i].Options().Addr < masters[j].Options().Addr
	})
	c.scanners = masters
	return nil
}

// Mode reports the deployment shape detected at Open.
func (c *Client) Mode() Mode { return c.mode }

// Addr reports the configured endpoint.
func (c *Client) Addr() string { return c.opts.addr() }

// Close releases the pool and the tunnel, if any.
func (c *Client) Close() error {
	var err error
	if c.uc != nil {
		err = c.uc.Close()
	}
	if c.tunnel != nil {
		if terr := c.tunnel.Close(); err == nil {
			err = terr
		}
	}
	return err
}

// Execute runs an arbitrary command and returns the raw reply. A nil
// reply (missing key, empty result) comes back as (nil, nil) rather
// than an error.
func (c *Client) Execute(ctx context.Context, args ...any) (any, error) {
	if len(args) == 0 {
		return nil, errors.New("backend: empty command")
	}
	v, err := c.uc.Do(ctx, args...).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return v, err
}

// KeyMeta is the cheap per-key metadata the explorer shows without
// loading the value.
type KeyMeta struct {
	Type  string
	TTL   time.Duration // negative when the key has no expiry
	Bytes int64         // MEMORY USAGE, -1 when unavailable
}

// DescribeKey fetches type, ttl and memory usage in one round of
// commands.
func (c *Client) DescribeKey(ctx context.Context, key string) (KeyMeta, error) {
	meta := KeyMeta{Bytes: -1}
	t, err := c.uc.Type(ctx, key).Result()
	if err != nil {
		return meta, err
	}
	meta.Type = t
	ttl, err := c.uc.TTL(ctx, key).Result()
	if err != nil {
		return meta, err
	}
	meta.TTL = ttl
	if n, err := c.uc.MemoryUsage(ctx, key).Result(); err == nil {
		meta.Bytes = n
	}
	return meta, nil
}

// GetBytes loads a string value raw, preserving binary content for
// the decoder chain.
func (c *Client) GetBytes(ctx context.Context, key string) ([]byte, error) {
	b, err := c.uc.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return b, err
}

// ListRange, SetMembers, HashAll, SortedRange and StreamRange load
// bounded windows of container values for the key view.

func (c *Client) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return c.uc.LRange(ctx, key, start, stop).Result()
}

func (c *Client) SetMembers(ctx context.Context, key string) ([]string, error) {
	return c.uc.SMembers(ctx, key).Result()
}

func (c *Client) HashAll(ctx context.Context, key string) (map[string]string, error) {
	return c.uc.HGetAll(ctx, key).Result()
}

func (c *Client) SortedRange(ctx context.Context, key string, start, stop int64) ([]redis.Z, error) {
	return c.uc.ZRangeWithScores(ctx, key, start, stop).Result()
}

func (c *Client) StreamRange(ctx context.Context, key string, count int64) ([]redis.XMessage, error) {
	return c.uc.XRangeN(ctx, key, "-", "+", count).Result()
}

// Cursor tracks scan progress across the node list. The zero Cursor
// starts a fresh walk at the first node.
type Cursor struct {
	Node  int
	Token uint64
}

// ScanPage is one applied batch of keys plus the cursor for the next
// batch.
type ScanPage struct {
	Keys     []string
	Next     Cursor
	Finished bool
}

// ScanBatch advances one SCAN step. When a node's cursor returns to
// zero the walk moves to the next node; the page is Finished once the
// last node is exhausted.
func (c *Client) ScanBatch(ctx context.Context, cur Cursor, pattern string, count int64) (ScanPage, error) {
	var page ScanPage
	if cur.Node >= len(c.scanners) {
		page.Finished = true
		return page, nil
	}
	node := c.scanners[cur.Node]
	keys, next, err := node.Scan(ctx, cur.Token, pattern, count).Result()
	if err != nil {
		return page, err
	}
	page.Keys = keys
	if next == 0 {
		page.Next = Cursor{Node: cur.Node + 1}
		page.Finished = page.Next.Node >= len(c.scanners)
	} else {
		page.Next = Cursor{Node: cur.Node, Token: next}
	}
	return page, nil
}

// CountKeys sums DBSIZE across key-owning nodes.
func (c *Client) CountKeys(ctx context.Context) (int64, error) {
	var total int64
	for _, node := range c.scanners {
		n, err := node.DBSize(ctx).Result()
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// ServerSummary is a digest of INFO fields shown in the status line.
type ServerSummary struct {
	Version string
	Mode    string
	Role    string
	Memory  string
	Clients string
}

// Describe fetches and digests INFO for the status line.
func (c *Client) Describe(ctx context.Context) (ServerSummary, error) {
	info, err := c.uc.Info(ctx).Result()
	if err != nil {
		return ServerSummary{}, err
	}
	fields := parseInfo(info)
	return ServerSummary{
		Version: fields["redis_version"],
		Mode:    fields["redis_mode"],
		Role:    fields["role"],
		Memory:  fields["used_memory_human"],
		Clients: fields["connected_clients"],
	}, nil
}

func parseMode(info string) Mode {
	switch parseInfo(info)["redis_mode"] {
	case "cluster":
		return ModeCluster
	case "sentinel":
		return ModeSentinel
	default:
		return ModeStandalone
	}
}

// parseInfo flattens an INFO reply into a field map. Section headers
// and blank lines are skipped.
func parseInfo(info string) map[string]string {
	fields := make(map[string]string)
	sc := bufio.NewScanner(strings.NewReader(info))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields[k] = v
	}
	return fields
}
