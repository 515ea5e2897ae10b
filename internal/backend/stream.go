package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PushMessage is one delivery from a channel subscription.
type PushMessage struct {
	Channel string
	Pattern string // set for pattern subscriptions
	Payload string
}

// Subscribe blocks, invoking push for every message published to the
// named channels until ctx is cancelled or the connection drops. A
// server-side close surfaces as ErrSubscriptionClosed.
func (c *Client) Subscribe(ctx context.Context, push func(PushMessage), channels ...string) error {
	ps := c.uc.Subscribe(ctx, channels...)
	return c.pump(ctx, ps, push)
}

// PSubscribe is Subscribe over glob patterns.
func (c *Client) PSubscribe(ctx context.Context, push func(PushMessage), patterns ...string) error {
	ps := c.uc.PSubscribe(ctx, patterns...)
	return c.pump(ctx, ps, push)
}

func (c *Client) pump(ctx context.Context, ps *redis.PubSub, push func(PushMessage)) error {
	defer ps.Close()

	// Force the subscribe round trip so a bad channel or dead
	// connection fails up front instead of as a silent empty stream.
	if _, err := ps.Receive(ctx); err != nil {
		return err
	}

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return ErrSubscriptionClosed
			}
			push(PushMessage{
				Channel: msg.Channel,
				Pattern: msg.Pattern,
				Payload: msg.Payload,
			})
		}
	}
}

// monitorPingInterval paces the liveness probe under Monitor. The
// monitor feed itself never reports a dead connection, so the feed
// is cross-checked with a periodic PING.
const monitorPingInterval = 2 * time.Second

// Monitor blocks, invoking push with every command line the server
// reports, until ctx is cancelled or the connection drops. In
// cluster mode each master is monitored and the feeds are merged.
func (c *Client) Monitor(ctx context.Context, push func(string)) error {
	mctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string, 64)
	var cmds []*redis.MonitorCmd
	for _, node := range c.scanners {
		cmd := node.Monitor(mctx, lines)
		cmd.Start()
		cmds = append(cmds, cmd)
	}
	defer func() {
		for _, cmd := range cmds {
			cmd.Stop()
		}
	}()

	ping := func(ctx context.Context) error {
		return c.uc.Ping(ctx).Err()
	}
	return pumpMonitor(ctx, lines, ping, monitorPingInterval, push)
}

// pumpMonitor forwards feed lines and probes the connection between
// them. The feed channel is never closed on a read error, so a
// failing probe is the only way a lost connection surfaces.
func pumpMonitor(ctx context.Context, lines <-chan string, ping func(context.Context) error, interval time.Duration, push func(string)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := ping(ctx); err != nil {
				return fmt.Errorf("backend: monitor connection lost: %w", err)
			}
		case line := <-lines:
			if line == "" {
				continue
			}
			push(line)
		}
	}
}
