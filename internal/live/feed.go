// This file implements the feed transport: a Feed abstraction over the
// upstream relay and a TCP implementation reading newline-delimited
// JSON. Connection loss is recoverable; the TCP feed reconnects with
// capped exponential backoff and surfaces each drop as a warning.
package live

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"time"

	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/logging"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/metrics"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/pkg/types"
)

// Feed delivers raw feed lines. Next blocks until a line is available,
// the context is canceled, or the feed is closed.
type Feed interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

// maxLineSize bounds a single feed message. Boards are a few hundred
// commodities at most.
const maxLineSize = 1 << 20

// Backoff schedule for reconnects.
const (
	backoffInitial = time.Second
	backoffMax     = 2 * time.Minute
)

// tcpFeed reads newline-delimited JSON from a relay address,
// reconnecting whenever the connection drops.
//
// State machine: connected, disconnected, backing off, connected again.
// Cancellation is honored at every transition.
type tcpFeed struct {
	addr   string
	dialer net.Dialer

	conn    net.Conn
	scanner *bufio.Scanner
	tries   int
}

// Dial returns a Feed connected lazily to the given relay address. The
// first connection attempt happens on the first Next call.
func Dial(addr string) Feed {
	return &tcpFeed{addr: addr}
}

func (f *tcpFeed) Next(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.conn == nil {
			if err := f.connect(ctx); err != nil {
				return nil, err
			}
		}

		if f.scanner.Scan() {
			f.tries = 0
			line := make([]byte, len(f.scanner.Bytes()))
			copy(line, f.scanner.Bytes())
			return line, nil
		}

		err := f.scanner.Err()
		logging.L().Warnw("live feed disconnected",
			"addr", f.addr, "error", err, "cause", types.ErrFeedDisconnected)
		f.drop()

		if err := f.backoff(ctx); err != nil {
			return nil, err
		}
	}
}

// connect dials the relay, backing off between failed attempts.
func (f *tcpFeed) connect(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := f.dialer.DialContext(ctx, "tcp", f.addr)
		if err == nil {
			f.conn = conn
			scanner := bufio.NewScanner(conn)
			scanner.Buffer(make([]byte, 64*1024), maxLineSize)
			f.scanner = scanner
			f.tries = 0
			metrics.FeedConnected.Set(1)
			logging.L().Infow("live feed connected", "addr", f.addr)
			return nil
		}

		logging.L().Warnw("live feed dial failed", "addr", f.addr, "error", err)
		if err := f.backoff(ctx); err != nil {
			return err
		}
	}
}

// drop tears down the current connection.
func (f *tcpFeed) drop() {
	if f.conn != nil {
		f.conn.Close()
		f.conn = nil
		f.scanner = nil
	}
	metrics.FeedConnected.Set(0)
}

// backoff waits out the current retry delay, doubling it per attempt up
// to the cap.
func (f *tcpFeed) backoff(ctx context.Context) error {
	delay := backoffInitial << f.tries
	if delay > backoffMax || delay <= 0 {
		delay = backoffMax
	}
	f.tries++
	metrics.FeedReconnects.Inc()

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *tcpFeed) Close() error {
	if f.conn == nil {
		return nil
	}
	err := f.conn.Close()
	f.conn = nil
	f.scanner = nil
	metrics.FeedConnected.Set(0)
	if err != nil {
		return fmt.Errorf("close feed: %w", err)
	}
	return nil
}
