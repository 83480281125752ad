package pgate

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Prober performs a single readiness check against the database target.
// It owns no retry logic; retrying belongs to the Waiter.
type Prober interface {
	Probe(ctx context.Context) error
}

// PgConnProber dials Postgres and completes a real handshake, so success
// means the server is accepting connections for the configured database, not
// merely that something listens on the port.
type PgConnProber struct {
	ConnString string
	Timeout    time.Duration
}

// NewPgConnProber builds the production prober from the resolved config.
func NewPgConnProber(config *Config) *PgConnProber {
	return &PgConnProber{
		ConnString: config.ConnString(),
		Timeout:    config.ProbeTimeout,
	}
}

// Probe connects, pings, and disconnects. The connection is deliberately not
// kept: the database belongs to the final command, not to pgate.
func (p *PgConnProber) Probe(ctx context.Context) error {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	conn, err := pgconn.Connect(ctx, p.ConnString)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
