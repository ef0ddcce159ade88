package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PingProbe is a health probe that pings the database pool.
type PingProbe struct {
	pool *pgxpool.Pool
}

// NewPingProbe wraps a pool for health checking.
func NewPingProbe(pool *pgxpool.Pool) PingProbe {
	return PingProbe{pool: pool}
}

func (p PingProbe) Name() string { return "database" }

func (p PingProbe) Check(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
