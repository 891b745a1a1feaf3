package pipeline

import (
	"context"
	"fmt"

	"northbound-factor-lab/internal/config"
	"northbound-factor-lab/internal/storage"
	chstore "northbound-factor-lab/internal/storage/clickhouse"
	pgstore "northbound-factor-lab/internal/storage/postgres"
)

// Sinks are the database stores configured in cfg.Storage.
type Sinks struct {
	Factor  map[string]storage.FactorRowStore
	Signals map[string]storage.SignalStore

	closers []func()
}

// Store names used for metrics labels and logs.
const (
	SinkPostgres   = "postgres"
	SinkClickHouse = "clickhouse"
)

// OpenSinks connects to every store with a DSN in cfg. No DSN, no sink.
func OpenSinks(ctx context.Context, cfg *config.Config) (*Sinks, error) {
	s := &Sinks{
		Factor:  map[string]storage.FactorRowStore{},
		Signals: map[string]storage.SignalStore{},
	}

	if dsn := cfg.Storage.PostgresDSN; dsn != "" {
		pool, err := pgstore.NewPool(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		s.Factor[SinkPostgres] = pgstore.NewFactorRowStore(pool)
		s.Signals[SinkPostgres] = pgstore.NewSignalStore(pool)
	}

	if dsn := cfg.Storage.ClickHouseDSN; dsn != "" {
		conn, err := chstore.NewConn(ctx, dsn)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		s.closers = append(s.closers, func() { conn.Close() })
		s.Factor[SinkClickHouse] = chstore.NewFactorRowStore(conn)
		s.Signals[SinkClickHouse] = chstore.NewSignalStore(conn)
	}

	return s, nil
}

// Close releases every connection.
func (s *Sinks) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// WithSinks adds every store in s, in a fixed order.
func (p *Pipeline) WithSinks(s *Sinks) *Pipeline {
	for _, name := range []string{SinkPostgres, SinkClickHouse} {
		if st, ok := s.Factor[name]; ok {
			p.WithFactorStore(name+".factor_rows", st)
		}
		if st, ok := s.Signals[name]; ok {
			p.WithSignalStore(name+".signals", st)
		}
	}
	return p
}
