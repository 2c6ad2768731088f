package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/mcdev12/draftroom/go/internal/catalog"
	"github.com/mcdev12/draftroom/go/internal/draft/commissioner"
	"github.com/mcdev12/draftroom/go/internal/draft/engine"
	"github.com/mcdev12/draftroom/go/internal/draft/gateway"
	"github.com/mcdev12/draftroom/go/internal/draft/metrics"
	"github.com/mcdev12/draftroom/go/internal/draft/outbox"
	"github.com/mcdev12/draftroom/go/internal/draft/rpc"
	"github.com/mcdev12/draftroom/go/internal/draft/store"
	"github.com/rs/zerolog/log"
)

// Services is everything serve runs.
type Services struct {
	Catalog *catalog.Catalog
	Engine  *engine.Engine
	Gateway *gateway.Service
	RPC     *rpc.Service
	Auth    *gateway.Authenticator
	Health  http.Handler
	Metrics http.Handler

	db        *databases
	sink      *outbox.Sink
	relay     *outbox.Relay
	listener  *outbox.Listener
	publisher *outbox.JetStreamPublisher
	unsub     func()
}

func setupServices(ctx context.Context, cfg Config, m metrics.Collector, metricsHandler http.Handler) (*Services, error) {
	secret, err := cfg.secret()
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Load(cfg.FixturePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load league fixture: %w", err)
	}

	s := &Services{
		Catalog: cat,
		Auth:    gateway.NewAuthenticator(secret, cfg.JWTIssuer, nil),
		Metrics: metricsHandler,
		Health:  http.HandlerFunc(ok),
	}

	var snapshots engine.Store = store.NewMemoryStore()
	if cfg.DatabaseEnabled {
		if s.db, err = setupDatabase(ctx, cfg.Database); err != nil {
			return nil, err
		}
		pg := store.NewPostgresStore(s.db.pool)
		if err := pg.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		snapshots = pg
	} else {
		log.Warn().Msg("DB_ENABLED is false, draft state and events are kept in memory only")
	}

	s.Engine = engine.New(engine.Config{
		Catalog:         cat,
		Roster:          cat,
		Store:           snapshots,
		Metrics:         m,
		TickInterval:    cfg.TickInterval,
		IdleTimeout:     cfg.IdleTimeout,
		AbandonTimeout:  cfg.AbandonTimeout,
		JanitorInterval: cfg.JanitorInterval,
	})

	if s.db != nil {
		if err := s.setupOutbox(ctx, cfg, m); err != nil {
			s.Close()
			return nil, err
		}
	}

	commish := commissioner.NewGateway(s.Engine, cat, m)
	s.Gateway = gateway.NewService(gateway.DefaultConfig(), s.Engine, commish, cat, s.Auth, m)
	s.RPC = rpc.NewService(s.Engine, commish, cat, cat)

	if err := s.initializeDrafts(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Services) setupOutbox(ctx context.Context, cfg Config, m metrics.Collector) error {
	repo := outbox.NewRepository(s.db.sql, cfg.OutboxChannel)
	if err := repo.Migrate(ctx); err != nil {
		return err
	}

	var publisher outbox.Publisher = outbox.LogPublisher{}
	var natsConn outbox.Connected
	if cfg.NATSURL != "" {
		jsCfg := outbox.DefaultJetStreamConfig()
		jsCfg.URL = cfg.NATSURL
		p, err := outbox.NewJetStreamPublisher(ctx, jsCfg)
		if err != nil {
			return err
		}
		s.publisher = p
		publisher = p
		natsConn = p.Conn()
	} else {
		log.Warn().Msg("NATS_URL is not set, outbox events are only logged")
	}

	listenerCfg := outbox.DefaultListenerConfig()
	listenerCfg.DatabaseURL = cfg.Database.DSN()
	listenerCfg.NotifyChannel = cfg.OutboxChannel
	listener, err := outbox.NewListener(listenerCfg)
	if err != nil {
		return err
	}
	s.listener = listener

	s.sink = outbox.NewSink(repo, outbox.DefaultSinkConfig(), m)
	s.unsub = s.Engine.Subscribe(s.sink.Handle)

	relayCfg := outbox.DefaultRelayConfig()
	relayCfg.PollInterval = cfg.OutboxPollInterval
	relayCfg.BatchSize = cfg.OutboxBatchSize
	s.relay = outbox.NewRelay(repo, publisher, relayCfg, m)

	s.Health = outbox.NewHealthChecker(s.db.sql, natsConn, repo, s.relay, cfg.OutboxMaxLag, 3*relayCfg.PollInterval)
	return nil
}

// initializeDrafts loads every draft in the fixture. Drafts with a saved
// snapshot resume from it.
func (s *Services) initializeDrafts(ctx context.Context) error {
	for _, id := range s.Catalog.Drafts() {
		d, teams, _ := s.Catalog.Draft(id)
		st, err := s.Engine.Initialize(ctx, d, teams)
		if err != nil {
			return fmt.Errorf("failed to initialize draft %s: %w", id, err)
		}
		log.Info().
			Str("draft_id", id.String()).
			Str("status", string(st.Status)).
			Int("current_pick", st.CurrentPickNumber).
			Msg("draft loaded")
	}
	return nil
}

// Run starts the background loops and blocks until ctx is done and they have stopped.
func (s *Services) Run(ctx context.Context) {
	var wg sync.WaitGroup
	run := func(f func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f()
		}()
	}

	run(func() { s.Gateway.Start(ctx) })
	if s.sink != nil {
		run(func() { s.sink.Run(ctx) })
	}
	if s.listener != nil {
		run(func() {
			if err := s.listener.Run(ctx); err != nil {
				log.Error().Err(err).Msg("outbox listener stopped")
			}
		})
	}
	if s.relay != nil {
		var wake <-chan struct{}
		if s.listener != nil {
			wake = s.listener.Wake()
		}
		run(func() { s.relay.Run(ctx, wake) })
	}
	wg.Wait()
}

// Shutdown stops the engine. Call it before cancelling Run's context so the
// final events still reach the outbox sink.
func (s *Services) Shutdown(ctx context.Context) error {
	return s.Engine.Shutdown(ctx)
}

// Close releases connections. It is safe on a partially built Services.
func (s *Services) Close() {
	if s.unsub != nil {
		s.unsub()
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close NATS connection")
		}
	}
	if s.db != nil {
		s.db.Close()
	}
}

func ok(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		log.Error().Err(err).Msg("failed to write health check response")
	}
}
