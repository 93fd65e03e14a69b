package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/dividend-seeker/internal/api/handlers"
	"github.com/wonny/dividend-seeker/internal/criteria"
	"github.com/wonny/dividend-seeker/internal/external/yahoo"
	"github.com/wonny/dividend-seeker/internal/markets"
	"github.com/wonny/dividend-seeker/internal/scan"
	"github.com/wonny/dividend-seeker/internal/screening"
	"github.com/wonny/dividend-seeker/internal/snapshot"
	"github.com/wonny/dividend-seeker/internal/store"
	"github.com/wonny/dividend-seeker/pkg/config"
	"github.com/wonny/dividend-seeker/pkg/database"
	"github.com/wonny/dividend-seeker/pkg/httputil"
	"github.com/wonny/dividend-seeker/pkg/logger"
	"github.com/wonny/dividend-seeker/pkg/redis"
)

// app holds the wired dependencies shared by all commands
type app struct {
	cfg *config.Config
	log *logger.Logger

	redis   *redis.Client
	limiter *redis.RateLimiter // nil when Redis is disabled

	criteria     *criteria.Config
	criteriaHash string

	registry     *markets.FileRegistry
	lists        *markets.ListFetcher
	store        *store.FileStore
	orchestrator *scan.Orchestrator

	db        *database.DB         // nil when DATABASE_URL is unset or unreachable
	snapshots *snapshot.Repository // nil without db
}

// newApp wires the pipeline
// 1. config/logger → 2. redis limiter → 3. criteria → 4. clients → 5. store/orchestrator → 6. optional DB sink
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log}

	// Redis 는 선택 사항: 연결 실패 시 프로세스 내부 limiter만 사용
	rc, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, using in-process rate limit only")
	} else {
		a.redis = rc
		if rc.Enabled() {
			a.limiter = redis.NewRateLimiter(rc, "seeker")
		}
	}

	a.criteria, err = criteria.LoadOrDefault(cfg.CriteriaFile)
	if err != nil {
		return nil, fmt.Errorf("load criteria: %w", err)
	}
	a.criteriaHash, err = criteria.Hash(a.criteria)
	if err != nil {
		return nil, fmt.Errorf("hash criteria: %w", err)
	}

	yahooClient := yahoo.NewClient(cfg.Yahoo, yahoo.NewHTTPClient(cfg, log, a.limiter), log)

	listHTTP := httputil.New(cfg, log).WithRateLimit(redis.WikipediaRateLimit.Limit)
	if a.limiter != nil {
		listHTTP.WithSharedRateLimiter(a.limiter, redis.WikipediaRateLimit)
	}

	a.registry = markets.NewFileRegistry(cfg.MarketsDir())
	a.lists = markets.NewListFetcher(listHTTP, cfg.MarketsDir(), log)
	a.store = store.NewFileStore(cfg.DataDir, log).WithTopPicksLimit(a.criteria.TopPicks.Limit)

	screener := screening.NewScreener(a.criteria.Screening, log)
	a.orchestrator = scan.NewOrchestrator(a.registry, yahooClient, screener, a.store, scan.ConfigFrom(cfg.Scan), log).
		WithCriteriaHash(a.criteriaHash)

	if err := a.connectDB(ctx); err != nil {
		log.WithError(err).Warn("Snapshot database unavailable, sync disabled")
	}
	if a.snapshots != nil {
		a.orchestrator.WithSink(a.snapshots)
	}

	log.WithFields(map[string]interface{}{
		"data_dir":      cfg.DataDir,
		"criteria_id":   a.criteria.Meta.CriteriaID,
		"criteria_hash": a.criteriaHash,
		"redis":         a.limiter != nil,
		"database":      a.db != nil,
	}).Debug("Dependencies initialized")

	return a, nil
}

// connectDB opens the snapshot database when configured
func (a *app) connectDB(ctx context.Context) error {
	db, err := database.New(ctx, a.cfg)
	if errors.Is(err, database.ErrDisabled) {
		return nil
	}
	if err != nil {
		return err
	}

	repo := snapshot.NewRepository(db, a.log)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return err
	}

	a.db = db
	a.snapshots = repo
	return nil
}

// dbChecker returns the health checker for /health, nil without a database
func (a *app) dbChecker() handlers.DBChecker {
	if a.db == nil {
		return nil
	}
	return a.db
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
