package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"

	"github.com/wonny/dividend-seeker/internal/contracts"
	"github.com/wonny/dividend-seeker/internal/markets"
	"github.com/wonny/dividend-seeker/pkg/logger"
)

// ErrNotFound is returned by readers when no file exists
var ErrNotFound = errors.New("result not found")

const (
	dividendsDir = "dividends"
	candidateDir = "candidates"
	topPicksFile = "top_picks.json"
)

// FileStore persists daily results and the merged top picks as JSON files
// ⭐ SSOT: data/dividends, data/candidates 쓰기는 여기서만
// Every write goes to a temp file and is renamed over the target, so a failed
// write never leaves a truncated file behind.
type FileStore struct {
	dataDir     string
	logger      *logger.Logger
	limit       int
	lockTimeout time.Duration
	now         func() time.Time

	mu sync.Mutex // top picks rebuild (in-process)
}

// NewFileStore creates a store rooted at dataDir
func NewFileStore(dataDir string, log *logger.Logger) *FileStore {
	return &FileStore{
		dataDir:     dataDir,
		logger:      log.WithComponent("store"),
		lockTimeout: 30 * time.Second,
		now:         time.Now,
	}
}

// WithTopPicksLimit caps the number of top picks (0 = keep all)
func (s *FileStore) WithTopPicksLimit(limit int) *FileStore {
	s.limit = limit
	return s
}

// WithLockTimeout bounds the wait for the cross-process top picks lock
func (s *FileStore) WithLockTimeout(d time.Duration) *FileStore {
	s.lockTimeout = d
	return s
}

// DailyPath returns the file of one (market, date) pair
func (s *FileStore) DailyPath(market, scanDate string) string {
	return filepath.Join(s.dataDir, dividendsDir, fmt.Sprintf("%s_%s.json", scanDate, market))
}

// TopPicksPath returns the merged artifact path
func (s *FileStore) TopPicksPath() string {
	return filepath.Join(s.dataDir, candidateDir, topPicksFile)
}

// WriteDailyResult creates or replaces the file for (market, scan date)
func (s *FileStore) WriteDailyResult(ctx context.Context, result *contracts.DailyResult) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", contracts.ErrPersistence, err)
	}
	if err := checkKey(result.Market, result.ScanDate); err != nil {
		return fmt.Errorf("%w: %w", contracts.ErrPersistence, err)
	}

	result.Normalize()

	path := s.DailyPath(result.Market, result.ScanDate)
	if err := writeJSON(path, result); err != nil {
		return fmt.Errorf("%w: %w", contracts.ErrPersistence, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"market":     result.Market,
		"scan_date":  result.ScanDate,
		"results":    result.TotalResults,
		"qualifying": result.Qualifying,
		"skipped":    result.SkippedCount,
		"path":       path,
	}).Info("Daily result written")

	return nil
}

// RefreshTopPicks rebuilds top_picks.json from the latest daily file of every market
// Load, rebuild and write all happen under one lock so concurrent market runs
// cannot overwrite each other's contribution.
func (s *FileStore) RefreshTopPicks(ctx context.Context) (*contracts.TopPicks, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.dataDir, candidateDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", contracts.ErrPersistence, dir, err)
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	lock := flock.New(s.TopPicksPath() + ".lock")
	locked, err := lock.TryLockContext(lockCtx, 50*time.Millisecond)
	if err == nil && !locked {
		err = lockCtx.Err()
		if err == nil {
			err = errors.New("lock held by another process")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: acquire top picks lock: %w", contracts.ErrPersistence, err)
	}
	defer func() { _ = lock.Unlock() }()

	dailies, err := s.loadLatest()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", contracts.ErrPersistence, err)
	}

	picks := BuildTopPicks(dailies, s.limit, s.now().UTC())

	if err := writeJSON(s.TopPicksPath(), picks); err != nil {
		return nil, fmt.Errorf("%w: %w", contracts.ErrPersistence, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"markets": len(picks.Sources),
		"picks":   picks.Total,
	}).Info("Top picks rebuilt")

	return picks, nil
}

// loadLatest reads the most recent daily file of every market
// A market whose latest file is unreadable is left out rather than falling back
// to an older date.
func (s *FileStore) loadLatest() ([]*contracts.DailyResult, error) {
	latest, err := s.latestDates()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(latest))
	for m := range latest {
		ids = append(ids, m)
	}
	sort.Strings(ids)

	dailies := make([]*contracts.DailyResult, 0, len(ids))
	for _, market := range ids {
		d, err := s.ReadDaily(market, latest[market])
		if err != nil {
			s.logger.WithError(err).WithField("market", market).Warn("Skipping unreadable daily result")
			continue
		}
		dailies = append(dailies, d)
	}
	return dailies, nil
}

// latestDates maps market → most recent scan date found on disk
func (s *FileStore) latestDates() (map[string]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dataDir, dividendsDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read dividends dir: %w", err)
	}

	latest := make(map[string]string)
	for _, e := range entries {
		market, date, ok := parseDailyName(e.Name())
		if !ok || e.IsDir() {
			continue
		}
		// YYYY-MM-DD 는 문자열 비교로 날짜 순서가 보장됨
		if date > latest[market] {
			latest[market] = date
		}
	}
	return latest, nil
}

// parseDailyName splits "2026-03-02_ftse_mib.json" into market and date
func parseDailyName(name string) (market, date string, ok bool) {
	if !strings.HasSuffix(name, ".json") || len(name) < len(contracts.DateLayout)+len("_x.json") {
		return "", "", false
	}
	date = name[:len(contracts.DateLayout)]
	if name[len(date)] != '_' {
		return "", "", false
	}
	if _, err := time.Parse(contracts.DateLayout, date); err != nil {
		return "", "", false
	}
	market = strings.TrimSuffix(name[len(date)+1:], ".json")
	if !markets.ValidMarketID(market) {
		return "", "", false
	}
	return market, date, true
}

// ReadDaily reads one (market, date) file
func (s *FileStore) ReadDaily(market, scanDate string) (*contracts.DailyResult, error) {
	if err := checkKey(market, scanDate); err != nil {
		return nil, err
	}

	var d contracts.DailyResult
	if err := readJSON(s.DailyPath(market, scanDate), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// LatestDaily reads the most recent file of market
func (s *FileStore) LatestDaily(market string) (*contracts.DailyResult, error) {
	latest, err := s.latestDates()
	if err != nil {
		return nil, err
	}
	date, ok := latest[market]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, market)
	}
	return s.ReadDaily(market, date)
}

// LatestAll reads the most recent file of every market, sorted by market
func (s *FileStore) LatestAll() ([]*contracts.DailyResult, error) {
	return s.loadLatest()
}

// Markets lists markets with at least one daily file and their latest scan date
func (s *FileStore) Markets() (map[string]string, error) {
	return s.latestDates()
}

// ReadTopPicks reads the merged artifact
func (s *FileStore) ReadTopPicks() (*contracts.TopPicks, error) {
	var tp contracts.TopPicks
	if err := readJSON(s.TopPicksPath(), &tp); err != nil {
		return nil, err
	}
	return &tp, nil
}

func checkKey(market, scanDate string) error {
	if !markets.ValidMarketID(market) {
		return fmt.Errorf("invalid market id %q", market)
	}
	if _, err := time.Parse(contracts.DateLayout, scanDate); err != nil {
		return fmt.Errorf("invalid scan date %q: %w", scanDate, err)
	}
	return nil
}

// writeJSON encodes v and atomically replaces path
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
		}
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
