package criteria

import "github.com/wonny/dividend-seeker/internal/contracts"

// Config is the screening criteria file
// ⭐ SSOT: 스크리닝 임계값은 이 구조체에서만 정의
type Config struct {
	Meta      MetaConfig      `yaml:"meta" json:"meta"`
	Screening ScreeningConfig `yaml:"screening" json:"screening"`
	TopPicks  TopPicksConfig  `yaml:"top_picks" json:"top_picks"`
}

// MetaConfig identifies a criteria revision
type MetaConfig struct {
	CriteriaID string `yaml:"criteria_id" json:"criteria_id" validate:"required"`
	Version    string `yaml:"version" json:"version"`
}

// ScreeningConfig holds the qualification thresholds (percent values)
type ScreeningConfig struct {
	MinYield  float64 `yaml:"min_yield" json:"min_yield" validate:"gte=0"`
	MaxPayout float64 `yaml:"max_payout" json:"max_payout" validate:"gt=0"`
	MinPrice  float64 `yaml:"min_price" json:"min_price" validate:"gte=0"` // 0 = floor disabled
}

// TopPicksConfig controls the merged artifact
type TopPicksConfig struct {
	Limit int `yaml:"limit" json:"limit" validate:"gte=0"` // 0 = keep all
}

// Default returns the built-in criteria (yield >= 5%, payout <= 100%)
func Default() *Config {
	return &Config{
		Meta: MetaConfig{
			CriteriaID: "dividend_default",
			Version:    "1",
		},
		Screening: ScreeningConfig{
			MinYield:  5.0,
			MaxPayout: 100.0,
		},
	}
}

// Snapshot returns the thresholds recorded in each daily file
func (c ScreeningConfig) Snapshot() contracts.CriteriaSnapshot {
	return contracts.CriteriaSnapshot{
		MinYield:  c.MinYield,
		MaxPayout: c.MaxPayout,
		MinPrice:  c.MinPrice,
	}
}
