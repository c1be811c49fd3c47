package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/edusight/prism/pkg/config"
)

// Store labels identify the logical databases records are routed to.
const (
	StoreDefault         = "default"
	StoreAnalytics       = "analytics"
	StorePredictionCache = "prediction_cache"
)

// Stores bundles the named database clients. Assessments, configurations and
// wellbeing results live in Default; Analytics holds derived rollups and
// PredictionCache is reserved for the prediction subsystem. Cross-store
// joins are never issued.
type Stores struct {
	Default         *sqlx.DB
	Analytics       *sqlx.DB
	PredictionCache *sqlx.DB
}

// NewPostgres returns a configured PostgreSQL client.
func NewPostgres(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// NewStores opens the default store plus the routed analytics and
// prediction-cache databases. The routed stores share connection settings
// with the default one and differ only by database name.
func NewStores(cfg config.DatabaseConfig, routing config.StoreRoutingConfig) (*Stores, error) {
	primary, err := NewPostgres(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", StoreDefault, err)
	}

	analyticsCfg := cfg
	analyticsCfg.Name = routing.AnalyticsName
	analytics, err := NewPostgres(analyticsCfg)
	if err != nil {
		_ = primary.Close()
		return nil, fmt.Errorf("open %s store: %w", StoreAnalytics, err)
	}

	predictionCfg := cfg
	predictionCfg.Name = routing.PredictionCacheName
	prediction, err := NewPostgres(predictionCfg)
	if err != nil {
		_ = primary.Close()
		_ = analytics.Close()
		return nil, fmt.Errorf("open %s store: %w", StorePredictionCache, err)
	}

	return &Stores{Default: primary, Analytics: analytics, PredictionCache: prediction}, nil
}

// Close releases all store connections, returning the first error observed.
func (s *Stores) Close() error {
	var first error
	for _, db := range []*sqlx.DB{s.Default, s.Analytics, s.PredictionCache} {
		if db == nil {
			continue
		}
		if err := db.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
