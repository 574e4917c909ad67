package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

const (
	defaultDSN         = "host=localhost user=postgres password=postgres dbname=restoran port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:5173"
)

type Config struct {
	HTTPPort    string        `envconfig:"HTTP_PORT" default:"8080"`
	DatabaseDSN string        `envconfig:"DATABASE_DSN" default:"host=localhost user=postgres password=postgres dbname=restoran port=5432 sslmode=disable"`
	JWTSecret   string        `envconfig:"JWT_SECRET"`
	JWTTTL      time.Duration `envconfig:"JWT_TTL" default:"24h"`
	CORSOrigins string        `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"` // json | text

	// Veri çekme katmanı (fetch) ayarları
	FetchRPS     float64       `envconfig:"FETCH_RPS" default:"20"`
	FetchBurst   int           `envconfig:"FETCH_BURST" default:"8"`
	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"15s"`
	SessionTTL   time.Duration `envconfig:"SESSION_TTL" default:"30m"` // boşta kalan dashboard oturumu bu süre sonunda atılır

	AnalyticsFile string          `envconfig:"ANALYTICS_CONFIG_FILE"` // opsiyonel YAML, eşikleri ezer
	Analytics     AnalyticsConfig `envconfig:"ANALYTICS"`
}

// AnalyticsConfig: sınıflandırma ve eğilim eşikleri. Pipeline bunları sahiplenmez, dışarıdan alır.
type AnalyticsConfig struct {
	TopRating           float64 `yaml:"top_rating" envconfig:"TOP_RATING" default:"4.0" validate:"gte=0,lte=5"`
	AttentionRating     float64 `yaml:"attention_rating" envconfig:"ATTENTION_RATING" default:"3.5" validate:"gte=0,lte=5"`
	TrendUp             float64 `yaml:"trend_up" envconfig:"TREND_UP" default:"1.15" validate:"gt=1"`
	TrendDown           float64 `yaml:"trend_down" envconfig:"TREND_DOWN" default:"0.85" validate:"gt=0,lt=1"`
	AnomalyWindow       int     `yaml:"anomaly_window" envconfig:"ANOMALY_WINDOW" default:"7" validate:"gte=1"`
	AnomalyDropPct      float64 `yaml:"anomaly_drop_pct" envconfig:"ANOMALY_DROP_PCT" default:"30" validate:"gt=0,lte=100"`
	MovingAverageWindow int     `yaml:"moving_average_window" envconfig:"MOVING_AVERAGE_WINDOW" default:"7" validate:"gte=1"`
	MaxCompare          int     `yaml:"max_compare" envconfig:"MAX_COMPARE" default:"3" validate:"gte=1,lte=3"`
}

var ErrJWTSecret = errors.New("JWT_SECRET en az 32 karakter olmalı")

// Load .env dosyasını (varsa) okur, ortam değişkenlerini çözer ve
// production için zorunlu kontrolleri yapar. Hata durumunda süreç sonlanır.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println(".env dosyası yüklendi")
	}

	cfg, err := Parse()
	if err != nil {
		log.Fatalf("[FATAL] Konfigürasyon okunamadı: %v", err)
	}

	if cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN varsayılan değer kullanılıyor, production için mutlaka kendi Postgres bağlantı bilgisini tanımla.")
	}
	if cfg.CORSOrigins == defaultCORSOrigins {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS varsayılan değer kullanılıyor, production için mutlaka kendi domain'ini tanımla.")
	}

	return cfg
}

// Parse ortamdan konfigürasyonu okur; süreci sonlandırmaz.
func Parse() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ortam değişkenleri okunamadı: %w", err)
	}

	if len(cfg.JWTSecret) < 32 {
		return nil, ErrJWTSecret
	}

	if cfg.AnalyticsFile != "" {
		if err := cfg.Analytics.overlay(cfg.AnalyticsFile); err != nil {
			return nil, fmt.Errorf("analiz eşikleri okunamadı: %w", err)
		}
	}

	if err := cfg.Analytics.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// overlay YAML dosyasındaki alanları mevcut değerlerin üzerine yazar; dosyada olmayanlar korunur.
func (a *AnalyticsConfig) overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, a)
}

func (a AnalyticsConfig) Validate() error {
	if err := validator.New().Struct(a); err != nil {
		return fmt.Errorf("analiz eşikleri geçersiz: %w", err)
	}
	if a.AttentionRating > a.TopRating {
		return fmt.Errorf("analiz eşikleri geçersiz: attention_rating (%.2f) top_rating'den (%.2f) büyük olamaz", a.AttentionRating, a.TopRating)
	}
	return nil
}

// DefaultAnalytics varsayılan eşikler (testler ve konfigürasyonsuz kullanım için)
func DefaultAnalytics() AnalyticsConfig {
	return AnalyticsConfig{
		TopRating:           4.0,
		AttentionRating:     3.5,
		TrendUp:             1.15,
		TrendDown:           0.85,
		AnomalyWindow:       7,
		AnomalyDropPct:      30,
		MovingAverageWindow: 7,
		MaxCompare:          3,
	}
}
