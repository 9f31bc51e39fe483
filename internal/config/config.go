// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/assist-by/falcon/internal/domain"
)

type Config struct {
	// 바이낸스 API 설정
	Binance struct {
		APIKey     string `envconfig:"BINANCE_API_KEY" required:"true"`
		SecretKey  string `envconfig:"BINANCE_SECRET_KEY" required:"true"`
		UseTestnet bool   `envconfig:"USE_TESTNET" default:"false"`
	}

	// 요청 계층 설정
	Request struct {
		Timeout      time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
		RecvWindow   time.Duration `envconfig:"RECV_WINDOW" default:"60s"`
		WeightLimit  int64         `envconfig:"WEIGHT_LIMIT" default:"2400"`
		SyncInterval time.Duration `envconfig:"SYNC_INTERVAL" default:"1m"`
	}

	// 캔들 스트림 설정
	Stream struct {
		Symbols        []string      `envconfig:"STREAM_SYMBOLS" default:"BTCUSDT"`
		Interval       string        `envconfig:"STREAM_INTERVAL" default:"1m"`
		ReconnectDelay time.Duration `envconfig:"RECONNECT_DELAY" default:"1s"`
		SeedLimit      int           `envconfig:"SEED_LIMIT" default:"500"`
	}

	// 거래 설정
	Trading struct {
		Leverage          int           `envconfig:"LEVERAGE" default:"5"`
		MarginType        string        `envconfig:"MARGIN_TYPE" default:"CROSSED"`
		HedgeMode         bool          `envconfig:"HEDGE_MODE" default:"false"`
		FlattenRetries    int           `envconfig:"FLATTEN_RETRIES" default:"10"`
		FlattenRetryDelay time.Duration `envconfig:"FLATTEN_RETRY_DELAY" default:"1s"`
		PollInterval      time.Duration `envconfig:"POLL_INTERVAL" default:"10ms"`
		AccountRefresh    time.Duration `envconfig:"ACCOUNT_REFRESH" default:"1s"`
	}

	// 로그 설정
	Log struct {
		Level  string `envconfig:"LOG_LEVEL" default:"info"`
		Format string `envconfig:"LOG_FORMAT" default:"console"`
		File   string `envconfig:"LOG_FILE" default:""`
	}
}

// ValidateConfig는 설정이 유효한지 확인합니다.
func ValidateConfig(cfg *Config) error {
	if cfg.Trading.Leverage < 1 || cfg.Trading.Leverage > 125 {
		return fmt.Errorf("레버리지는 1 이상 125 이하이어야 합니다")
	}

	if cfg.Trading.MarginType != "ISOLATED" && cfg.Trading.MarginType != "CROSSED" {
		return fmt.Errorf("MARGIN_TYPE은 ISOLATED 또는 CROSSED여야 합니다")
	}

	if cfg.Trading.FlattenRetries < 1 {
		return fmt.Errorf("FLATTEN_RETRIES는 1 이상이어야 합니다")
	}

	if cfg.Trading.PollInterval < time.Millisecond {
		return fmt.Errorf("POLL_INTERVAL은 1ms 이상이어야 합니다")
	}

	if len(cfg.Stream.Symbols) == 0 {
		return fmt.Errorf("STREAM_SYMBOLS가 비어 있습니다")
	}

	if !domain.TimeInterval(cfg.Stream.Interval).Valid() {
		return fmt.Errorf("지원하지 않는 STREAM_INTERVAL: %s", cfg.Stream.Interval)
	}

	return nil
}

// LoadConfig는 환경변수에서 설정을 로드합니다.
func LoadConfig() (*Config, error) {
	// .env 파일은 없어도 됩니다 (운영 환경에서는 환경변수 직접 주입)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("환경변수 처리 실패: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("설정값 검증 실패: %w", err)
	}

	return &cfg, nil
}
