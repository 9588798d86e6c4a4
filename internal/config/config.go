package config

import (
	"flag"
	"strings"

	"github.com/Bessima/orderflow/internal/middlewares/logger"
	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Address string `env:"RUN_ADDRESS"`

	DatabaseDNS  string `env:"DATABASE_URI"`
	RedisAddress string `env:"REDIS_ADDR"`

	KafkaBrokers string `env:"KAFKA_BROKERS"`
	KafkaTopic   string `env:"KAFKA_TOPIC"`

	DocumentsDir string `env:"DOCUMENTS_DIR"`
	JWTSecret    string `env:"JWT_SECRET"`
	LogLevel     string `env:"LOG_LEVEL"`

	ImportChunkSize         int `env:"IMPORT_CHUNK_SIZE"`
	ImportSessionTTLSeconds int `env:"IMPORT_SESSION_TTL_SECONDS"`
}

func InitConfig() *Config {
	// .env необязателен, переменные окружения имеют приоритет.
	_ = godotenv.Load()

	flags := Flags{}
	flags.Init()

	cfg := fromFlags(flags)
	cfg.parseEnv()

	return &cfg
}

// FromEnv собирает конфигурацию без разбора аргументов командной строки.
// Используется там, где флаги разбирает cobra.
func FromEnv() *Config {
	_ = godotenv.Load()

	flags := Flags{}
	flags.InitWith(flag.NewFlagSet("defaults", flag.ContinueOnError))

	cfg := fromFlags(flags)
	cfg.parseEnv()

	return &cfg
}

func fromFlags(flags Flags) Config {
	return Config{
		Address:                 flags.address,
		DatabaseDNS:             flags.dbDNS,
		RedisAddress:            flags.redisAddress,
		KafkaBrokers:            flags.kafkaBrokers,
		KafkaTopic:              defaultKafkaTopic,
		DocumentsDir:            flags.documentsDir,
		JWTSecret:               defaultJWTSecret,
		LogLevel:                flags.logLevel,
		ImportChunkSize:         defaultImportChunk,
		ImportSessionTTLSeconds: defaultImportTTL,
	}
}

func (cfg *Config) parseEnv() {
	err := env.Parse(cfg)
	if err != nil {
		logger.Log.Warn("Getting an error while parsing the configuration", zap.String("err", err.Error()))
	}
	if cfg.JWTSecret == defaultJWTSecret {
		logger.Log.Warn("JWT_SECRET is not set, using the development secret")
	}
	if cfg.ImportChunkSize <= 0 {
		cfg.ImportChunkSize = defaultImportChunk
	}
}

func (cfg *Config) KafkaBrokerList() []string {
	parts := strings.Split(cfg.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
