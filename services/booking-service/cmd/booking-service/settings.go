package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/halcyon-studio/slotbook/libs/config"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/availability"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/booking"
)

type settings struct {
	Service        string
	Port           string
	GRPCPort       string
	DatabaseURL    string
	Scheduling     availability.Config
	StoreTimeout   time.Duration
	KafkaBrokers   string
	RedisAddr      string
	RateLimit      int
	CORSOrigins    []string
	AdminKeyHash   string
	MigrateOnStart bool
}

func loadSettings() (settings, error) {
	var (
		s    settings
		errs []error
		err  error
	)
	s.Service = config.String("SERVICE_NAME", "booking-service")
	if s.Port, err = config.Port("PORT", "8083"); err != nil {
		errs = append(errs, err)
	}
	if s.GRPCPort, err = config.Port("GRPC_PORT", "9093"); err != nil {
		errs = append(errs, err)
	}
	if s.DatabaseURL, err = config.RequiredString("DATABASE_URL"); err != nil {
		errs = append(errs, err)
	}
	if s.Scheduling, err = availability.ConfigFromEnv(); err != nil {
		errs = append(errs, err)
	}
	if s.StoreTimeout, err = config.Duration("STORE_TIMEOUT", booking.DefaultStoreTimeout); err != nil {
		errs = append(errs, err)
	}
	if s.RateLimit, err = config.Int("RATE_LIMIT_PER_MINUTE", 30); err != nil {
		errs = append(errs, err)
	}
	s.KafkaBrokers = config.String("KAFKA_BROKERS", "")
	s.RedisAddr = config.String("REDIS_ADDR", "")
	s.CORSOrigins = config.List("CORS_ALLOWED_ORIGINS")
	s.AdminKeyHash = config.String("ADMIN_API_KEY_HASH", "")
	s.MigrateOnStart = config.Bool("MIGRATE_ON_START", false)

	if err := errors.Join(errs...); err != nil {
		return settings{}, fmt.Errorf("%w: %v", booking.ErrConfiguration, err)
	}
	return s, nil
}
