package availability

import (
	"errors"
	"fmt"
	"time"

	"github.com/halcyon-studio/slotbook/libs/config"
)

// ConfigFromEnv reads SLOT_DURATION_MINUTES (30), SLOT_BUFFER_MINUTES (0) and
// BOOKING_TIMEZONE (UTC). Every problem found is reported at once.
func ConfigFromEnv() (Config, error) {
	var (
		cfg  Config
		errs []error
		err  error
	)
	if cfg.SlotDurationMinutes, err = config.Int("SLOT_DURATION_MINUTES", 30); err != nil {
		errs = append(errs, err)
	}
	if cfg.BufferMinutes, err = config.Int("SLOT_BUFFER_MINUTES", 0); err != nil {
		errs = append(errs, err)
	}
	if cfg.Location, err = time.LoadLocation(config.String("BOOKING_TIMEZONE", "UTC")); err != nil {
		errs = append(errs, fmt.Errorf("BOOKING_TIMEZONE: %w", err))
	}
	if len(errs) == 0 {
		errs = append(errs, cfg.Validate())
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
