// Package scheduler runs the background sweep that expires overdue exam
// attempts, so deadlines hold even when a student never comes back.
package scheduler

import (
	"context"

	"github.com/lshigami/Sifaka/config"
	"github.com/lshigami/Sifaka/internal/service"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
)

// Register wires the attempt-expiry sweep into the application lifecycle.
// The cron spec comes from SWEEP_SPEC (default every minute).
func Register(lc fx.Lifecycle, cfg *config.Config, attemptSvc service.AttemptService) error {
	c := cron.New()

	_, err := c.AddFunc(cfg.Sweep.Spec, func() {
		expired, err := attemptSvc.ExpireOverdue(context.Background())
		if err != nil {
			log.Error().Err(err).Msg("Attempt expiry sweep failed")
			return
		}
		if expired > 0 {
			log.Info().Int("expired", expired).Msg("Expired overdue attempts")
		}
	})
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Str("spec", cfg.Sweep.Spec).Msg("Starting attempt expiry sweep")
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopped := c.Stop()
			select {
			case <-stopped.Done():
			case <-ctx.Done():
			}
			return nil
		},
	})
	return nil
}
