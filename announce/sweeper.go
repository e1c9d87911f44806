package announce

import (
	"context"
	"errors"
	"fmt"
	"time"

	"souverain/calendar"
	"souverain/models"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Deliverer announces a single birthday.
type Deliverer interface {
	Deliver(ctx context.Context, birthday models.Birthday) error
}

// Report summarises one sweep.
type Report struct {
	RunID     string
	Month     time.Month
	Day       int
	Matched   int
	Delivered int
	Skipped   int
	Failed    int
}

// Sweeper announces the day's birthdays once a day at midnight reference time.
type Sweeper struct {
	birthdays BirthdayFinder
	deliverer Deliverer
	log       *zap.Logger
	now       func() time.Time
}

// NewSweeper creates a sweeper.
func NewSweeper(birthdays BirthdayFinder, deliverer Deliverer, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		birthdays: birthdays,
		deliverer: deliverer,
		log:       logger,
		now:       time.Now,
	}
}

// Run sweeps at every reference midnight until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	next := calendar.NextMidnight(s.now())

	for {
		s.log.Info(
			"Scheduled next birthday sweep.",
			zap.Time("at", next),
			zap.String("in", humanize.Time(next)),
		)

		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("Stopped birthday sweeper.")
			return
		case <-timer.C:
			// sweep the scheduled instant, not the wake-up time, so an early
			// wake-up still announces the new day
			s.Sweep(ctx, next)

			now := s.now()
			if now.Before(next) {
				now = next
			}
			next = calendar.NextMidnight(now)
		}
	}
}

// Sweep announces every birthday falling on now's reference day. Failures are
// logged per birthday and never stop the sweep.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) Report {
	month, day := calendar.Today(now)
	report := Report{RunID: uuid.NewString(), Month: month, Day: day}
	log := s.log.With(zap.String("run_id", report.RunID))

	log.Info("Checking today's birthdays...", zap.Int("month", int(month)), zap.Int("day", day))

	birthdays, err := s.birthdays.BirthdaysOn(ctx, month, day)
	if err != nil {
		log.Error("Failed to find today's birthdays.", zap.Error(err))
		return report
	}

	report.Matched = len(birthdays)
	if len(birthdays) == 0 {
		log.Info("No birthdays today.")
		return report
	}

	userIDs := make([]string, len(birthdays))
	for i, birthday := range birthdays {
		userIDs[i] = birthday.UserID
	}
	log.Info("Found birthdays.", zap.Strings("user_ids", userIDs))

	// One birthday at a time, in store order. Keeps announcements ordered and
	// stays clear of Discord's per-channel rate limits.
	for _, birthday := range birthdays {
		if ctx.Err() != nil {
			log.Warn("Abandoned birthday sweep.", zap.Error(ctx.Err()))
			break
		}

		err := s.deliver(ctx, birthday)
		switch {
		case err == nil:
			report.Delivered++
		case errors.Is(err, ErrNoChannelConfigured):
			report.Skipped++
			log.Debug(
				"Skipped birthday, no channel configured.",
				zap.String("guild_id", birthday.GuildID),
				zap.String("user_id", birthday.UserID),
			)
		default:
			report.Failed++
			log.Warn(
				"Failed to announce birthday.",
				zap.String("guild_id", birthday.GuildID),
				zap.String("user_id", birthday.UserID),
				zap.Error(err),
			)
		}
	}

	log.Info(
		"Finished birthday sweep.",
		zap.Int("matched", report.Matched),
		zap.Int("delivered", report.Delivered),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
	return report
}

func (s *Sweeper) deliver(ctx context.Context, birthday models.Birthday) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while announcing: %v", r)
		}
	}()
	return s.deliverer.Deliver(ctx, birthday)
}
