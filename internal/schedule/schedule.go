// Package schedule applies brightness presets at fixed times of day.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

const tag = "brightness"

// Entry sets Brightness every day at At ("HH:MM", local time).
type Entry struct {
	At         string `mapstructure:"at" yaml:"at"`
	Brightness int    `mapstructure:"brightness" yaml:"brightness"`
}

// Requester receives scheduled brightness values.
type Requester interface {
	Request(percent int) error
}

// Scheduler wraps a gocron scheduler holding one daily job per entry.
type Scheduler struct {
	scheduler gocron.Scheduler
	target    Requester
	log       zerolog.Logger
}

func NewScheduler(target Requester, log zerolog.Logger, opts ...gocron.SchedulerOption) (*Scheduler, error) {
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, target: target, log: log}, nil
}

func (s *Scheduler) Start() {
	s.log.Info().Int("jobs", len(s.scheduler.Jobs())).Msg("starting scheduler")
	s.scheduler.Start()
}

func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}

// Replace drops every scheduled entry and installs entries instead.
func (s *Scheduler) Replace(entries []Entry) error {
	s.scheduler.RemoveByTags(tag)
	for _, e := range entries {
		if err := s.add(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) add(e Entry) error {
	h, m, err := ParseClock(e.At)
	if err != nil {
		return err
	}

	_, err = s.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(h, m, 0))),
		gocron.NewTask(s.fire, e),
		gocron.WithName(fmt.Sprintf("brightness-%s", e.At)),
		gocron.WithTags(tag),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", e.At, err)
	}
	return nil
}

// NextRuns lists when each entry fires next.
func (s *Scheduler) NextRuns() map[string]time.Time {
	runs := make(map[string]time.Time)
	for _, j := range s.scheduler.Jobs() {
		next, err := j.NextRun()
		if err != nil {
			continue
		}
		runs[j.Name()] = next
	}
	return runs
}

func (s *Scheduler) fire(e Entry) {
	s.log.Info().Str("at", e.At).Int("brightness", e.Brightness).Msg("scheduled brightness")
	if err := s.target.Request(e.Brightness); err != nil {
		s.log.Warn().Err(err).Str("at", e.At).Msg("scheduled brightness rejected")
	}
}

// ParseClock parses "HH:MM".
func ParseClock(at string) (uint, uint, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(at))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q, want HH:MM", at)
	}
	return uint(t.Hour()), uint(t.Minute()), nil
}
