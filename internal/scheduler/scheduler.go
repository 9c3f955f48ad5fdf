// Package scheduler runs EVA's proactive side: recurring per-user cron jobs
// (morning briefing, break reminders, evening check-in) and one-shot
// reminders created by the command executor.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/evahub/eva-gateway/internal/config"
	"github.com/evahub/eva-gateway/internal/logging"
	"github.com/evahub/eva-gateway/internal/notify"
	"github.com/evahub/eva-gateway/internal/profile"
)

// ProactiveGenerator produces a short proactive message for a trigger
// (morning, break, checkin, encouragement).
type ProactiveGenerator interface {
	Proactive(ctx context.Context, p *profile.Profile, trigger string) (string, string, error)
}

// Reminder is a pending one-shot reminder.
type Reminder struct {
	ID      string    `json:"id"`
	UserID  string    `json:"user_id"`
	Message string    `json:"message"`
	RunAt   time.Time `json:"run_at"`
}

// Scheduler owns the cron runner and the one-shot reminder timers.
type Scheduler struct {
	cron      *cron.Cron
	cfg       config.SchedulerConfig
	publisher *notify.Publisher
	profiles  *profile.Manager
	generator ProactiveGenerator
	log       *slog.Logger

	mu        sync.Mutex
	jobs      map[string]cron.EntryID
	reminders map[string]*pendingReminder
}

type pendingReminder struct {
	Reminder
	timer *time.Timer
}

func New(cfg config.SchedulerConfig, publisher *notify.Publisher, profiles *profile.Manager, generator ProactiveGenerator) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		cfg:       cfg,
		publisher: publisher,
		profiles:  profiles,
		generator: generator,
		log:       logging.WithComponent("scheduler"),
		jobs:      map[string]cron.EntryID{},
		reminders: map[string]*pendingReminder{},
	}
}

// Start begins running cron jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop halts the cron runner, waits for running jobs, and cancels pending
// reminder timers.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.mu.Lock()
	for _, r := range s.reminders {
		r.timer.Stop()
	}
	s.reminders = map[string]*pendingReminder{}
	s.mu.Unlock()
	s.log.Info("scheduler stopped")
}

// AddReminder schedules a one-shot reminder and returns its ID.
func (s *Scheduler) AddReminder(userID, message string, runAt time.Time) (string, error) {
	delay := time.Until(runAt)
	if delay <= 0 {
		return "", fmt.Errorf("reminder time %s is in the past", runAt.Format(time.RFC3339))
	}

	r := &pendingReminder{
		Reminder: Reminder{
			ID:      uuid.NewString(),
			UserID:  userID,
			Message: message,
			RunAt:   runAt,
		},
	}
	r.timer = time.AfterFunc(delay, func() { s.fireReminder(r.Reminder) })

	s.mu.Lock()
	s.reminders[r.ID] = r
	s.mu.Unlock()

	s.log.Info("reminder scheduled", "user", userID, "id", r.ID, "run_at", runAt)
	return r.ID, nil
}

// CancelReminder stops a pending reminder. Returns false if it already fired
// or never existed.
func (s *Scheduler) CancelReminder(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reminders[id]
	if !ok {
		return false
	}
	r.timer.Stop()
	delete(s.reminders, id)
	return true
}

// Reminders returns pending reminders, soonest first. An empty userID returns
// all users.
func (s *Scheduler) Reminders(userID string) []Reminder {
	s.mu.Lock()
	out := make([]Reminder, 0, len(s.reminders))
	for _, r := range s.reminders {
		if userID == "" || r.UserID == userID {
			out = append(out, r.Reminder)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].RunAt.Before(out[j].RunAt) })
	return out
}

func (s *Scheduler) fireReminder(r Reminder) {
	s.mu.Lock()
	delete(s.reminders, r.ID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := s.publisher.Publish(ctx, notify.Notification{
		UserID:  r.UserID,
		Message: "⏰ Напоминание: " + r.Message,
		Trigger: "reminder",
	})
	if err != nil {
		s.log.Error("reminder publish failed", "id", r.ID, "user", r.UserID, "error", err)
	}
}

// AddJob registers (or replaces) a named cron job.
func (s *Scheduler) AddJob(id, spec string, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.jobs[id]; ok {
		s.cron.Remove(entry)
	}
	entry, err := s.cron.AddFunc(spec, fn)
	if err != nil {
		return fmt.Errorf("add job %s: %w", id, err)
	}
	s.jobs[id] = entry
	s.log.Info("job added", "id", id, "spec", spec)
	return nil
}

// RemoveJob unregisters a named cron job.
func (s *Scheduler) RemoveJob(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.jobs[id]; ok {
		s.cron.Remove(entry)
		delete(s.jobs, id)
		s.log.Info("job removed", "id", id)
	}
}

// SetupUserSchedule installs the proactive jobs for one user based on their
// profile wake time. Existing jobs for the user are replaced, so calling it
// again after a profile change is safe.
func (s *Scheduler) SetupUserSchedule(ctx context.Context, userID string) error {
	if !s.cfg.Enabled {
		return nil
	}

	wake := s.cfg.DefaultWakeTime
	if s.profiles != nil {
		if p, err := s.profiles.Get(ctx, userID); err == nil && p.WakeTime != "" {
			wake = p.WakeTime
		}
	}
	hour, minute := parseWakeTime(wake)

	// Morning briefing lands five minutes after wake-up.
	minute += 5
	if minute >= 60 {
		minute -= 60
		hour = (hour + 1) % 24
	}
	if err := s.AddJob(userID+"_morning",
		fmt.Sprintf("%d %d * * *", minute, hour),
		func() { s.proactive(userID, "morning") }); err != nil {
		return err
	}

	if s.cfg.BreakReminders {
		if err := s.AddJob(userID+"_break", "30 10-18 * * 1-5",
			func() { s.proactive(userID, "break") }); err != nil {
			return err
		}
	}

	if s.cfg.EveningCheckin {
		if err := s.AddJob(userID+"_evening", "0 18 * * *",
			func() { s.proactive(userID, "checkin") }); err != nil {
			return err
		}
	}

	s.log.Info("user schedule configured", "user", userID, "wake", wake)
	return nil
}

// RemoveUserSchedule drops all proactive jobs for a user.
func (s *Scheduler) RemoveUserSchedule(userID string) {
	for _, suffix := range []string{"_morning", "_break", "_evening"} {
		s.RemoveJob(userID + suffix)
	}
}

func (s *Scheduler) proactive(userID, trigger string) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	var p *profile.Profile
	if s.profiles != nil {
		p, _ = s.profiles.Get(ctx, userID)
	}

	message, emotion := fallbackProactive(trigger)
	if s.generator != nil {
		if text, emo, err := s.generator.Proactive(ctx, p, trigger); err == nil {
			message, emotion = text, emo
		} else {
			s.log.Error("proactive generation failed, using fallback",
				"user", userID, "trigger", trigger, "error", err)
		}
	}

	if _, err := s.publisher.Publish(ctx, notify.Notification{
		UserID:  userID,
		Message: message,
		Trigger: trigger,
		Emotion: emotion,
	}); err != nil {
		s.log.Error("proactive publish failed", "user", userID, "trigger", trigger, "error", err)
	}
}

func fallbackProactive(trigger string) (string, string) {
	switch trigger {
	case "morning":
		return "Доброе утро! ☀️ Как спалось?", "friendly"
	case "break":
		return "Эй, ты давно не отдыхал(а). Может, пора размяться? 🙂", "supportive"
	case "checkin":
		return "Как прошёл день? Расскажешь?", "friendly"
	default:
		return "Я тут подумала о тебе. Как дела?", "friendly"
	}
}

// parseWakeTime parses "HH:MM", falling back to 9:00 on malformed input.
func parseWakeTime(s string) (int, int) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 9, 0
	}
	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 9, 0
	}
	return hour, minute
}
