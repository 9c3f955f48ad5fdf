// Package profile stores per-user profiles and onboarding state in Redis.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/evahub/eva-gateway/internal/logging"
)

// Onboarding stages. A new user starts with a settling-in period of five
// days before EVA switches to full proactive mode.
const (
	StageNotStarted = "not_started"
	StageSettlingIn = "settling_in"
	StageFull       = "full"
)

const maxPersonalNotes = 50

// Profile is everything EVA knows about a user.
type Profile struct {
	UserID          string    `json:"user_id"`
	Name            string    `json:"name,omitempty"`
	PreferredName   string    `json:"preferred_name,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	OnboardingStage string    `json:"onboarding_stage"`
	OnboardingDay   int       `json:"onboarding_day"`
	Language        string    `json:"preferred_language"`
	WakeTime        string    `json:"wake_time,omitempty"`
	MotivationStyle string    `json:"motivation_style,omitempty"`

	EffectiveApproaches   []string `json:"effective_approaches,omitempty"`
	IneffectiveApproaches []string `json:"ineffective_approaches,omitempty"`
	PersonalNotes         []string `json:"personal_notes,omitempty"`
}

// DisplayName returns the name EVA should address the user by. Safe on a
// nil profile.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.PreferredName != "" {
		return p.PreferredName
	}
	return p.Name
}

// Manager caches profiles in memory and persists them to Redis.
type Manager struct {
	rdb *redis.Client
	log *slog.Logger
	now func() time.Time

	mu    sync.Mutex
	cache map[string]*Profile
}

func NewManager(rdb *redis.Client) *Manager {
	return &Manager{
		rdb:   rdb,
		log:   logging.WithComponent("profile"),
		now:   time.Now,
		cache: map[string]*Profile{},
	}
}

func key(userID string) string { return "eva:profile:" + userID }

// Get loads the profile, creating a fresh one for unknown users.
func (m *Manager) Get(ctx context.Context, userID string) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.cache[userID]; ok {
		return p, nil
	}

	raw, err := m.rdb.Get(ctx, key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		p := &Profile{
			UserID:          userID,
			CreatedAt:       m.now(),
			OnboardingStage: StageNotStarted,
			Language:        "ru",
		}
		m.cache[userID] = p
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	m.cache[userID] = &p
	return &p, nil
}

// Save persists the profile and refreshes the cache.
func (m *Manager) Save(ctx context.Context, p *Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := m.rdb.Set(ctx, key(p.UserID), raw, 0).Err(); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	m.mu.Lock()
	m.cache[p.UserID] = p
	m.mu.Unlock()
	return nil
}

// UpdateName sets the user's name and optional preferred form of address.
func (m *Manager) UpdateName(ctx context.Context, userID, name, preferredName string) error {
	p, err := m.Get(ctx, userID)
	if err != nil {
		return err
	}
	p.Name = name
	if preferredName != "" {
		p.PreferredName = preferredName
	}
	return m.Save(ctx, p)
}

// AdvanceOnboarding moves the user to the given stage.
func (m *Manager) AdvanceOnboarding(ctx context.Context, userID, stage string) error {
	p, err := m.Get(ctx, userID)
	if err != nil {
		return err
	}
	p.OnboardingStage = stage
	switch stage {
	case StageSettlingIn:
		p.OnboardingDay = 1
	case StageFull:
		p.OnboardingDay = 0
	}
	m.log.Info("onboarding advanced", "user", userID, "stage", stage)
	return m.Save(ctx, p)
}

// IncrementOnboardingDay bumps the settling-in day counter; after five days
// the user graduates to full mode.
func (m *Manager) IncrementOnboardingDay(ctx context.Context, userID string) error {
	p, err := m.Get(ctx, userID)
	if err != nil {
		return err
	}
	if p.OnboardingStage != StageSettlingIn {
		return nil
	}
	p.OnboardingDay++
	if p.OnboardingDay > 5 {
		p.OnboardingStage = StageFull
		p.OnboardingDay = 0
		m.log.Info("onboarding completed", "user", userID)
	}
	return m.Save(ctx, p)
}

// AddEffectiveApproach records a motivation approach that worked, removing
// it from the ineffective list if present.
func (m *Manager) AddEffectiveApproach(ctx context.Context, userID, approach string) error {
	p, err := m.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !contains(p.EffectiveApproaches, approach) {
		p.EffectiveApproaches = append(p.EffectiveApproaches, approach)
	}
	p.IneffectiveApproaches = remove(p.IneffectiveApproaches, approach)
	return m.Save(ctx, p)
}

// AddIneffectiveApproach records an approach that did not land.
func (m *Manager) AddIneffectiveApproach(ctx context.Context, userID, approach string) error {
	p, err := m.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !contains(p.IneffectiveApproaches, approach) {
		p.IneffectiveApproaches = append(p.IneffectiveApproaches, approach)
	}
	return m.Save(ctx, p)
}

// AddPersonalNote appends a dated observation, keeping the newest fifty.
func (m *Manager) AddPersonalNote(ctx context.Context, userID, note string) error {
	p, err := m.Get(ctx, userID)
	if err != nil {
		return err
	}
	p.PersonalNotes = append(p.PersonalNotes,
		fmt.Sprintf("[%s] %s", m.now().Format("2006-01-02"), note))
	if len(p.PersonalNotes) > maxPersonalNotes {
		p.PersonalNotes = p.PersonalNotes[len(p.PersonalNotes)-maxPersonalNotes:]
	}
	return m.Save(ctx, p)
}

// Delete removes the profile from Redis and the cache.
func (m *Manager) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	delete(m.cache, userID)
	m.mu.Unlock()
	if err := m.rdb.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func remove(list []string, v string) []string {
	out := list[:0]
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}
