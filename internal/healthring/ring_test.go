package healthring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evahub/eva-gateway/internal/config"
)

func TestDisabledRingIsNil(t *testing.T) {
	assert.Nil(t, New(config.HealthRingConfig{Enabled: false}))
}

func TestCheckAllRecordsStatus(t *testing.T) {
	ring := New(config.HealthRingConfig{Enabled: true, CheckInterval: time.Minute})
	require.NotNil(t, ring)

	ring.Register("redis", func(ctx context.Context) error { return nil })
	ring.Register("llm", func(ctx context.Context) error { return errors.New("connection refused") })

	ring.checkAll(context.Background())

	status := ring.Status()
	require.Len(t, status, 2)
	assert.Equal(t, "up", status["redis"].Status)
	assert.Equal(t, "down", status["llm"].Status)
	assert.Equal(t, "connection refused", status["llm"].History[0].Error)
}

func TestHistoryIsBounded(t *testing.T) {
	ring := New(config.HealthRingConfig{Enabled: true, CheckInterval: time.Minute})
	ring.Register("redis", func(ctx context.Context) error { return nil })

	for i := 0; i < historySize+5; i++ {
		ring.checkAll(context.Background())
	}

	member, err := ring.GetMemberStatus("redis")
	require.NoError(t, err)
	assert.Len(t, member.History, historySize)
}

func TestUnknownMember(t *testing.T) {
	ring := New(config.HealthRingConfig{Enabled: true, CheckInterval: time.Minute})
	_, err := ring.GetMemberStatus("nope")
	require.Error(t, err)

	ring.Register("tts", func(ctx context.Context) error { return nil })
	assert.Equal(t, []string{"tts"}, ring.MemberNames())
	status := ring.Status()
	assert.Equal(t, "unknown", status["tts"].Status)
}
