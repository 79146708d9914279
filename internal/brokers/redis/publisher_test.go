package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callmonitor-bridge/internal/brokers"
	"callmonitor-bridge/internal/common/errors"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{"valid", &Config{Address: "localhost:6379"}, false},
		{"missing address", &Config{}, true},
		{"negative db", &Config{Address: "localhost:6379", DB: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "callmonitor-events", tt.config.Stream)
			assert.Equal(t, 5*time.Second, tt.config.Timeout)
		})
	}

	assert.Equal(t, "redis://:***@localhost:6379/2", (&Config{Address: "localhost:6379", Password: "pw", DB: 2}).GetConnectionString())
}

func TestPublisherPublish(t *testing.T) {
	s := miniredis.RunT(t)

	pub, err := NewPublisher(context.Background(), &Config{Address: s.Addr(), Stream: "calls"}, nil)
	require.NoError(t, err)
	defer pub.Close()

	assert.Equal(t, "redis", pub.Name())
	require.NoError(t, pub.Health(context.Background()))

	msg := &brokers.Message{
		MessageID:  "4f1c",
		RoutingKey: "RING",
		Headers:    map[string]string{"state": "ringing"},
		Body:       []byte(`{"kind":"RING"}`),
		Timestamp:  time.Unix(1700000000, 0),
	}
	require.NoError(t, pub.Publish(context.Background(), msg))

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	entries, err := client.XRange(context.Background(), "calls", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	values := entries[0].Values
	assert.Equal(t, `{"kind":"RING"}`, values["body"])
	assert.Equal(t, "4f1c", values["message_id"])
	assert.Equal(t, "RING", values["kind"])
	assert.Equal(t, "ringing", values["header_state"])
}

func TestPublisherConnectionFailure(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	_, err := NewPublisher(context.Background(), &Config{Address: addr, Timeout: 200 * time.Millisecond}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConnection))
}

func TestPublisherPublishAfterServerGone(t *testing.T) {
	s := miniredis.RunT(t)

	pub, err := NewPublisher(context.Background(), &Config{Address: s.Addr(), Timeout: 200 * time.Millisecond}, nil)
	require.NoError(t, err)
	defer pub.Close()

	s.Close()

	err = pub.Publish(context.Background(), &brokers.Message{MessageID: "x", Body: []byte("{}")})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConnection))
	assert.Error(t, pub.Health(context.Background()))
}
