package nats

import (
	"context"
	"os"
	"testing"
	"time"

	"proposal-intake-be/internal/pkg/logger"
	"proposal-intake-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectRoundTrip(t *testing.T) {
	assert.Equal(t, "events.PROPOSAL_READY", Subject(events.ProposalReady))
	assert.Equal(t, events.ProposalReady, EventType(Subject(events.ProposalReady)))
}

func TestDecode(t *testing.T) {
	event, err := decode("events.PROPOSAL_READY", []byte(`{"conversation_id":"abc","occurred_at":"2024-05-01T10:00:00Z"}`))
	require.NoError(t, err)

	assert.Equal(t, events.ProposalReady, event.EventType())
	assert.Equal(t, "abc", event.String("conversation_id"))
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), event.Timestamp().UTC())

	_, err = decode("events.X", []byte("not json"))
	assert.Error(t, err)
}

func TestPublishSubscribe(t *testing.T) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set")
	}
	log := logger.NewNopLogger()

	pub, err := NewPublisher(url, log)
	require.NoError(t, err)
	defer pub.Close()
	sub, err := NewSubscriber(url, log)
	require.NoError(t, err)
	defer sub.Close()

	got := make(chan events.BaseEvent, 1)
	ctx := context.Background()
	durable := "test_" + uuid.NewString()[:8]
	require.NoError(t, sub.Subscribe(ctx, Subject(events.ProposalReady), durable, func(_ context.Context, e events.BaseEvent) error {
		select {
		case got <- e:
		default:
		}
		return nil
	}))

	conv := uuid.New()
	require.NoError(t, pub.Publish(ctx, events.NewProposalReadyEvent(conv, uuid.New(), "p.pdf", "full", time.Now())))

	select {
	case e := <-got:
		assert.Equal(t, events.ProposalReady, e.EventType())
	case <-time.After(5 * time.Second):
		t.Fatal("event not delivered")
	}
}
