package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phish_backend/internal/feature/detection/domain/entity"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
	deadline bool
}

type mockChannel struct {
	publishErr error
	closeErr   error
	sent       []published
	closed     int
}

func (m *mockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	_, ok := ctx.Deadline()
	m.sent = append(m.sent, published{exchange: exchange, key: key, msg: msg, deadline: ok})
	return m.publishErr
}

func (m *mockChannel) Close() error {
	m.closed++
	return m.closeErr
}

func TestPublisher_Append(t *testing.T) {
	ch := &mockChannel{}
	p := newPublisher(ch, "phish.verdicts", nil)
	at := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

	err := p.Append(context.Background(), entity.AuditRecord{
		ID:       "rec-1",
		Identity: "alice",
		URL:      "https://example.com",
		URLHash:  "h",
		Verdict:  entity.VerdictPhishing,
		Results: []entity.RawResult{
			{Method: "reverse_image_search", Verdict: entity.VerdictPhishing},
			{Method: "title_analysis", Verdict: entity.VerdictInconclusive},
		},
		CreatedAt: at,
	})

	require.NoError(t, err)
	require.Len(t, ch.sent, 1)
	sent := ch.sent[0]
	assert.Equal(t, "phish.verdicts", sent.exchange)
	assert.Equal(t, "verdict.phishing", sent.key)
	assert.True(t, sent.deadline)
	assert.Equal(t, "application/json", sent.msg.ContentType)
	assert.Equal(t, amqp.Persistent, sent.msg.DeliveryMode)
	assert.Equal(t, "rec-1", sent.msg.MessageId)

	var ev VerdictEvent
	require.NoError(t, json.Unmarshal(sent.msg.Body, &ev))
	assert.Equal(t, "alice", ev.Identity)
	assert.Equal(t, []string{"reverse_image_search", "title_analysis"}, ev.Methods)
	assert.True(t, at.Equal(ev.CreatedAt))
}

func TestPublisher_AppendError(t *testing.T) {
	ch := &mockChannel{publishErr: errors.New("channel closed")}
	p := newPublisher(ch, "x", nil)

	err := p.Append(context.Background(), entity.AuditRecord{ID: "r", Verdict: entity.VerdictInconclusive})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "verdict.inconclusive")
}

func TestPublisher_Close(t *testing.T) {
	ch := &mockChannel{closeErr: errors.New("already closed")}
	p := newPublisher(ch, "x", nil)

	err := p.Close()

	assert.ErrorContains(t, err, "failed to close channel")
	assert.Equal(t, 1, ch.closed)
}
