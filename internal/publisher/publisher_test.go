package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/cart-engine/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	m        sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
	deadline bool
}

func (w *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.m.Lock()
	defer w.m.Unlock()
	_, w.deadline = ctx.Deadline()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *mockWriter) Close() error {
	w.m.Lock()
	defer w.m.Unlock()
	w.closed = true
	return nil
}

func sampleConfirmation() domain.Confirmation {
	return domain.Confirmation{
		ID:              "c-1",
		OwnerKey:        "identity:ada",
		Method:          domain.PaymentMethodCreditCard,
		MaskedReference: "**** **** **** 1111",
		Subtotal:        30,
		Discount:        3,
		FinalTotal:      27,
		LoyaltyPoints:   135,
		Lines: []domain.CartLine{
			{Product: domain.Product{ID: "apple", Name: "Apple", Price: 10, Stock: 5}, Quantity: 3},
		},
		ConfirmedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &mockWriter{}
	sut := newKafkaPublisher(w, time.Second, nil)

	require.NoError(t, sut.Publish(context.Background(), sampleConfirmation()))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "identity:ada", string(msg.Key))
	assert.True(t, w.deadline)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, "CheckoutConfirmed", string(msg.Headers[0].Value))

	var decoded domain.Confirmation
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, sampleConfirmation(), decoded)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	w := &mockWriter{err: errors.New("leader not available")}
	sut := newKafkaPublisher(w, time.Second, nil)

	err := sut.Publish(context.Background(), sampleConfirmation())
	require.Error(t, err)
	assert.ErrorIs(t, err, w.err)
	assert.Contains(t, err.Error(), "c-1")
}

func TestKafkaPublisher_Close(t *testing.T) {
	w := &mockWriter{}
	sut := newKafkaPublisher(w, time.Second, nil)
	require.NoError(t, sut.Close())
	assert.True(t, w.closed)
}

func TestRecorder(t *testing.T) {
	sut := NewRecorder(nil)
	first := sampleConfirmation()
	second := sampleConfirmation()
	second.ID = "c-2"

	require.NoError(t, sut.Publish(context.Background(), first))
	require.NoError(t, sut.Publish(context.Background(), second))

	got := sut.Confirmations()
	require.Len(t, got, 2)
	assert.Equal(t, "c-1", got[0].ID)
	assert.Equal(t, "c-2", got[1].ID)

	got[0].ID = "changed"
	assert.Equal(t, "c-1", sut.Confirmations()[0].ID)
}
