package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	fail   bool
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broker unavailable")
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestProducer_FlushesOnClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 8, nil)
	p.Start(context.Background())

	p.Publish([]byte("s-1"), []byte(`{"n":1}`), kafka.Header{Key: "x-event-type", Value: []byte("CheckoutApproved")})
	p.Publish([]byte("s-1"), []byte(`{"n":2}`))
	p.Close()
	p.Close()
	p.WaitClosed()

	require.Len(t, w.msgs, 2)
	assert.Equal(t, []byte(`{"n":1}`), w.msgs[0].Value)
	assert.Equal(t, "x-event-type", w.msgs[0].Headers[0].Key)
	assert.True(t, w.closed)
}

func TestProducer_WriteErrorsDoNotStopLoop(t *testing.T) {
	w := &fakeWriter{fail: true}
	p := newProducer(w, 1, nil)
	p.Start(context.Background())

	p.Publish(nil, []byte("a"))
	p.Publish(nil, []byte("b"))
	p.Close()
	p.WaitClosed()

	assert.Empty(t, w.msgs)
	assert.True(t, w.closed)
}

// blockingWriter holds every write until released.
type blockingWriter struct {
	fakeWriter
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return b.fakeWriter.WriteMessages(ctx, msgs...)
}

func TestProducer_PublishDropsWhenInboxFull(t *testing.T) {
	w := &blockingWriter{entered: make(chan struct{}), release: make(chan struct{})}
	p := newProducer(w, 1, nil)
	p.Start(context.Background())

	require.True(t, p.Publish(nil, []byte("in flight")))
	<-w.entered
	require.True(t, p.Publish(nil, []byte("buffered")))

	returned := make(chan bool)
	go func() { returned <- p.Publish(nil, []byte("dropped")) }()
	select {
	case ok := <-returned:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full inbox")
	}

	close(w.release)
	p.Close()
	p.WaitClosed()
	require.Len(t, w.msgs, 2)
	assert.Equal(t, []byte("buffered"), w.msgs[1].Value)
}

func TestProducer_PublishAfterCloseIsDropped(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 4, nil)
	p.Start(context.Background())
	p.Close()
	p.WaitClosed()

	assert.NotPanics(t, func() {
		assert.False(t, p.Publish(nil, []byte("late")))
	})
	assert.Empty(t, w.msgs)
}

func TestUnwrapPayload(t *testing.T) {
	type payload struct {
		Total float64 `json:"total"`
	}
	got, err := UnwrapPayload[payload]([]byte(`{"total": 107000}`))
	require.NoError(t, err)
	assert.Equal(t, 107000.0, got.Total)

	_, err = UnwrapPayload[payload]([]byte(`{"total": "x"}`))
	assert.ErrorContains(t, err, "decode payload")
}
