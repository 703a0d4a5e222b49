package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer buffers messages in an inbox drained by a single goroutine.
// Publish never blocks: a full inbox or a closed producer drops the message.
type Producer struct {
	w         writer
	log       *zap.Logger
	inbox   chan kafka.Message
	closeCh chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewProducer(brokers []string, topic string, buf int, log *zap.Logger) *Producer {
	return newProducer(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}, buf, log)
}

func newProducer(w writer, buf int, log *zap.Logger) *Producer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Producer{
		w:       w,
		log:     log,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start drains the inbox until Close; remaining messages are flushed before
// the writer is closed.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for m := range p.inbox {
			wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			if err := p.w.WriteMessages(wctx, m); err != nil {
				p.log.Error("kafka write", zap.ByteString("key", m.Key), zap.Error(err))
			}
			cancel()
		}
		if err := p.w.Close(); err != nil {
			p.log.Warn("kafka writer close", zap.Error(err))
		}
	}()
}

// Publish reports whether the message was queued.
func (p *Producer) Publish(key, value []byte, headers ...kafka.Header) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.log.Warn("kafka publish after close dropped", zap.ByteString("key", key))
		return false
	}
	select {
	case p.inbox <- kafka.Message{Key: key, Value: value, Time: time.Now(), Headers: headers}:
		return true
	default:
		p.log.Error("kafka inbox full, message dropped", zap.ByteString("key", key))
		return false
	}
}

// Close stops accepting messages; the drain goroutine flushes and exits.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
}

// WaitClosed blocks until the drain goroutine is done.
func (p *Producer) WaitClosed() { <-p.closeCh }
