package amqp

import (
	"context"

	"bujit/internal/ledger"
	"bujit/internal/log"
)

// EventPublisher is implemented by Client.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, msg *LedgerEventMessage) error
}

// Publisher forwards ledger completions to an EventPublisher from its own
// goroutine, so a slow broker never holds up a ledger operation. Publish
// failures are logged and dropped.
type Publisher struct {
	pub    EventPublisher
	queue  chan *LedgerEventMessage
	logger *log.Logger
}

func NewPublisher(pub EventPublisher, buffer int) *Publisher {
	if buffer < 1 {
		buffer = 1
	}
	return &Publisher{
		pub:    pub,
		queue:  make(chan *LedgerEventMessage, buffer),
		logger: log.ForComponent(log.ComponentAMQP),
	}
}

// Listen is a ledger.Listener. It never blocks; when the buffer is full the
// event is dropped with a warning.
func (p *Publisher) Listen(ctx context.Context, c ledger.Completion) {
	msg := NewLedgerEventMessage(c)
	if msg == nil {
		return
	}
	select {
	case p.queue <- msg:
	default:
		p.logger.WarnContext(ctx, "Event buffer full, dropping ledger event", log.FieldOperation, msg.Op)
	}
}

// Run publishes queued events until ctx is done.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-p.queue:
			if err := p.pub.PublishLedgerEvent(ctx, msg); err != nil {
				p.logger.ErrorContext(ctx, "Failed to publish ledger event",
					log.FieldOperation, msg.Op,
					log.FieldError, err)
			}
		}
	}
}
