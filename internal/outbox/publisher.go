package outbox

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/stay-reservations/internal/adapters/crdb"
	"github.com/robertarktes/stay-reservations/internal/adapters/rabbit"
	"github.com/robertarktes/stay-reservations/internal/observability"
)

// Publisher drains the transactional outbox into the stay.events exchange.
// The dedupe key travels as the message id so downstream consumers can drop
// replays after a crash between publish and mark.
type Publisher struct {
	repo      *crdb.Repository
	rabbitPub *rabbit.Publisher
	logger    observability.Logger
}

func NewPublisher(repo *crdb.Repository, rabbitPub *rabbit.Publisher, logger observability.Logger) *Publisher {
	return &Publisher{repo: repo, rabbitPub: rabbitPub, logger: logger}
}

func (p *Publisher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.drain(ctx)
		}
	}
}

func (p *Publisher) drain(ctx context.Context) {
	records, err := p.repo.GetUnpublishedOutbox(ctx, 50)
	if err != nil {
		p.logger.WithError(err).Error("failed to fetch outbox records")
		return
	}
	if len(records) == 0 {
		observability.OutboxLag.Set(0)
		return
	}
	observability.OutboxLag.Set(time.Since(records[0].CreatedAt).Seconds())

	for _, rec := range records {
		msg := amqp.Publishing{
			MessageId:   rec.DedupeKey,
			ContentType: "application/json",
			Body:        rec.Payload,
		}
		if err := p.rabbitPub.Publish(ctx, rec.EventType, msg); err != nil {
			p.logger.WithError(err).WithField("event_type", rec.EventType).Warn("publish failed, will retry")
			continue
		}
		if err := p.repo.MarkPublished(ctx, rec.ID, time.Now()); err != nil {
			p.logger.WithError(err).Error("failed to mark outbox record published")
		}
	}
}
