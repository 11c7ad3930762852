package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	mongoadapter "github.com/robertarktes/stay-reservations/internal/adapters/mongo"
	"github.com/robertarktes/stay-reservations/internal/adapters/rabbit"
	"github.com/robertarktes/stay-reservations/internal/config"
	"github.com/robertarktes/stay-reservations/internal/observability"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger()

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	audit := mongoadapter.NewAuditLogger(mongoClient.Database("stay"), logger)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()
	consumer, err := rabbit.NewConsumer(conn, "audit.q")
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := NewAuditWorker(consumer, audit, logger)
	go worker.Run(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutdown audit worker")
}

// AuditWorker copies every booking lifecycle event into the mongo audit
// collection. Deliveries are acked only after the write lands, so a crash
// replays the event and the dedupe key keeps the trail clean.
type AuditWorker struct {
	consumer *rabbit.Consumer
	audit    *mongoadapter.AuditLogger
	logger   observability.Logger
}

func NewAuditWorker(consumer *rabbit.Consumer, audit *mongoadapter.AuditLogger, logger observability.Logger) *AuditWorker {
	return &AuditWorker{consumer: consumer, audit: audit, logger: logger}
}

func (w *AuditWorker) Run(ctx context.Context) {
	deliveries, err := w.consumer.Consume(ctx)
	if err != nil {
		w.logger.WithError(err).Error("failed to start consuming")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			if err := w.process(ctx, d); err != nil {
				w.logger.WithError(err).WithField("routing_key", d.RoutingKey).Warn("audit write failed, requeueing")
				d.Nack(false, true)
				time.Sleep(time.Second)
				continue
			}
			d.Ack(false)
		}
	}
}

func (w *AuditWorker) process(ctx context.Context, d amqp.Delivery) error {
	var payload struct {
		BookingID int64 `json:"booking_id"`
	}
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		// Malformed payloads never become processable; drop them.
		w.logger.WithError(err).Warn("dropping malformed event")
		return nil
	}

	var data map[string]interface{}
	_ = json.Unmarshal(d.Body, &data)
	return w.audit.LogEvent(ctx, d.RoutingKey, payload.BookingID, data)
}
