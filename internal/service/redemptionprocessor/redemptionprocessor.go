package redemptionprocessor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/qgfurioso/coinledger/internal/logger"
	"github.com/qgfurioso/coinledger/internal/models"
)

const (
	defaultCountWorkers    = 4               // Number of workers to fulfill redemptions
	defaultProduceInterval = 5 * time.Second // Interval for polling pending redemptions
	defaultBatchSize       = 100             // Pending redemptions fetched per tick
)

type storeService interface {
	ListPending(ctx context.Context, limit int) ([]models.Redemption, error)
	Fulfill(ctx context.Context, redemptionID uuid.UUID) (models.Redemption, error)
}

// Processor moves pending redemptions to fulfilled in the background
type Processor struct {
	consumer *Consumer
	producer *Producer
}

func New(logger logger.Logger, storeService storeService) *Processor {
	return &Processor{
		consumer: &Consumer{
			countWorkers: defaultCountWorkers,
			storeService: storeService,
			logger:       logger,
		},
		producer: &Producer{
			interval:     defaultProduceInterval,
			batchSize:    defaultBatchSize,
			storeService: storeService,
			logger:       logger,
		},
	}
}

func (p *Processor) Process(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})

	redemptionChan := make(chan models.Redemption)

	// Start producer to poll pending redemptions
	producerStopped := p.producer.Produce(ctx, redemptionChan)

	// Start consumer workers to fulfill them
	consumerStopped := p.consumer.Consume(ctx, redemptionChan)

	go func() {
		defer close(idleStopped)
		defer close(redemptionChan)
		<-producerStopped
		<-consumerStopped
		p.consumer.logger.Debug("RedemptionProcessor stopped")
	}()

	return idleStopped
}
