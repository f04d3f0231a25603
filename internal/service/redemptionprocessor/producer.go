package redemptionprocessor

import (
	"context"
	"time"

	"github.com/qgfurioso/coinledger/internal/logger"
	"github.com/qgfurioso/coinledger/internal/models"
)

type Producer struct {
	interval     time.Duration
	batchSize    int
	logger       logger.Logger
	storeService storeService
}

func (p *Producer) Produce(ctx context.Context, out chan<- models.Redemption) <-chan struct{} {
	idleStopped := make(chan struct{})
	p.logger.Debug("Starting producer", "interval", p.interval, "batch_size", p.batchSize)

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				p.logger.Debug("Producer stopped by context")
				return

			case <-ticker.C:
				p.logger.Debug("Producer tick: fetching pending redemptions")

				redemptions, err := p.storeService.ListPending(ctx, p.batchSize)
				if err != nil {
					p.logger.Error("Failed to list pending redemptions", "error", err)
					continue
				}

				// Send redemptions to the output channel
				for _, redemption := range redemptions {
					select {
					case <-ctx.Done():
						p.logger.Debug("Producer stopped by context while sending redemptions")
						return
					case out <- redemption:
						p.logger.Debug("Redemption sent to channel", "redemptionID", redemption.ID)
					}
				}
			}
		}
	}()

	return idleStopped
}
