package redemptionprocessor

import (
	"context"
	"errors"
	"sync"

	"github.com/qgfurioso/coinledger/internal/apperrors"
	"github.com/qgfurioso/coinledger/internal/logger"
	"github.com/qgfurioso/coinledger/internal/models"
)

type Consumer struct {
	countWorkers int

	storeService storeService
	logger       logger.Logger
}

func (c *Consumer) Consume(ctx context.Context, in <-chan models.Redemption) <-chan struct{} {
	idleStopped := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < c.countWorkers; i++ {
		wg.Add(1)
		go func() {
			c.worker(ctx, in)
			wg.Done()
		}()
	}

	go func() {
		defer close(idleStopped)
		wg.Wait()
		c.logger.Debug("Consumer stopped")
	}()

	return idleStopped
}

func (c *Consumer) worker(ctx context.Context, in <-chan models.Redemption) {
	for {
		select {
		case <-ctx.Done():
			return

		case redemption, ok := <-in:
			if !ok {
				c.logger.Debug("Consumer worker stopped, input channel closed")
				return
			}

			_, err := c.storeService.Fulfill(ctx, redemption.ID)

			switch {
			case err == nil:
				c.logger.Info("Redemption fulfilled", "redemption_id", redemption.ID)

			case errors.Is(err, apperrors.ErrRedemptionNotFound):
				// Another worker won the same redemption between ticks
				c.logger.Debug("Redemption already handled", "redemption_id", redemption.ID)

			default:
				c.logger.Error("Failed to fulfill redemption", "error", err, "redemption_id", redemption.ID)
			}
		}
	}
}
