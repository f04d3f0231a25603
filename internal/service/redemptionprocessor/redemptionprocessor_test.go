package redemptionprocessor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/qgfurioso/coinledger/internal/apperrors"
	"github.com/qgfurioso/coinledger/internal/logger"
	"github.com/qgfurioso/coinledger/internal/models"
)

// In memory store service: enough to drive the processor without a database
type fakeStoreService struct {
	mu        sync.Mutex
	pending   map[uuid.UUID]models.Redemption
	fulfilled []uuid.UUID
}

func newFakeStoreService(redemptions ...models.Redemption) *fakeStoreService {
	pending := make(map[uuid.UUID]models.Redemption, len(redemptions))
	for _, r := range redemptions {
		pending[r.ID] = r
	}
	return &fakeStoreService{pending: pending}
}

func (f *fakeStoreService) ListPending(ctx context.Context, limit int) ([]models.Redemption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	redemptions := make([]models.Redemption, 0, len(f.pending))
	for _, r := range f.pending {
		if limit > 0 && len(redemptions) >= limit {
			break
		}
		redemptions = append(redemptions, r)
	}
	return redemptions, nil
}

func (f *fakeStoreService) Fulfill(ctx context.Context, redemptionID uuid.UUID) (models.Redemption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.pending[redemptionID]
	if !ok {
		return models.Redemption{}, apperrors.ErrRedemptionNotFound
	}

	delete(f.pending, redemptionID)
	r.Status = models.RedemptionStatusFulfilled
	f.fulfilled = append(f.fulfilled, r.ID)
	return r, nil
}

func (f *fakeStoreService) fulfilledCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fulfilled)
}

func newTestProcessor(store storeService, interval time.Duration) *Processor {
	log := logger.NewNoOpLogger()
	return &Processor{
		consumer: &Consumer{
			countWorkers: 2,
			storeService: store,
			logger:       log,
		},
		producer: &Producer{
			interval:     interval,
			batchSize:    10,
			storeService: store,
			logger:       log,
		},
	}
}

func Test_Processor(t *testing.T) {
	t.Parallel()

	t.Run("fulfills pending redemptions", func(t *testing.T) {
		store := newFakeStoreService(
			models.Redemption{ID: uuid.New(), Status: models.RedemptionStatusPending},
			models.Redemption{ID: uuid.New(), Status: models.RedemptionStatusPending},
			models.Redemption{ID: uuid.New(), Status: models.RedemptionStatusPending},
		)

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		stopped := newTestProcessor(store, 10*time.Millisecond).Process(ctx)

		require.Eventually(t, func() bool {
			return store.fulfilledCount() == 3
		}, 5*time.Second, 10*time.Millisecond, "all pending redemptions should be fulfilled")

		cancel()

		select {
		case <-stopped:
		case <-time.After(5 * time.Second):
			t.Fatal("processor did not stop after context cancel")
		}
	})

	t.Run("stops cleanly with nothing to do", func(t *testing.T) {
		store := newFakeStoreService()

		ctx, cancel := context.WithCancel(t.Context())
		stopped := newTestProcessor(store, 10*time.Millisecond).Process(ctx)

		// Let it tick at least once
		time.Sleep(50 * time.Millisecond)
		cancel()

		select {
		case <-stopped:
		case <-time.After(5 * time.Second):
			t.Fatal("processor did not stop after context cancel")
		}

		require.Zero(t, store.fulfilledCount())
	})
}
