package unitofwork

import (
	"context"

	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/erp/stockengine/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Run executes fn inside scope and publishes whatever fn recorded once the
// transaction has committed. A failed unit of work publishes nothing.
func Run(
	ctx context.Context,
	scope TransactionScope,
	publisher shared.EventPublisher,
	log *zap.Logger,
	fn func(repos Repositories, rec *EventRecorder) error,
) error {
	rec := NewEventRecorder()
	err := scope.Execute(ctx, func(repos Repositories) error {
		rec.Reset()
		return fn(repos, rec)
	})
	if err != nil {
		return err
	}
	rec.Publish(ctx, publisher, logger.Scoped(ctx, log))
	return nil
}
