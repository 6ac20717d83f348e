package rit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/treinwerk/treinwerk/pkg/infoplus"
)

// Processor parses raw trip-composition messages and hands them to the
// reconciler.
type Processor struct {
	reconciler *Reconciler
}

func NewProcessor(db *gorm.DB, redisClient redis.UniversalClient) *Processor {
	return &Processor{reconciler: NewReconciler(db, redisClient)}
}

func (p *Processor) Process(ctx context.Context, raw []byte) error {
	message, err := infoplus.ParseRitMessage(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	summary, err := p.reconciler.Reconcile(ctx, message)
	if err != nil {
		return err
	}

	log.Info().
		Str("train_number", message.RitInfo.TrainNumber).
		Str("running_on", message.RitInfo.TrainDate).
		Int("inserted", summary.Inserted).
		Int("updated", summary.Updated).
		Int("skipped", summary.Skipped).
		Msg("Reconciled trip composition")

	return nil
}
