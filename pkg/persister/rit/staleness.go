package rit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const stalenessKeyPrefix = "rit:last-updated"

// Markers self-clear once a trip stops producing messages.
const stalenessExpiry = 6 * time.Hour

// StalenessGuard remembers the timestamp of the last message processed per
// (train number, running-on date) and flags older redeliveries. It is best
// effort only: two racing writers may both pass; the reconciliation lock
// provides the hard exclusion guarantee.
type StalenessGuard struct {
	markers *cache.Cache[string]
}

func NewStalenessGuard(client redis.UniversalClient) *StalenessGuard {
	redisStore := redisstore.NewRedis(client, store.WithExpiration(stalenessExpiry))

	return &StalenessGuard{markers: cache.New[string](redisStore)}
}

// ShouldProcess reports whether the message is newer than the last one
// processed for this trip, recording its timestamp when it is. Marker
// store failures never block processing.
func (g *StalenessGuard) ShouldProcess(ctx context.Context, trainNumber string, runningOn string, messageTimestamp time.Time) bool {
	key := fmt.Sprintf("%s:%s:%s", stalenessKeyPrefix, trainNumber, runningOn)

	marker, err := g.markers.Get(ctx, key)
	if err == nil && marker != "" {
		latest, parseErr := strconv.ParseInt(marker, 10, 64)
		if parseErr == nil && latest >= messageTimestamp.UnixMilli() {
			return false
		}
	}

	err = g.markers.Set(ctx, key, strconv.FormatInt(messageTimestamp.UnixMilli(), 10))
	if err != nil {
		log.Warn().Err(err).Str("train_number", trainNumber).Str("running_on", runningOn).
			Msg("Failed to record staleness marker")
	}

	return true
}
