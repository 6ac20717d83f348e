package rit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "rit:lock"

// Safety net against crashed holders; a healthy reconciliation releases
// the lock long before this.
const lockExpiry = 5 * time.Minute

var (
	// ErrLockContended means another worker is mid-reconciliation for this
	// trip. Transient: the message should be redelivered shortly.
	ErrLockContended = errors.New("reconciliation already in progress for this trip")

	// ErrLockNotHeld means release found no lock to release.
	ErrLockNotHeld = errors.New("reconciliation lock is not held")

	// ErrLockStolen means the lock expired mid-reconciliation and another
	// worker re-acquired it; releasing now would free someone else's lock.
	ErrLockStolen = errors.New("reconciliation lock was re-acquired by another worker")
)

// Lock is the distributed mutex serialising reconciliation per (train
// number, running-on date). The stored value is a token unique to this
// acquisition, so release can detect an expired-and-stolen lock.
type Lock struct {
	client redis.UniversalClient
	key    string
	token  string
}

func NewLock(client redis.UniversalClient, trainNumber string, runningOn string) *Lock {
	return &Lock{
		client: client,
		key:    fmt.Sprintf("%s:%s:%s", lockKeyPrefix, trainNumber, runningOn),
		token:  uuid.NewString(),
	}
}

// Acquire takes the lock without blocking or retrying. Contention is
// reported immediately; the stream's redelivery handles trying again.
func (l *Lock) Acquire(ctx context.Context) error {
	current, err := l.client.Get(ctx, l.key).Result()
	if err == nil && current == l.token {
		return ErrLockContended
	}

	acquired, err := l.client.SetNX(ctx, l.key, l.token, lockExpiry).Result()
	if err != nil {
		return err
	}
	if !acquired {
		return ErrLockContended
	}

	return nil
}

// Release deletes the lock after verifying the stored token is still ours.
// The read-compare-delete sequence is not atomic against the store; the
// short expiry keeps the window narrow.
func (l *Lock) Release(ctx context.Context) error {
	current, err := l.client.Get(ctx, l.key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrLockNotHeld
	}
	if err != nil {
		return err
	}

	if current != l.token {
		return ErrLockStolen
	}

	return l.client.Del(ctx, l.key).Err()
}
