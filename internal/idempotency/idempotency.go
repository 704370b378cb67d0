package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/cockroachdb/errors"
	redisadapter "github.com/robertarktes/securesubmit-bookings/internal/adapters/redis"
	"github.com/robertarktes/securesubmit-bookings/internal/domain"
)

const lockTTL = time.Minute

var (
	// ErrInFlight means another request with the same key is still running.
	ErrInFlight = errors.Mark(errors.New("request with this idempotency key is in progress"), domain.ErrConflict)
	// ErrKeyReused means the key was already used for a different request body.
	ErrKeyReused = errors.Mark(errors.New("idempotency key reused with a different request"), domain.ErrConflict)
)

type Store interface {
	Get(ctx context.Context, key string) (*redisadapter.IdempResponse, error)
	Set(ctx context.Context, key string, resp redisadapter.IdempResponse, ttl time.Duration) error
	Lock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

type Idempotency struct {
	store Store
	ttl   time.Duration
}

func NewIdempotency(store Store, ttl time.Duration) *Idempotency {
	return &Idempotency{store: store, ttl: ttl}
}

type Response struct {
	Status int
	Result []byte
}

func Fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Begin returns the stored response for a replayed request. A nil response
// with a nil error means the caller owns the key until Complete or Abort.
func (i *Idempotency) Begin(ctx context.Context, key, fingerprint string) (*Response, error) {
	rec, err := i.store.Get(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "read idempotency record")
	}
	if rec != nil {
		return replay(rec, fingerprint)
	}

	locked, err := i.store.Lock(ctx, key, lockTTL)
	if err != nil {
		return nil, errors.Wrap(err, "lock idempotency key")
	}
	if !locked {
		return nil, ErrInFlight
	}

	// The previous owner may have completed between the read and the lock.
	rec, err = i.store.Get(ctx, key)
	if err == nil && rec == nil {
		return nil, nil
	}
	if uerr := i.store.Unlock(ctx, key); uerr != nil {
		err = errors.CombineErrors(err, errors.Wrap(uerr, "unlock idempotency key"))
	}
	if rec == nil {
		return nil, errors.Wrap(err, "read idempotency record")
	}
	return replay(rec, fingerprint)
}

func replay(rec *redisadapter.IdempResponse, fingerprint string) (*Response, error) {
	if rec.Fingerprint != fingerprint {
		return nil, ErrKeyReused
	}
	return &Response{Status: rec.Status, Result: rec.Result}, nil
}

func (i *Idempotency) Complete(ctx context.Context, key, fingerprint string, resp Response) error {
	err := i.store.Set(ctx, key, redisadapter.IdempResponse{
		Status:      resp.Status,
		Result:      resp.Result,
		Fingerprint: fingerprint,
	}, i.ttl)
	if err != nil {
		return errors.Wrap(err, "store idempotency record")
	}
	return i.store.Unlock(ctx, key)
}

func (i *Idempotency) Abort(ctx context.Context, key string) error {
	return i.store.Unlock(ctx, key)
}
