package bookings

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/securesubmit-bookings/internal/domain"
	"github.com/robertarktes/securesubmit-bookings/internal/observability"
)

const reapBatch = 100

// ReapStale deletes bookings that were left waiting for payment past the ttl
// without any recorded charge, which happens when a request dies between save
// and charge. It returns how many bookings were removed.
func (s *Service) ReapStale(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := s.now().UTC().Add(-ttl)
	ids, err := s.repo.StaleAwaitingPayment(ctx, cutoff, reapBatch)
	if err != nil {
		return 0, errors.Wrap(err, "list stale bookings")
	}

	reaped := 0
	var errs error
	for _, id := range ids {
		if err := s.repo.DeleteTickets(ctx, id); err != nil {
			errs = errors.CombineErrors(errs, err)
			continue
		}
		if err := s.repo.DeleteBooking(ctx, id); err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				errs = errors.CombineErrors(errs, err)
			}
			continue
		}
		s.logger.WithField("booking_id", id).Info("reaped unpaid booking")
		reaped++
	}
	observability.ReapedBookings.Add(float64(reaped))
	return reaped, errs
}
