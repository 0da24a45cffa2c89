package services

import (
	"errors"
	"time"

	"souq/internal/apperr"
	"souq/internal/repositories"
)

// spotModeActive reports whether a Spot Mode window is active at the given
// instant, reading through the supplied store so transactional callers see
// their own snapshot.
func spotModeActive(st repositories.Store, now time.Time) (bool, error) {
	active, err := st.SpotModes().GetActive()
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return active.ActiveAt(now), nil
}

// asTransaction passes kinded domain errors through untouched and wraps
// everything else as a TransactionFailure with a caller-safe message.
func asTransaction(message string, err error) error {
	if err == nil {
		return nil
	}
	var kinded *apperr.Error
	if errors.As(err, &kinded) {
		return err
	}
	return apperr.Transaction(message, err)
}
