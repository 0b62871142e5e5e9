package service

import (
	"errors"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/repo"
)

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrDataIntegrity      = errors.New("data integrity violation")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrNotFound           = errors.New("not found")
	ErrMailUnavailable    = errors.New("mail unavailable")
)

const (
	KindInvalidArgument    = "invalid_argument"
	KindDataIntegrity      = "data_integrity_violation"
	KindStorageUnavailable = "storage_unavailable"
	KindNotFound           = "not_found"
	KindMailUnavailable    = "mail_unavailable"
	KindInternal           = "internal"
)

// Kind maps an error returned by this package to its stable kind string.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrDataIntegrity):
		return KindDataIntegrity
	case errors.Is(err, ErrStorageUnavailable):
		return KindStorageUnavailable
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrMailUnavailable):
		return KindMailUnavailable
	default:
		return KindInternal
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// classify wraps a storage or lock error. A line that would leave its
// allowed range is the caller's error; deadlines, lock timeouts and other
// driver errors count as transient.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrDuplicateLines):
		return fmt.Errorf("%s: %w: %w", op, ErrDataIntegrity, err)
	case errors.Is(err, repo.ErrQuantityOutOfRange):
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidArgument, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
	}
}
