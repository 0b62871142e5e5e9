package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var ErrQuantityOutOfRange = errors.New("cart line quantity out of range")

const (
	pgNumericValueOutOfRange = "22003"
	pgCheckViolation         = "23514"

	sqliteConstraint = 19
)

// translateError marks driver errors that no retry can fix.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgNumericValueOutOfRange, pgCheckViolation:
			return fmt.Errorf("%w: %w", ErrQuantityOutOfRange, err)
		}
		return err
	}

	var coded interface{ Code() int }
	if errors.As(err, &coded) && coded.Code()&0xff == sqliteConstraint &&
		strings.Contains(err.Error(), "CHECK constraint failed") {
		return fmt.Errorf("%w: %w", ErrQuantityOutOfRange, err)
	}
	return err
}
