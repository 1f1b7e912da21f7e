package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/danielss-dev/dbfordevs/internal/errs"
)

// mapError translates pgx / pgconn native errors into *errs.Error. The
// native diagnostic always survives in the cause chain.
func mapError(msg string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.KindTimeout, msg, err)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.Wrap(errs.KindNotFound, msg, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		kind := errs.KindQueryFailed
		// SQLSTATE class 08 (connection exception) and 28 (invalid
		// authorization) are connectivity failures.
		if cls := sqlstateClass(pgErr.Code); cls == "08" || cls == "28" {
			kind = errs.KindConnectionFailed
		}
		return errs.Wrap(kind, msg+": "+pgErr.Message, err)
	}

	// Network-level failures (DNS, refused connection, TLS) surface as
	// plain errors from pgconn.
	if strings.Contains(err.Error(), "failed to connect") {
		return errs.Wrap(errs.KindConnectionFailed, msg, err)
	}
	return errs.Wrap(errs.KindQueryFailed, msg, err)
}

func sqlstateClass(code string) string {
	if len(code) < 2 {
		return ""
	}
	return code[:2]
}
