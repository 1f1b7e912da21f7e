package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/danielss-dev/dbfordevs/internal/errs"
)

// mapError translates go-sql-driver/mysql errors into *errs.Error. The
// native diagnostic always survives in the cause chain.
func mapError(msg string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.KindTimeout, msg, err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.KindNotFound, msg, err)
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return errs.Wrap(
			classifyErrorNumber(mysqlErr.Number),
			fmt.Sprintf("%s: %s", msg, mysqlErr.Message),
			err,
		)
	}

	// Anything below the protocol (DNS, refused connection, handshake).
	return errs.Wrap(errs.KindConnectionFailed, msg, err)
}

// classifyErrorNumber maps MySQL server error numbers to error kinds.
func classifyErrorNumber(code uint16) errs.Kind {
	switch code {
	case 1044, // access denied for database
		1045, // access denied for user
		1046, // no database selected
		1049, // unknown database
		1040, // too many connections
		1203: // too many user connections
		return errs.KindConnectionFailed
	default:
		return errs.KindQueryFailed
	}
}
