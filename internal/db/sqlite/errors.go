package sqlite

import (
	"context"
	"database/sql"
	"errors"

	sqlite3 "modernc.org/sqlite"

	"github.com/danielss-dev/dbfordevs/internal/errs"
)

// Primary SQLite result codes that indicate the database itself cannot be
// used, as opposed to a bad statement.
const (
	codePerm     = 3  // SQLITE_PERM
	codeReadOnly = 8  // SQLITE_READONLY
	codeCantOpen = 14 // SQLITE_CANTOPEN
	codeAuth     = 23 // SQLITE_AUTH
	codeNotADB   = 26 // SQLITE_NOTADB
)

// mapError translates modernc.org/sqlite errors into *errs.Error. The
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

	var liteErr *sqlite3.Error
	if errors.As(err, &liteErr) {
		kind := errs.KindQueryFailed
		switch liteErr.Code() & 0xff {
		case codePerm, codeReadOnly, codeCantOpen, codeAuth, codeNotADB:
			kind = errs.KindConnectionFailed
		}
		return errs.Wrap(kind, msg, err)
	}

	return errs.Wrap(errs.KindQueryFailed, msg, err)
}
