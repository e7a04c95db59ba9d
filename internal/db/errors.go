package db

import (
	"errors"
	"regexp"
	"strings"
)

// Sentinel repository errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidState  = errors.New("invalid state")

	// ErrSystemicDatabase wraps a database error classified as systemic:
	// the caller must abort the whole run rather than retry or continue.
	ErrSystemicDatabase = errors.New("systemic database error")
)

// ErrorKind classifies a database error orthogonally to the
// remote-service retry.Kind.
type ErrorKind string

const (
	// ErrorKindPermanent errors are never retried: constraint
	// violations, missing relations/columns, invalid UUIDs.
	ErrorKindPermanent ErrorKind = "permanent"
	// ErrorKindSystemic errors abort the whole run: auth/permission
	// failures, missing role/database.
	ErrorKindSystemic ErrorKind = "systemic"
	// ErrorKindTransient errors are retried up to 3 times: timeouts,
	// deadlocks, connection resets.
	ErrorKindTransient ErrorKind = "transient"
)

var permanentIndicators = []string{
	"invalid uuid",
	"constraint violation",
	"foreign key constraint",
	"check constraint",
	"not null violation",
	"duplicate key",
	"relation does not exist",
	"column does not exist",
}

var systemicIndicators = []string{
	"authentication failed",
	"permission denied",
	"role does not exist",
	"database does not exist",
	"ssl required",
	"password authentication failed",
}

// quotedNameRe matches a quoted object name such as the "x" in
// `role "x" does not exist`.
var quotedNameRe = regexp.MustCompile(`"[^"]*"\s*`)

// ClassifyError implements the database error classification rules:
// string-matching against the error message, defaulting to transient.
// Indicators are matched against the message both as-is and with quoted
// object names removed, so `role "x" does not exist` matches "role does
// not exist".
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return ErrorKindTransient
	}
	msg := strings.ToLower(err.Error())
	bare := quotedNameRe.ReplaceAllString(msg, "")
	for _, indicator := range permanentIndicators {
		if strings.Contains(msg, indicator) || strings.Contains(bare, indicator) {
			return ErrorKindPermanent
		}
	}
	for _, indicator := range systemicIndicators {
		if strings.Contains(msg, indicator) || strings.Contains(bare, indicator) {
			return ErrorKindSystemic
		}
	}
	return ErrorKindTransient
}
