package domain

import "errors"

// Sentinel errors shared across services. Repositories translate driver
// errors (e.g. sql.ErrNoRows) into these before they leave the storage layer.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)

// Event-creation gate errors. The delivery layer maps each to a distinct
// error code so callers can tell "ask the admin for quota" apart from
// "wait or request more".
var (
	ErrNoTierSelected       = errors.New("no tier selected")
	ErrTierInvalid          = errors.New("tier not found or inactive")
	ErrTierPermissionDenied = errors.New("no permission for this tier")
	ErrTierQuotaExhausted   = errors.New("tier quota exhausted")
)

// ErrEventFull is returned when a single guest is added to an event whose
// tier capacity is already reached. Bulk imports never return it; they
// truncate instead.
var ErrEventFull = errors.New("event is at guest capacity")

// ErrAccessCodeTaken is returned by guest repositories when an insert
// hits the global access-code unique constraint. Services retry with a
// fresh code.
var ErrAccessCodeTaken = errors.New("access code already in use")
