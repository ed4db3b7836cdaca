package service

import "errors"

// Business errors returned by the service layer. Handlers map these onto
// transport status codes; anything else is treated as an internal error.
var (
	// ErrValidation covers malformed input: empty room IDs or display
	// names, cursor offsets outside the code buffer.
	ErrValidation = errors.New("validation failed")

	// ErrUnsupportedLanguage is returned when a language is not in the
	// fixed supported set. The room's prior language is left unchanged.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrNoActiveRoom is returned by state-mutating calls from a
	// connection that has no current room. Leave and disconnect are
	// deliberately not in this category; they are idempotent no-ops.
	ErrNoActiveRoom = errors.New("connection has no active room")

	// ErrRoomNotFound is returned by the query surface when a room is
	// neither live nor present as a durable snapshot.
	ErrRoomNotFound = errors.New("room not found")

	// ErrInternalServer masks unexpected infrastructure failures.
	ErrInternalServer = errors.New("internal server error")
)
