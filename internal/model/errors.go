package model

import "errors"

// ErrorKind classifies a rejected action
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindAuthorization ErrorKind = "authorization"
	KindPrecondition  ErrorKind = "precondition"
	KindIdempotency   ErrorKind = "idempotency"
	KindNotFound      ErrorKind = "not_found"
	KindInternal      ErrorKind = "internal"
)

// Error is a classified, user-facing error. Values below are compared by identity.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Common errors used across the application
var (
	// Validation errors
	ErrInvalidName       = newError(KindValidation, "INVALID_NAME", "Name must be 1-20 letters or digits")
	ErrInvalidEntry      = newError(KindValidation, "INVALID_ENTRY", "Entry must contain only letters and digits")
	ErrInvalidRanking    = newError(KindValidation, "INVALID_RANKING", "Ranking must list distinct entries from this round")
	ErrInvalidGuess      = newError(KindValidation, "INVALID_GUESS", "Guess must order exactly the ranked entries")
	ErrInvalidRole       = newError(KindValidation, "INVALID_ROLE", "Role must be player or spectator")
	ErrInvalidRoundLimit = newError(KindValidation, "INVALID_ROUND_LIMIT", "Round limit must be between 1 and 20")
	ErrInvalidMessage    = newError(KindValidation, "INVALID_MESSAGE", "Message could not be understood")
	ErrJudgeNotInRoom    = newError(KindValidation, "JUDGE_NOT_IN_ROOM", "Judge must be a player in this room")

	// Authorization errors
	ErrNotInRoom      = newError(KindAuthorization, "NOT_IN_ROOM", "You have not joined this room")
	ErrSpectator      = newError(KindAuthorization, "SPECTATOR", "Spectators cannot do that")
	ErrNotJudge       = newError(KindAuthorization, "NOT_JUDGE", "Only the judge can submit a ranking")
	ErrNotGuesser     = newError(KindAuthorization, "NOT_GUESSER", "You are not guessing this round")
	ErrRateLimited    = newError(KindAuthorization, "RATE_LIMITED", "Slow down")
	ErrConnBoundOther = newError(KindAuthorization, "CONN_IN_USE", "This connection is already playing as someone else")

	// Precondition errors
	ErrWrongPhase          = newError(KindPrecondition, "WRONG_PHASE", "That action is not allowed right now")
	ErrGameInProgress      = newError(KindPrecondition, "GAME_IN_PROGRESS", "Game is in progress")
	ErrInsufficientPlayers = newError(KindPrecondition, "INSUFFICIENT_PLAYERS", "Need at least 2 players to start")
	ErrInsufficientEntries = newError(KindPrecondition, "INSUFFICIENT_ENTRIES", "Need at least 5 unique entries to start ranking")
	ErrRankingNotSubmitted = newError(KindPrecondition, "RANKING_NOT_SUBMITTED", "The judge has not ranked yet")
	ErrRoomFull            = newError(KindPrecondition, "ROOM_FULL", "Room is full")
	ErrNameTaken           = newError(KindPrecondition, "NAME_TAKEN", "Name already taken in this room")
	ErrEntryLimit          = newError(KindPrecondition, "ENTRY_LIMIT", "You have submitted the maximum number of entries")
	ErrRegistryClosed      = newError(KindPrecondition, "REGISTRY_CLOSED", "Server is shutting down")

	// Idempotency errors
	ErrAlreadyRanked  = newError(KindIdempotency, "ALREADY_RANKED", "You have already submitted a ranking")
	ErrAlreadyGuessed = newError(KindIdempotency, "ALREADY_GUESSED", "You have already submitted a guess")

	// Not-found errors
	ErrRoomNotFound   = newError(KindNotFound, "ROOM_NOT_FOUND", "Room not found")
	ErrPlayerNotFound = newError(KindNotFound, "PLAYER_NOT_FOUND", "Player not found")
)

// KindOf classifies err, falling back to KindInternal for unclassified errors
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// AsError extracts the classified error from err's chain
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
