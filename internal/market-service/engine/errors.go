package engine

import "errors"

// Erros de validação do ledger. Todos são retornados de forma síncrona ao
// chamador; nenhum é engolido e nenhuma operação faz retry por conta própria.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("market not found")
	ErrMarketClosed      = errors.New("market closed for betting")
	ErrStakeOutOfBounds  = errors.New("stake out of bounds")
	ErrInvalidStake      = errors.New("stake mints zero shares")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotYetClosed      = errors.New("market not yet closed")
	ErrResolutionExpired = errors.New("resolution window expired")
	ErrAlreadyFinalized  = errors.New("market already finalized")
	ErrNothingToClaim    = errors.New("nothing to claim")
	ErrAlreadyClaimed    = errors.New("already claimed")
	ErrTransferFailed    = errors.New("funds transfer failed")
	ErrPaused            = errors.New("platform paused")
)
