package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// World state.
	ErrWorldBusy      = "E_WORLD_BUSY"
	ErrChunkNotLoaded = "E_CHUNK_NOT_LOADED"

	// Request layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrRateLimit     = "E_RATE_LIMIT"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrWorldBusy:       {},
	ErrChunkNotLoaded:  {},
	ErrBadRequest:      {},
	ErrInvalidTarget:   {},
	ErrRateLimit:       {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
