package protocol

import "encoding/json"

const Version = "0.1"

// Message types.
const (
	TypeHello      = "HELLO"
	TypeWelcome    = "WELCOME"
	TypeEdit       = "EDIT"
	TypeEditResult = "EDIT_RESULT"
	TypeQuery      = "QUERY"
	TypeLight      = "LIGHT"
	TypeChunk      = "CHUNK"
	TypeChunkLight = "CHUNK_LIGHT"
	TypeLoad       = "LOAD"
	TypeLoaded     = "LOADED"
	TypeUnload     = "UNLOAD"
	TypeUnloaded   = "UNLOADED"
	TypeError      = "ERROR"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
	ReqID           string `json:"req_id,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
