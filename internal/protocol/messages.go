package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
	MaxQueue        int    `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	WorldID         string      `json:"world_id"`
	Tick            uint64      `json:"tick"`
	WorldParams     WorldParams `json:"world_params"`
	BlockPalette    DigestRef   `json:"block_palette"`
	Palette         []string    `json:"palette"`
}

type WorldParams struct {
	TickRateHz int    `json:"tick_rate_hz"`
	ChunkSize  [3]int `json:"chunk_size"`
	Height     int    `json:"height"`
	MaxLight   int    `json:"max_light"`
	Seed       int64  `json:"seed"`
}

type DigestRef struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// EDIT (client -> server) replaces one block by palette name.
type EditMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	Pos             [3]int `json:"pos"`
	Block           string `json:"block"`
}

type EditResultMsg struct {
	Type  string `json:"type"`
	ReqID string `json:"req_id,omitempty"`
	Tick  uint64 `json:"tick"`
	Prev  string `json:"prev"`
}

// QUERY (client -> server) samples both light channels at one voxel.
type QueryMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	Pos             [3]int `json:"pos"`
}

type LightMsg struct {
	Type       string `json:"type"`
	ReqID      string `json:"req_id,omitempty"`
	Tick       uint64 `json:"tick"`
	Pos        [3]int `json:"pos"`
	Block      string `json:"block"`
	Sky        uint8  `json:"sky"`
	BlockLight uint8  `json:"block_light"`
	Loaded     bool   `json:"loaded"`
}

// CHUNK (client -> server) requests a full chunk dump.
type ChunkMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	CX              int    `json:"cx"`
	CZ              int    `json:"cz"`
}

// CHUNK_LIGHT carries RLE-encoded arrays in (y*16+z)*16+x order.
type ChunkLightMsg struct {
	Type      string `json:"type"`
	ReqID     string `json:"req_id,omitempty"`
	Tick      uint64 `json:"tick"`
	CX        int    `json:"cx"`
	CZ        int    `json:"cz"`
	Height    int    `json:"height"`
	Loaded    bool   `json:"loaded"`
	BlocksRLE string `json:"blocks_rle,omitempty"`
	SkyRLE    string `json:"sky_rle,omitempty"`
	BlockRLE  string `json:"block_rle,omitempty"`
}

// LOAD (client -> server) makes chunks around a center resident.
type LoadMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	CX              int    `json:"cx"`
	CZ              int    `json:"cz"`
	Radius          int    `json:"radius"`
}

type LoadedMsg struct {
	Type   string   `json:"type"`
	ReqID  string   `json:"req_id,omitempty"`
	Tick   uint64   `json:"tick"`
	Chunks [][2]int `json:"chunks"`
}

// UNLOAD (client -> server) evicts chunks around a center.
type UnloadMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	CX              int    `json:"cx"`
	CZ              int    `json:"cz"`
	Radius          int    `json:"radius"`
}

type UnloadedMsg struct {
	Type   string   `json:"type"`
	ReqID  string   `json:"req_id,omitempty"`
	Tick   uint64   `json:"tick"`
	Chunks [][2]int `json:"chunks"`
}

type ErrorMsg struct {
	Type    string `json:"type"`
	ReqID   string `json:"req_id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewError(reqID, code, msg string) ErrorMsg {
	return ErrorMsg{Type: TypeError, ReqID: reqID, Code: code, Message: msg}
}
