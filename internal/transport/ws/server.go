package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"voxlight.ai/internal/protocol"
	"voxlight.ai/internal/sim/encoding"
	"voxlight.ai/internal/sim/light"
	"voxlight.ai/internal/sim/world"
)

const requestTimeout = 5 * time.Second

type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	s := &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

type session struct {
	id  string
	out chan []byte
	ctx context.Context
}

// send drops the message if the session is gone.
func (ss *session) send(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case ss.out <- b:
	case <-ss.ctx.Done():
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, out := s.handshake(conn)
		if sessionID == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		ss := &session{id: sessionID, out: out, ctx: ctx}

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Edits block until the tick that applies them, so each request
		// gets its own goroutine and replies may arrive out of order.
		var inflight sync.WaitGroup
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				ss.send(protocol.NewError("", protocol.ErrProtoBadRequest, "malformed json"))
				continue
			}
			if base.ProtocolVersion != protocol.Version {
				ss.send(protocol.NewError(base.ReqID, protocol.ErrProtoBadRequest, "bad protocol_version"))
				continue
			}
			if err := protocol.ValidateInbound(base.Type, msg); err != nil {
				ss.send(protocol.NewError(base.ReqID, protocol.ErrProtoBadRequest, err.Error()))
				continue
			}
			inflight.Add(1)
			go func(typ string, msg []byte) {
				defer inflight.Done()
				s.dispatch(ss, typ, msg)
			}(base.Type, msg)
		}
		inflight.Wait()
		if s.log != nil {
			s.log.Printf("session %s closed", sessionID)
		}
	}
}

func (s *Server) dispatch(ss *session, typ string, msg []byte) {
	ctx, cancel := context.WithTimeout(ss.ctx, requestTimeout)
	defer cancel()

	switch typ {
	case protocol.TypeEdit:
		var m protocol.EditMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			ss.send(protocol.NewError(m.ReqID, protocol.ErrBadRequest, err.Error()))
			return
		}
		id, ok := s.world.Blocks().ID(m.Block)
		if !ok {
			ss.send(protocol.NewError(m.ReqID, protocol.ErrInvalidTarget, "unknown block "+m.Block))
			return
		}
		res, err := s.world.SubmitEdit(ctx, ss.id, vec(m.Pos), id)
		if err != nil {
			ss.send(protocol.NewError(m.ReqID, errorCode(err), err.Error()))
			return
		}
		ss.send(protocol.EditResultMsg{
			Type:  protocol.TypeEditResult,
			ReqID: m.ReqID,
			Tick:  res.Tick,
			Prev:  s.world.Blocks().Name(res.Prev),
		})

	case protocol.TypeQuery:
		var m protocol.QueryMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			ss.send(protocol.NewError(m.ReqID, protocol.ErrBadRequest, err.Error()))
			return
		}
		smp, err := s.world.QueryLight(ctx, vec(m.Pos))
		if err != nil {
			ss.send(protocol.NewError(m.ReqID, errorCode(err), err.Error()))
			return
		}
		ss.send(protocol.LightMsg{
			Type:       protocol.TypeLight,
			ReqID:      m.ReqID,
			Tick:       smp.Tick,
			Pos:        m.Pos,
			Block:      s.world.Blocks().Name(smp.Block),
			Sky:        smp.Sky,
			BlockLight: smp.Light,
			Loaded:     smp.Loaded,
		})

	case protocol.TypeChunk:
		var m protocol.ChunkMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			ss.send(protocol.NewError(m.ReqID, protocol.ErrBadRequest, err.Error()))
			return
		}
		c, err := s.world.QueryChunk(ctx, world.ChunkKey{CX: m.CX, CZ: m.CZ})
		if err != nil {
			ss.send(protocol.NewError(m.ReqID, errorCode(err), err.Error()))
			return
		}
		resp := protocol.ChunkLightMsg{
			Type:   protocol.TypeChunkLight,
			ReqID:  m.ReqID,
			Tick:   c.Tick,
			CX:     m.CX,
			CZ:     m.CZ,
			Height: c.Height,
			Loaded: c.Loaded,
		}
		if c.Loaded {
			n := len(c.Blocks)
			resp.BlocksRLE = encoding.EncodeRLE(c.Blocks)
			resp.SkyRLE = encoding.EncodeLightRLE(c.Sky, n)
			resp.BlockRLE = encoding.EncodeLightRLE(c.Light, n)
		}
		ss.send(resp)

	case protocol.TypeLoad:
		var m protocol.LoadMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			ss.send(protocol.NewError(m.ReqID, protocol.ErrBadRequest, err.Error()))
			return
		}
		res, err := s.world.LoadArea(ctx, world.ChunkKey{CX: m.CX, CZ: m.CZ}, m.Radius)
		if err != nil {
			ss.send(protocol.NewError(m.ReqID, errorCode(err), err.Error()))
			return
		}
		chunks := make([][2]int, 0, len(res.Loaded))
		for _, k := range res.Loaded {
			chunks = append(chunks, [2]int{k.CX, k.CZ})
		}
		ss.send(protocol.LoadedMsg{Type: protocol.TypeLoaded, ReqID: m.ReqID, Tick: res.Tick, Chunks: chunks})

	case protocol.TypeUnload:
		var m protocol.UnloadMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			ss.send(protocol.NewError(m.ReqID, protocol.ErrBadRequest, err.Error()))
			return
		}
		res, err := s.world.UnloadArea(ctx, world.ChunkKey{CX: m.CX, CZ: m.CZ}, m.Radius)
		if err != nil {
			ss.send(protocol.NewError(m.ReqID, errorCode(err), err.Error()))
			return
		}
		chunks := make([][2]int, 0, len(res.Unloaded))
		for _, k := range res.Unloaded {
			chunks = append(chunks, [2]int{k.CX, k.CZ})
		}
		ss.send(protocol.UnloadedMsg{Type: protocol.TypeUnloaded, ReqID: m.ReqID, Tick: res.Tick, Chunks: chunks})

	default:
		ss.send(protocol.NewError("", protocol.ErrProtoBadRequest, "unexpected message type "+typ))
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, world.ErrRateLimited):
		return protocol.ErrRateLimit
	case errors.Is(err, world.ErrChunkNotLoaded):
		return protocol.ErrChunkNotLoaded
	case errors.Is(err, world.ErrOutOfBounds), errors.Is(err, world.ErrUnknownBlock):
		return protocol.ErrInvalidTarget
	case errors.Is(err, context.DeadlineExceeded):
		return protocol.ErrWorldBusy
	default:
		return protocol.ErrInternal
	}
}

func vec(p [3]int) light.Vec3i { return light.Vec3i{X: p[0], Y: p[1], Z: p[2]} }

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}
	if err := protocol.ValidateInbound(protocol.TypeHello, msg); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad HELLO"), time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}

	maxQ := hello.MaxQueue
	if maxQ <= 0 {
		maxQ = 8
	}
	if maxQ > 64 {
		maxQ = 64
	}
	out = make(chan []byte, maxQ)
	sessionID = uuid.NewString()

	blocks := s.world.Blocks()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		WorldID:         s.world.ID(),
		Tick:            s.world.CurrentTick(),
		WorldParams: protocol.WorldParams{
			TickRateHz: s.world.TickRateHz(),
			ChunkSize:  [3]int{light.ChunkSize, light.ChunkSize, s.world.Height()},
			Height:     s.world.Height(),
			MaxLight:   int(light.MaxLight),
			Seed:       s.world.Seed(),
		},
		BlockPalette: protocol.DigestRef{Digest: blocks.PaletteDigest, Count: len(blocks.Palette)},
		Palette:      append([]string(nil), blocks.Palette...),
	}
	if err := writeJSON(conn, welcome); err != nil {
		return "", nil
	}
	if s.log != nil {
		s.log.Printf("session %s joined client=%q", sessionID, hello.ClientName)
	}
	return sessionID, out
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
