// Package websocket pushes live canvas state to every browser tab of a
// session over socket.io.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"artisan-canvas/canvas"
	"artisan-canvas/handlers/api"
	"artisan-canvas/middleware"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

const roomPrefix = "session:"

var (
	errTokenRequired = errors.New("token is required")
	errInvalidToken  = errors.New("invalid token")
)

type ackInvoker func(err error, payload map[string]any)

// Hub relays document changes to the sockets that joined a session.
type Hub struct {
	srv           *socketio.Server
	authenticator middleware.Authenticator
	editors       api.Editors
	log           logrus.FieldLogger

	mu      sync.RWMutex
	members map[string]map[socketio.SocketId]struct{}
}

type Option func(*Hub)

func WithLogger(log logrus.FieldLogger) Option {
	return func(h *Hub) {
		h.log = log
	}
}

// WithEditors lets a joining socket receive the current state right away.
func WithEditors(editors api.Editors) Option {
	return func(h *Hub) {
		h.editors = editors
	}
}

func NewHub(authenticator middleware.Authenticator, opts ...Option) *Hub {
	h := &Hub{
		authenticator: authenticator,
		log:           logrus.StandardLogger(),
		members:       make(map[string]map[socketio.SocketId]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.srv = h.setup()
	return h
}

// Server returns the socket.io server to mount at /socket.io/.
func (h *Hub) Server() *socketio.Server {
	return h.srv
}

// ActiveSessions returns the number of joined sockets per session.
func (h *Hub) ActiveSessions() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sessions := make(map[string]int, len(h.members))
	for k, v := range h.members {
		sessions[k] = len(v)
	}
	return sessions
}

// Publish sends state to every socket of the session. It matches
// session.Observer.
func (h *Hub) Publish(sessionID string, state canvas.State) {
	h.mu.RLock()
	n := len(h.members[sessionID])
	h.mu.RUnlock()
	if n == 0 {
		return
	}
	if err := h.srv.To(room(sessionID)).Emit("canvas-state", state); err != nil {
		h.log.WithError(err).WithField("session_id", sessionID).Warn("Failed to publish canvas state")
	}
}

func (h *Hub) Close() {
	h.srv.Close(nil)
}

func room(sessionID string) socketio.Room {
	return socketio.Room(roomPrefix + sessionID)
}

func (h *Hub) setup() *socketio.Server {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(1000000)
	opts.SetPath("/socket.io")
	localhostOrigin := regexp.MustCompile(`^https?://(localhost|127\.0\.0\.1|\[::1\])(:\d+)?$`)
	opts.SetCors(&types.Cors{
		Origin:      []any{localhostOrigin},
		Credentials: true,
	})
	srv := socketio.NewServer(nil, opts)

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}
		h.log.WithField("socket_id", socket.Id()).Debug("Socket connected")

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("join-room", func(datas ...any) {
			h.handleJoin(socket, datas)
		})

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("disconnecting", func(...any) {
			h.leave(socket.Id())
		})

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("disconnect", func(...any) {
			socket.RemoveAllListeners("")
		})
	})

	return srv
}

func (h *Hub) handleJoin(socket *socketio.Socket, datas []any) {
	ack, args := extractAck(datas)
	var token string
	if len(args) > 0 {
		token, _ = args[0].(string)
	}

	sessionID, err := h.authorize(context.Background(), token)
	if err != nil {
		respondWithAck(socket, ack, "join-room-ack", map[string]any{
			"status": "error",
			"error":  err.Error(),
		}, err)
		return
	}

	socket.Join(room(sessionID))
	count := h.join(sessionID, socket.Id())
	h.log.WithFields(logrus.Fields{"socket_id": socket.Id(), "session_id": sessionID, "sockets": count}).Info("Socket joined session")

	respondWithAck(socket, ack, "join-room-ack", map[string]any{
		"status":    "ok",
		"sessionId": sessionID,
		"sockets":   count,
	}, nil)

	if h.editors == nil {
		return
	}
	state, err := h.editors.Get(sessionID).State(context.Background())
	if err != nil {
		h.log.WithError(err).WithField("session_id", sessionID).Warn("Failed to read state for joining socket")
		return
	}
	_ = socket.Emit("canvas-state", state)
}

// authorize returns the session id of a logged-in token.
func (h *Hub) authorize(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return "", errTokenRequired
	}
	claims, err := h.authenticator.Authenticate(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	return claims.Subject, nil
}

// join records the socket as a member of the session and returns the
// session's socket count. Joining twice is a no-op.
func (h *Hub) join(sessionID string, id socketio.SocketId) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	sockets, ok := h.members[sessionID]
	if !ok {
		sockets = make(map[socketio.SocketId]struct{})
		h.members[sessionID] = sockets
	}
	sockets[id] = struct{}{}
	return len(sockets)
}

// leave removes the socket from every session it joined.
func (h *Hub) leave(id socketio.SocketId) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sessionID, sockets := range h.members {
		delete(sockets, id)
		if len(sockets) == 0 {
			delete(h.members, sessionID)
		}
	}
}

func extractAck(datas []any) (ack ackInvoker, args []any) {
	if len(datas) == 0 {
		return nil, datas
	}
	ack = wrapAck(datas[len(datas)-1])
	if ack == nil {
		return nil, datas
	}
	return ack, datas[:len(datas)-1]
}

// wrapAck adapts a client acknowledgement callback of any signature. A
// single-argument callback gets the error if there is one, else the payload.
func wrapAck(candidate any) ackInvoker {
	if candidate == nil {
		return nil
	}
	value := reflect.ValueOf(candidate)
	if value.Kind() != reflect.Func {
		return nil
	}

	typ := value.Type()
	return func(err error, payload map[string]any) {
		args := make([]reflect.Value, typ.NumIn())
		for i := range args {
			var v any
			switch {
			case typ.NumIn() == 1 && err != nil:
				v = err
			case typ.NumIn() == 1:
				v = payload
			case i == 0:
				v = err
			case i == 1:
				v = payload
			}
			args[i] = coerce(v, typ.In(i))
		}
		value.Call(args)
	}
}

func coerce(value any, target reflect.Type) reflect.Value {
	if value == nil {
		return reflect.Zero(target)
	}
	rv := reflect.ValueOf(value)
	switch {
	case rv.Type().AssignableTo(target):
		return rv
	case rv.Type().ConvertibleTo(target):
		return rv.Convert(target)
	case target.Kind() == reflect.String:
		return reflect.ValueOf(fmt.Sprint(value)).Convert(target)
	}
	return reflect.Zero(target)
}

func respondWithAck(socket *socketio.Socket, ack ackInvoker, event string, payload map[string]any, ackErr error) {
	if ack != nil {
		ack(ackErr, payload)
	}
	if event != "" && payload != nil {
		_ = socket.Emit(event, payload)
	}
}
