// Package ws is the websocket gateway. Each connection introduces itself
// with a Hello frame, then streams actions in and view updates out. The
// gateway doubles as the delivery path for direct notices and for community
// prompt refreshes, since it knows who is connected.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campfire-games/lobby-backend/internal/directory"
	"github.com/campfire-games/lobby-backend/internal/dispatch"
	"github.com/campfire-games/lobby-backend/internal/hub"
	"github.com/campfire-games/lobby-backend/internal/session"
	"github.com/campfire-games/lobby-backend/internal/types"
	"github.com/campfire-games/lobby-backend/internal/view"
)

const (
	writeTimeout = 3 * time.Second
	helloTimeout = 5 * time.Second
	readTimeout  = 5 * time.Minute
)

type client struct {
	participantID string
	communityID   string
	out           chan types.ServerMessage
}

type Gateway struct {
	hub      *hub.Hub
	dispatch *dispatch.Dispatcher
	dir      *directory.Directory
	logger   *zap.Logger

	mu      sync.RWMutex
	clients map[string]*client // connection id -> client
}

func NewGateway(h *hub.Hub, d *dispatch.Dispatcher, dir *directory.Directory, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		hub:      h,
		dispatch: d,
		dir:      dir,
		logger:   logger,
		clients:  make(map[string]*client),
	}
}

// BindHub attaches the registry after construction. The gateway is the hub's
// prompt sink, so one of the two has to be wired late; call this before
// serving.
func (g *Gateway) BindHub(h *hub.Hub) { g.hub = h }

// Notify implements notify.Notifier: a direct notice to one participant over
// whatever connections they hold. Fails when the participant is offline.
func (g *Gateway) Notify(ctx context.Context, participantID, message string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	delivered := false
	for _, c := range g.clients {
		if c.participantID != participantID {
			continue
		}
		select {
		case c.out <- types.ServerMessage{Type: "Notice", Message: message}:
			delivered = true
		default:
		}
	}
	if !delivered {
		return fmt.Errorf("participant %s not connected", participantID)
	}
	return nil
}

// PromptChanged implements hub.PromptSink: push the refreshed prompt state
// to every connection in the community.
func (g *Gateway) PromptChanged(v view.PromptView) {
	msg := types.ServerMessage{Type: "View", View: &view.Payload{Kind: view.KindPrompt, Prompt: &v}}

	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, c := range g.clients {
		if c.communityID != v.CommunityID {
			continue
		}
		select {
		case c.out <- msg:
		default:
		}
	}
}

func (g *Gateway) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		communityID := r.URL.Query().Get("community")
		if communityID == "" {
			http.Error(w, "missing community", http.StatusBadRequest)
			return
		}
		sessionID := r.URL.Query().Get("session")

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		hello, err := g.readHello(r.Context(), conn)
		if err != nil {
			g.writeNow(r.Context(), conn, types.ServerMessage{Type: "Error", Error: err.Error()})
			return
		}
		g.dir.Register(directory.Identity{
			ID:          hello.ActorID,
			DisplayName: hello.DisplayName,
			AvatarURL:   hello.AvatarURL,
		})

		connID := uuid.NewString()
		c := &client{participantID: hello.ActorID, communityID: communityID, out: make(chan types.ServerMessage, 16)}
		g.mu.Lock()
		g.clients[connID] = c
		g.mu.Unlock()
		defer g.dropClient(connID)

		if sessionID != "" {
			s := g.lookupSession(sessionID)
			if s == nil {
				g.writeNow(r.Context(), conn, types.ServerMessage{Type: "Error", Error: session.ErrGone.Error()})
				return
			}
			views := make(chan view.Payload, 8)
			s.Inbox() <- session.Subscribe{ClientID: connID, Outbox: views}
			defer func() {
				select {
				case s.Inbox() <- session.Unsubscribe{ClientID: connID}:
				case <-s.Done():
				}
			}()
			go func() {
				for p := range views {
					p := p
					select {
					case c.out <- types.ServerMessage{Type: "View", View: &p}:
					default:
					}
				}
			}()
		}

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				select {
				case <-writeCtx.Done():
					return
				case msg := <-c.out:
					payload, err := json.Marshal(msg)
					if err != nil {
						continue
					}
					ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
					_ = conn.Write(ctx, websocket.MessageText, payload)
					cancel()
				}
			}
		}()

		g.readLoop(r.Context(), conn, c)
	}
}

func (g *Gateway) readHello(ctx context.Context, conn *websocket.Conn) (types.ClientMessage, error) {
	readCtx, cancel := context.WithTimeout(ctx, helloTimeout)
	defer cancel()

	_, data, err := conn.Read(readCtx)
	if err != nil {
		return types.ClientMessage{}, fmt.Errorf("read hello: %w", err)
	}
	var cm types.ClientMessage
	if err := json.Unmarshal(data, &cm); err != nil {
		return types.ClientMessage{}, fmt.Errorf("bad json in hello")
	}
	if cm.Type != "Hello" || cm.ActorID == "" {
		return types.ClientMessage{}, fmt.Errorf("expected hello with actor_id")
	}
	return cm, nil
}

func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn, c *client) {
	for {
		readCtx, cancel := context.WithTimeout(ctx, readTimeout)
		_, data, err := conn.Read(readCtx)
		cancel()
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				g.logger.Debug("connection dropped", zap.Error(err))
			}
			return
		}

		var cm types.ClientMessage
		if err := json.Unmarshal(data, &cm); err != nil {
			g.send(c, types.ServerMessage{Type: "Error", Error: "bad json"})
			continue
		}
		if cm.Type != "Action" || cm.Action == "" {
			g.send(c, types.ServerMessage{Type: "Error", Error: "expected action"})
			continue
		}

		res := g.dispatch.Invoke(ctx, dispatch.Request{
			Action:  cm.Action,
			Surface: cm.Surface,
			ActorID: c.participantID,
			Payload: actionPayload(cm),
		})
		if res.Err != nil {
			g.send(c, types.ServerMessage{Type: "Error", Error: res.Err.Error()})
			continue
		}
		g.send(c, types.ServerMessage{Type: "Ack", Message: res.Msg})
	}
}

func actionPayload(cm types.ClientMessage) map[string]string {
	p := map[string]string{}
	if cm.TargetID != "" {
		p["target"] = cm.TargetID
	}
	if cm.Title != "" {
		p["title"] = cm.Title
	}
	if cm.DurationMs > 0 {
		p["duration_ms"] = strconv.Itoa(cm.DurationMs)
	}
	return p
}

func (g *Gateway) send(c *client, msg types.ServerMessage) {
	select {
	case c.out <- msg:
	default:
	}
}

func (g *Gateway) writeNow(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(writeCtx, websocket.MessageText, payload)
}

func (g *Gateway) dropClient(connID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.clients, connID)
}

func (g *Gateway) lookupSession(id string) *session.Session {
	reply := make(chan *session.Session, 1)
	g.hub.Inbox() <- hub.Get{ID: id, Reply: reply}
	return <-reply
}
