package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"order-realtime/internal/models"
	"order-realtime/internal/observability"
	"order-realtime/internal/session"
)

const (
	lifecycleRoutingKey = "ws_events.orders"
	maxMessageSize      = 4096
)

// Classifier resolves a handshake into a connection identity.
type Classifier interface {
	Classify(ctx context.Context, hs session.Handshake) (models.Connection, error)
}

// LifecyclePublisher receives connect, disconnect and error telemetry.
type LifecyclePublisher interface {
	Publish(ctx context.Context, routingKey string, event any, headers map[string]string) error
}

// Options tunes the gateway. Zero values fall back to defaults.
type Options struct {
	Namespace      string
	AllowedOrigins []string
	SendBuffer     int
	MessageRPS     float64
	MessageBurst   int
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	Publisher      LifecyclePublisher
}

func (o *Options) applyDefaults() {
	if o.Namespace == "" {
		o.Namespace = "/orders"
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.MessageRPS <= 0 {
		o.MessageRPS = 10
	}
	if o.MessageBurst <= 0 {
		o.MessageBurst = 20
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = 54 * time.Second
	}
	if o.PongWait <= o.PingPeriod {
		o.PongWait = o.PingPeriod * 10 / 9
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
}

// Gateway is the realtime order namespace: it classifies connections, enrolls them
// into tenant rooms, answers subscribe and ping requests and fans out order events.
type Gateway struct {
	hub        *Hub
	classifier Classifier
	upgrader   websocket.Upgrader
	opts       Options
	now        func() time.Time
}

// NewGateway constructs a Gateway around hub.
func NewGateway(hub *Hub, classifier Classifier, opts Options) *Gateway {
	opts.applyDefaults()
	allowed := make(map[string]struct{}, len(opts.AllowedOrigins))
	for _, origin := range opts.AllowedOrigins {
		allowed[origin] = struct{}{}
	}
	return &Gateway{
		hub:        hub,
		classifier: classifier,
		opts:       opts,
		now:        time.Now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// Hub exposes the gateway's registry.
func (g *Gateway) Hub() *Hub { return g.hub }

// ConnectedClientsByTenant counts connections classified under tenantID.
func (g *Gateway) ConnectedClientsByTenant(tenantID string) int {
	return g.hub.CountInTenant(tenantID)
}

// ClientsInRoom counts live members of room.
func (g *Gateway) ClientsInRoom(room string) int {
	return g.hub.ClientsInRoom(room)
}

// Handle upgrades the request, classifies the connection and starts its pumps.
func (g *Gateway) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("order-realtime/ws").Start(c.Request.Context(), "ws.handshake",
		trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	hs := session.HandshakeFromRequest(c.Request)

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("ip", observability.IPFromRequest(c.Request)).Msg("websocket upgrade failed")
		return
	}

	info := ConnInfo{
		DeviceID:  observability.DeviceIDFromRequest(c.Request),
		IP:        observability.IPFromRequest(c.Request),
		RequestID: observability.RequestIDFromRequest(c.Request),
	}
	if sc := span.SpanContext(); sc.HasTraceID() {
		info.TraceID = sc.TraceID().String()
	}

	identity, err := g.classifier.Classify(ctx, hs)
	if err != nil {
		g.reject(conn, info, err)
		return
	}
	identity.ConnID = newConnID()
	identity.ConnectedAt = g.now()
	info.Connection = identity

	limiter := rate.NewLimiter(rate.Limit(g.opts.MessageRPS), g.opts.MessageBurst)
	client := newClient(conn, info, g.opts.SendBuffer, limiter)
	g.connect(client)

	go client.writePump(g.opts.PingPeriod, g.opts.WriteWait)
	go g.readLoop(client)
}

// reject tells the client why classification failed and closes the connection.
func (g *Gateway) reject(conn *websocket.Conn, info ConnInfo, cause error) {
	log.Warn().Err(cause).Str("ip", info.IP).Str("request_id", info.RequestID).Msg("websocket connection rejected")
	observability.IncWSEvent("unclassified", "ws_rejected")

	deadline := time.Now().Add(g.opts.WriteWait)
	if payload, err := encode(EventError, ErrorPayload{Message: "connection failed: " + cause.Error()}, 0); err == nil {
		_ = conn.SetWriteDeadline(deadline)
		_ = conn.WriteMessage(websocket.TextMessage, payload)
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "connection failed"), deadline)
	_ = conn.Close()
}

// connect registers a classified client, joins its initial rooms and acknowledges.
func (g *Gateway) connect(c *Client) {
	g.hub.Register(c)
	for _, room := range initialRooms(c.info.Connection) {
		if _, err := g.hub.Join(c, room); err != nil {
			log.Warn().Err(err).Str("conn_id", c.ID()).Str("room", room).Msg("initial join failed")
		}
	}

	role := string(c.info.Role)
	observability.IncWSActive(role)
	observability.IncWSEvent(role, "ws_connect")

	rooms := g.hub.RoomsOf(c.ID())
	log.Info().
		Str("conn_id", c.ID()).
		Str("tenant_id", c.info.TenantID).
		Str("role", role).
		Str("table_id", c.info.TableID).
		Strs("rooms", rooms).
		Msg("client connected")

	g.sendTo(c, EventConnected, ConnectedPayload{
		ConnectionID: c.ID(),
		TenantID:     c.info.TenantID,
		Role:         c.info.Role,
		UserID:       c.info.UserID,
		TableID:      c.info.TableID,
		Rooms:        rooms,
		ConnectedAt:  c.info.ConnectedAt,
	}, 0)
	g.publishLifecycle("ws_connect", c.info, "")
}

// HandleDisconnect removes connID from the registry. Unknown or already removed
// connections are ignored, so duplicate signals are harmless.
func (g *Gateway) HandleDisconnect(connID, reason string) {
	c, ok := g.hub.Unregister(connID)
	if !ok {
		log.Warn().Str("conn_id", connID).Str("reason", reason).Msg("disconnect for unknown connection")
		return
	}
	c.close()

	role := string(c.info.Role)
	observability.DecWSActive(role)
	observability.IncWSEvent(role, "ws_disconnect")

	log.Info().
		Str("conn_id", connID).
		Str("tenant_id", c.info.TenantID).
		Str("role", role).
		Dur("session", g.now().Sub(c.info.ConnectedAt)).
		Str("reason", reason).
		Msg("client disconnected")
	g.publishLifecycle("ws_disconnect", c.info, reason)
}

func (g *Gateway) readLoop(c *Client) {
	var reason string
	defer func() { g.HandleDisconnect(c.ID(), reason) }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(g.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(g.opts.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			reason = err.Error()
			if c.closed() {
				reason = "server closed connection"
			} else if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent(string(c.info.Role), "ws_error")
				g.publishLifecycle("ws_error", c.info, reason)
			}
			return
		}
		g.handleMessage(c, data)
	}
}

// handleMessage dispatches one inbound frame. Failures become error events; the
// connection stays open.
func (g *Gateway) handleMessage(c *Client, data []byte) {
	if !c.limiter.Allow() {
		g.sendError(c, "rate limit exceeded")
		return
	}

	var msg Envelope
	if err := json.Unmarshal(data, &msg); err != nil {
		g.sendError(c, "invalid message")
		return
	}

	switch msg.Event {
	case EventSubscribeStaff:
		var req SubscribeStaffRequest
		if err := decodeData(msg.Data, &req); err != nil || req.TenantID == "" {
			g.subscribeFailed(c, msg, "tenantId is required")
			return
		}
		g.subscribe(c, msg, StaffRoom(req.TenantID))
	case EventSubscribeCustomer:
		var req SubscribeCustomerRequest
		if err := decodeData(msg.Data, &req); err != nil || req.TenantID == "" || req.TableID == "" {
			g.subscribeFailed(c, msg, "tenantId and tableId are required")
			return
		}
		g.subscribe(c, msg, CustomerRoom(req.TenantID, req.TableID))
	case EventPing:
		g.sendTo(c, EventAck, PongReply, msg.AckID)
	default:
		observability.IncWSEvent(string(c.info.Role), "unknown")
		g.sendError(c, fmt.Sprintf("unknown event %q", msg.Event))
	}
}

func decodeData(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing data")
	}
	return json.Unmarshal(raw, v)
}

func (g *Gateway) subscribe(c *Client, msg Envelope, room string) {
	added, err := g.hub.Join(c, room)
	if err != nil {
		g.subscribeFailed(c, msg, err.Error())
		return
	}
	observability.IncWSEvent(string(c.info.Role), msg.Event)
	log.Info().
		Str("conn_id", c.ID()).
		Str("tenant_id", c.info.TenantID).
		Str("room", room).
		Bool("added", added).
		Msg("client subscribed")
	g.sendTo(c, EventAck, SubscribeAck{Success: true, Room: room}, msg.AckID)
}

func (g *Gateway) subscribeFailed(c *Client, msg Envelope, reason string) {
	log.Warn().Str("conn_id", c.ID()).Str("event", msg.Event).Str("reason", reason).Msg("subscribe rejected")
	g.sendError(c, reason)
	g.sendTo(c, EventAck, SubscribeAck{Success: false, Error: reason}, msg.AckID)
}

func (g *Gateway) sendError(c *Client, message string) {
	g.sendTo(c, EventError, ErrorPayload{Message: message}, 0)
}

// sendTo queues one event for a single connection.
func (g *Gateway) sendTo(c *Client, event string, data interface{}, ackID int64) {
	payload, err := encode(event, data, ackID)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("encode event failed")
		return
	}
	if c.enqueue(payload) {
		observability.AddEmitResult(event, 1, 0)
		return
	}
	observability.AddEmitResult(event, 0, 1)
	log.Warn().Str("conn_id", c.ID()).Str("event", event).Msg("send dropped")
}

func (g *Gateway) publishLifecycle(event string, info ConnInfo, reason string) {
	if g.opts.Publisher == nil {
		return
	}
	var duration int64
	if event != "ws_connect" {
		duration = g.now().Sub(info.ConnectedAt).Milliseconds()
	}
	envelope := observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload: observability.WSEventPayload{
			WS: observability.WSEventDetails{
				Namespace:  g.opts.Namespace,
				Event:      event,
				ConnID:     info.ConnID,
				DurationMS: duration,
				Reason:     reason,
			},
			Identity: observability.WSIdentity{
				TenantID: info.TenantID,
				Role:     string(info.Role),
				UserID:   info.UserID,
				TableID:  info.TableID,
				DeviceID: info.DeviceID,
				IP:       info.IP,
			},
		},
	}
	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	if err := g.opts.Publisher.Publish(context.Background(), lifecycleRoutingKey, envelope, headers); err != nil {
		observability.IncAMQPPublishError()
		log.Warn().Err(err).Str("conn_id", info.ConnID).Str("event", event).Msg("lifecycle publish failed")
	}
}
