package web

import (
	"context"
	_ "embed"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/petuhovskiy/powerpick/internal/display"
	"github.com/petuhovskiy/powerpick/internal/gate"
	"github.com/petuhovskiy/powerpick/internal/log"
	"github.com/petuhovskiy/powerpick/internal/session"
	"github.com/petuhovskiy/powerpick/internal/snapshot"
)

//go:embed static/index.html
var indexPage []byte

const (
	writeTimeout = 5 * time.Second
	readTimeout  = 60 * time.Second
	// updates buffered per websocket client before it is resynced
	clientBuffer = 64
)

// Server is the local widget host: it renders the board to a browser and
// accepts draw and export requests.
type Server struct {
	session  *session.Session
	board    *display.Board
	upgrader websocket.Upgrader
}

func NewServer(sess *session.Session, board *display.Board) *Server {
	return &Server{
		session: sess,
		board:   board,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 4 * 1024,
		},
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", indexPage)
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/state", s.handleState)
	api.POST("/draw", s.handleDraw)
	api.GET("/export", s.handleExport)
	api.GET("/ws", s.handleWS)
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := log.With(c.Request.Context(),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		log.Debug(ctx, "request served",
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

type stateResponse struct {
	session.View
	Seq   uint64              `json:"seq"`
	Slots []display.SlotState `json:"slots"`
}

func (s *Server) handleState(c *gin.Context) {
	seq, slots := s.board.SnapshotSeq()
	c.JSON(http.StatusOK, stateResponse{
		View:  s.session.View(),
		Seq:   seq,
		Slots: slots,
	})
}

func (s *Server) handleDraw(c *gin.Context) {
	res, err := s.session.Draw(c.Request.Context())
	switch {
	case errors.Is(err, gate.ErrCooldownActive):
		remaining := s.session.View().Gate.Remaining
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(remaining.Seconds()))))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":     s.session.Catalog().Wait(remaining),
			"remaining": remaining,
		})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"result": res})
	}
}

func (s *Server) handleExport(c *gin.Context) {
	data, err := s.session.Export(c.Request.Context())
	switch {
	case errors.Is(err, session.ErrRevealPending):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, snapshot.ErrExportUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": s.session.Catalog().ExportFailed()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.Header("Content-Disposition", `attachment; filename="`+s.session.FileName()+`"`)
		c.Data(http.StatusOK, "image/png", data)
	}
}

type wsMessage struct {
	Type  string              `json:"type"`
	Seq   uint64              `json:"seq"`
	Slot  *display.SlotState  `json:"slot,omitempty"`
	Slots []display.SlotState `json:"slots,omitempty"`
}

// handleWS streams board changes. The first message is a snapshot, then
// every update follows. A client that falls behind gets a fresh snapshot.
func (s *Server) handleWS(c *gin.Context) {
	ctx := log.Into(c.Request.Context(), "ws")

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn(ctx, "websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	updates := make(chan display.Update, clientBuffer)
	resync := make(chan struct{}, 1)
	unsubscribe := s.board.Subscribe(func(u display.Update) {
		select {
		case updates <- u:
		default:
			select {
			case resync <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribe()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// reader, only to notice the client going away
	go func() {
		defer cancel()
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// subscribed before the snapshot, so nothing is missed; clients skip
	// updates with seq not above the snapshot
	if err := s.writeSnapshot(conn); err != nil {
		return
	}

	for {
		var err error
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
				time.Now().Add(time.Second))
			return
		case <-resync:
			for len(updates) > 0 {
				<-updates
			}
			err = s.writeSnapshot(conn)
		case u := <-updates:
			slot := u.Slot
			err = write(conn, wsMessage{Type: "update", Seq: u.Seq, Slot: &slot})
		}
		if err != nil {
			log.Debug(ctx, "websocket write failed", zap.Error(err))
			return
		}
	}
}

func (s *Server) writeSnapshot(conn *websocket.Conn) error {
	seq, slots := s.board.SnapshotSeq()
	return write(conn, wsMessage{
		Type:  "snapshot",
		Seq:   seq,
		Slots: slots,
	})
}

func write(conn *websocket.Conn, msg wsMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(msg)
}
