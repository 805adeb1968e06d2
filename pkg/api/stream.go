package api

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dd0wney/cluso-socialgraph/pkg/api/middleware"
	"github.com/dd0wney/cluso-socialgraph/pkg/logging"
	"github.com/dd0wney/cluso-socialgraph/pkg/visualization"
)

const (
	writeWait    = 5 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
	maxReadBytes = 512
)

type streamRecorder interface {
	StreamConnected(delta int)
	RecordStreamFrame(skipped uint64)
}

type nopStream struct{}

func (nopStream) StreamConnected(int)      {}
func (nopStream) RecordStreamFrame(uint64) {}

// originChecker allows same-host upgrades and the configured CORS origins.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
			return true
		}
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}

// handleStream upgrades to a websocket and writes every published frame as
// JSON, starting with the latest one. Frames the viewer could not keep up
// with are skipped; it always receives the newest.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	logger := s.logger.With(logging.RequestID(middleware.GetRequestID(r.Context())))
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub, err := s.frames.Subscribe(ctx, visualization.TopicFrames)
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		return
	}
	defer sub.Unsubscribe()

	s.stream.StreamConnected(1)
	defer s.stream.StreamConnected(-1)
	logger.Debug("viewer connected")
	defer logger.Debug("viewer disconnected")

	go readPump(conn, cancel)

	if err := writeFrame(conn, s.engine.Latest()); err != nil {
		return
	}

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	var dropped uint64
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeWait))
				return
			}
			frame, ok := msg.(visualization.Frame)
			if !ok {
				continue
			}
			if err := writeFrame(conn, frame); err != nil {
				logger.Debug("write frame", logging.Error(err))
				return
			}
			total := sub.Dropped()
			s.stream.RecordStreamFrame(total - dropped)
			dropped = total
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages and cancels when the peer goes away.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(maxReadBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeFrame(conn *websocket.Conn, f visualization.Frame) error {
	data, err := visualization.ExportJSON(f)
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
