package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rubiojr/edjs/pkg/realtime"
)

const (
	previewWriteTimeout = 10 * time.Second
	previewReadLimit    = maxDocumentSize
)

// HandlePreview upgrades to a websocket. Every text frame is a saved editor
// document; the rendered HTML is sent back and, when a room is given, pushed
// to every other session in that room.
func (s *Server) HandlePreview(w http.ResponseWriter, r *http.Request) {
	if err := s.gate.Check(r); err != nil {
		s.writePluginError(w, r, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("preview upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(previewReadLimit)

	room := r.URL.Query().Get("room")
	id, events := s.hub.Register(room)
	defer s.hub.Unregister(id)
	s.log.Debugf("preview session %d joined room %q", id, room)

	out := make(chan realtime.PreviewEvent, 1)
	quit := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			var ev realtime.PreviewEvent
			select {
			case <-quit:
				return
			case ev = <-out:
			case e, ok := <-events:
				if !ok {
					return
				}
				ev = e
			}
			conn.SetWriteDeadline(time.Now().Add(previewWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				s.log.Debugf("preview session %d write: %v", id, err)
				conn.Close()
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debugf("preview session %d read: %v", id, err)
			}
			break
		}

		var ev realtime.PreviewEvent
		html, err := s.converter.ConvertJSON(data)
		if err != nil {
			ev = realtime.NewError(room, id, err.Error())
		} else {
			ev = realtime.NewPreview(room, id, html)
			if room != "" {
				s.hub.Broadcast(ev)
			}
		}

		select {
		case out <- ev:
		case <-done:
		}
	}

	close(quit)
	<-done
}
