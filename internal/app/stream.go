// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/swerve_dashboard/internal/dashboard"
	"github.com/relabs-tech/swerve_dashboard/internal/widget"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSMessage is sent by the client.
type WSMessage struct {
	Action string      `json:"action"` // mode
	Mode   widget.Mode `json:"mode,omitempty"`
}

// WSResponse is sent to the client.
type WSResponse struct {
	Type    string       `json:"type"` // view, empty, error
	View    *widget.View `json:"view,omitempty"`
	Message string       `json:"message,omitempty"`
}

// streamSession is one websocket client watching a widget.
type streamSession struct {
	server *WebServer
	widget dashboard.Widget
	conn   *websocket.Conn

	mu   sync.Mutex
	mode widget.Mode
}

// handleStream pushes the widget's view on connect and after every record
// that lands on its slot.
func (s *WebServer) handleStream(w http.ResponseWriter, r *http.Request) {
	wd, ok := s.lookup(w, r)
	if !ok {
		return
	}
	ch, ok := s.channels.Channel(wd.Slot)
	if !ok {
		http.Error(w, "slot not subscribed", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	session := &streamSession{server: s, widget: wd, conn: conn, mode: widget.ModeView}

	records := ch.Subscribe()
	defer ch.Unsubscribe(records)

	done := make(chan struct{})
	go session.readLoop(done)

	if err := session.send(); err != nil {
		log.Printf("web: websocket write error: %v", err)
		return
	}
	for {
		select {
		case <-done:
			return
		case _, open := <-records:
			if !open {
				return
			}
			if err := session.send(); err != nil {
				log.Printf("web: websocket write error: %v", err)
				return
			}
		}
	}
}

// readLoop handles client messages and closes done when the client goes away.
func (ss *streamSession) readLoop(done chan<- struct{}) {
	defer close(done)
	for {
		var msg WSMessage
		if err := ss.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("web: websocket read error: %v", err)
			}
			return
		}

		switch msg.Action {
		case "mode":
			switch msg.Mode {
			case widget.ModeTemplate, widget.ModeDesign, widget.ModeView:
				ss.mu.Lock()
				ss.mode = msg.Mode
				ss.mu.Unlock()
				if err := ss.send(); err != nil {
					return
				}
			default:
				if err := ss.sendError("unknown mode " + string(msg.Mode)); err != nil {
					return
				}
			}
		default:
			if err := ss.sendError("unknown action " + msg.Action); err != nil {
				return
			}
		}
	}
}

// send writes the current view. Writes are serialized on mu since both the
// read loop and the record loop send.
func (ss *streamSession) send() error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	view, ok, err := ss.server.view(ss.widget, ss.mode)
	switch {
	case err != nil:
		return ss.conn.WriteJSON(WSResponse{Type: "error", Message: err.Error()})
	case !ok:
		return ss.conn.WriteJSON(WSResponse{Type: "empty"})
	default:
		return ss.conn.WriteJSON(WSResponse{Type: "view", View: &view})
	}
}

func (ss *streamSession) sendError(message string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.conn.WriteJSON(WSResponse{Type: "error", Message: message})
}
