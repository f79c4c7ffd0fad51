// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/relabs-tech/swerve_dashboard/internal/config"
	"github.com/relabs-tech/swerve_dashboard/internal/dashboard"
	"github.com/relabs-tech/swerve_dashboard/internal/datachannel"
	"github.com/relabs-tech/swerve_dashboard/internal/render"
	"github.com/relabs-tech/swerve_dashboard/internal/swerve"
	"github.com/relabs-tech/swerve_dashboard/internal/widget"
)

const (
	defaultDiagramSize = 200
	maxDiagramSize     = 1024
)

// channelSource looks up the data channel bound to a dashboard slot.
type channelSource interface {
	Channel(topic string) (*datachannel.Channel, bool)
}

// loadLayout reads DASHBOARD_FILE, or builds a one-widget layout on
// TOPIC_SWERVE from the widget keys.
func loadLayout(cfg *config.Config) (*dashboard.Layout, error) {
	if cfg.DashboardFile != "" {
		return dashboard.Load(cfg.DashboardFile)
	}
	layout := dashboard.Default(cfg.TopicSwerve, cfg.WidgetProps())
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return layout, nil
}

// RunWeb subscribes every dashboard slot and serves the widget API, the
// websocket stream and the static front end until ctx is done.
func RunWeb(ctx context.Context) error {
	cfg := config.Get()

	layout, err := loadLayout(cfg)
	if err != nil {
		return err
	}

	// 1) Connect to MQTT broker
	sub, client, err := datachannel.ConnectSubscriber(cfg.MQTTBroker, cfg.MQTTClientIDWeb, cfg.ChannelHistory)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) One channel per slot
	for _, slot := range layout.Slots() {
		if _, err := sub.Watch(slot); err != nil {
			return err
		}
	}

	// 3) HTTP
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           NewWebServer(layout, sub).Handler(cfg.WebStaticDir),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("web: shutdown error: %v", err)
		}
	}()

	log.Printf("web: server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Println("web: shutting down")
	return nil
}

// WebServer serves the dashboard's widgets over HTTP.
type WebServer struct {
	layout   *dashboard.Layout
	channels channelSource
}

// NewWebServer binds a layout to the channels feeding its slots.
func NewWebServer(layout *dashboard.Layout, channels channelSource) *WebServer {
	return &WebServer{layout: layout, channels: channels}
}

// Handler returns the routes. Static files come from staticDir when set.
func (s *WebServer) Handler(staticDir string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/descriptor", s.handleDescriptor)
	mux.HandleFunc("GET /api/widgets", s.handleWidgets)
	mux.HandleFunc("GET /api/widgets/{id}", s.handleView)
	mux.HandleFunc("GET /api/widgets/{id}/diagram.png", s.handleDiagram)
	mux.HandleFunc("GET /ws/widgets/{id}", s.handleStream)
	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}

func (s *WebServer) handleDescriptor(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, widget.SwerveDescriptor)
}

// widgetInfo is one entry of GET /api/widgets.
type widgetInfo struct {
	dashboard.Widget
	Channel *datachannel.StructuredType `json:"channel,omitempty"` // type last seen on the slot
	Records int                         `json:"records"`
}

func (s *WebServer) handleWidgets(w http.ResponseWriter, _ *http.Request) {
	infos := make([]widgetInfo, 0, len(s.layout.Widgets))
	for _, wd := range s.layout.Widgets {
		info := widgetInfo{Widget: wd}
		if ch, ok := s.channels.Channel(wd.Slot); ok {
			info.Channel = ch.Type()
			info.Records = len(ch.Records())
		}
		infos = append(infos, info)
	}
	writeJSON(w, http.StatusOK, infos)
}

// view builds the widget's current view. ok is false when there is nothing
// to draw and the preview was not asked for.
func (s *WebServer) view(wd dashboard.Widget, mode widget.Mode) (view widget.View, ok bool, err error) {
	var data *swerve.Telemetry
	if ch, found := s.channels.Channel(wd.Slot); found {
		if rec, ok := ch.Latest(); ok {
			if rec.Type != nil && !widget.SwerveDescriptor.Accept(*rec.Type) {
				return widget.View{}, false, nil
			}
			data, err = widget.TransformRecord(rec, wd.Props)
			if err != nil {
				return widget.View{}, false, err
			}
		}
	}
	if data == nil && mode == widget.ModeView {
		return widget.View{}, false, nil
	}
	shown, preview := widget.WithPreview(mode, data)
	return widget.NewView(mode, wd.Slot, shown, preview, wd.Props), true, nil
}

func (s *WebServer) lookup(w http.ResponseWriter, r *http.Request) (dashboard.Widget, bool) {
	wd, ok := s.layout.Find(r.PathValue("id"))
	if !ok {
		http.Error(w, "unknown widget", http.StatusNotFound)
	}
	return wd, ok
}

func parseMode(r *http.Request) (widget.Mode, error) {
	switch m := widget.Mode(r.URL.Query().Get("mode")); m {
	case "":
		return widget.ModeView, nil
	case widget.ModeTemplate, widget.ModeDesign, widget.ModeView:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q", m)
	}
}

func (s *WebServer) handleView(w http.ResponseWriter, r *http.Request) {
	wd, ok := s.lookup(w, r)
	if !ok {
		return
	}
	mode, err := parseMode(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	view, ok, err := s.view(wd, mode)
	if err != nil {
		writeViewError(w, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *WebServer) handleDiagram(w http.ResponseWriter, r *http.Request) {
	wd, ok := s.lookup(w, r)
	if !ok {
		return
	}
	size := defaultDiagramSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxDiagramSize {
			http.Error(w, fmt.Sprintf("size must be 1-%d", maxDiagramSize), http.StatusBadRequest)
			return
		}
		size = n
	}

	// The diagram falls back to the preview when there is no data.
	view, ok, err := s.view(wd, widget.ModeDesign)
	if err != nil {
		writeViewError(w, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	opts := render.Options{Rotation: view.Rotation, Preview: view.Preview, Title: view.Title}
	if err := render.PNG(w, view.Telemetry, opts, size); err != nil {
		log.Printf("web: png encode error: %v", err)
	}
}

func writeViewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, swerve.ErrMalformedPayload):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, swerve.ErrInvalidConfig):
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		log.Printf("web: view error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}
