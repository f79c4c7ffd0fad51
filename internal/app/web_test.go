// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/swerve_dashboard/internal/config"
	"github.com/relabs-tech/swerve_dashboard/internal/dashboard"
	"github.com/relabs-tech/swerve_dashboard/internal/datachannel"
	"github.com/relabs-tech/swerve_dashboard/internal/swerve"
	"github.com/relabs-tech/swerve_dashboard/internal/widget"
)

const testSlot = "robot/swerve"

type fakeChannels map[string]*datachannel.Channel

func (f fakeChannels) Channel(topic string) (*datachannel.Channel, bool) {
	ch, ok := f[topic]
	return ch, ok
}

func newTestServer(t *testing.T) (http.Handler, *datachannel.Channel) {
	t.Helper()
	layout := dashboard.Default(testSlot, widget.DefaultProps())
	require.NoError(t, layout.Validate())
	ch := datachannel.NewChannel(testSlot, 4)
	return NewWebServer(layout, fakeChannels{testSlot: ch}).Handler(""), ch
}

func sampleFrame() swerve.TelemetryStruct {
	state := swerve.ModuleStateStruct{Speed: 2.5, Angle: swerve.Rotation2dStruct{Value: math.Pi / 4}}
	return swerve.TelemetryStruct{
		Rotation:      swerve.Rotation2dStruct{Value: math.Pi / 2},
		CurrentStates: []swerve.ModuleStateStruct{state, state, state, state},
		DesiredStates: []swerve.ModuleStateStruct{state, state, state, state},
		CurrentSpeeds: swerve.ChassisSpeedsStruct{Vx: 3, Vy: 4, Omega: math.Pi},
	}
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestDescriptorEndpoint(t *testing.T) {
	h, _ := newTestServer(t)
	rec := get(t, h, "/api/descriptor")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var d widget.Descriptor
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&d))
	assert.Equal(t, widget.SwerveType, d.Type)
	assert.Equal(t, widget.Size{Width: 10, Height: 11}, d.Size)
}

func TestWidgetsEndpoint(t *testing.T) {
	h, ch := newTestServer(t)

	var infos []struct {
		ID      string                      `json:"id"`
		Slot    string                      `json:"slot"`
		Channel *datachannel.StructuredType `json:"channel"`
		Records int                         `json:"records"`
	}
	rec := get(t, h, "/api/widgets")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&infos))
	require.Len(t, infos, 1)
	assert.Equal(t, widget.SwerveType, infos[0].ID)
	assert.Equal(t, testSlot, infos[0].Slot)
	assert.Nil(t, infos[0].Channel)

	st := swerve.TelemetryType
	ch.Append(&st, sampleFrame(), 1)

	rec = get(t, h, "/api/widgets")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&infos))
	require.NotNil(t, infos[0].Channel)
	assert.Equal(t, swerve.TelemetryType, *infos[0].Channel)
	assert.Equal(t, 1, infos[0].Records)
}

func TestViewEndpointWithoutData(t *testing.T) {
	h, _ := newTestServer(t)

	assert.Equal(t, http.StatusNoContent, get(t, h, "/api/widgets/swerve").Code)

	rec := get(t, h, "/api/widgets/swerve?mode=template")
	require.Equal(t, http.StatusOK, rec.Code)
	var v widget.View
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	assert.True(t, v.Preview)
	assert.Equal(t, "Preview", v.Title)
	require.NotNil(t, v.Telemetry)
	assert.Len(t, v.Telemetry.CurrentStates, 4)
}

func TestViewEndpoint(t *testing.T) {
	h, ch := newTestServer(t)
	st := swerve.TelemetryType
	ch.Append(&st, sampleFrame(), 1)

	rec := get(t, h, "/api/widgets/swerve")
	require.Equal(t, http.StatusOK, rec.Code)

	var v widget.View
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	assert.False(t, v.Preview)
	assert.Equal(t, "Robot Swerve", v.Title)
	assert.InDelta(t, -90.0, v.Rotation, 1e-9)
	require.NotNil(t, v.Telemetry)
	require.Len(t, v.Telemetry.CurrentStates, 4)
	assert.InDelta(t, 0.5, v.Telemetry.CurrentStates[0].Speed, 1e-9)
	assert.InDelta(t, 45.0, v.Telemetry.CurrentStates[0].Angle, 1e-9)
	require.NotNil(t, v.Telemetry.CurrentSpeeds)
	assert.InDelta(t, 1.0, v.Telemetry.CurrentSpeeds.Speed, 1e-9)
}

func TestViewEndpointAfterLayoutSwitch(t *testing.T) {
	h, ch := newTestServer(t)
	telemetry := swerve.TelemetryType
	ch.Append(&telemetry, sampleFrame(), 1)
	require.Equal(t, http.StatusOK, get(t, h, "/api/widgets/swerve").Code)

	states := swerve.ModuleStatesType
	ch.Append(&states, sampleFrame().CurrentStates, 2)
	rec := get(t, h, "/api/widgets/swerve")
	require.Equal(t, http.StatusOK, rec.Code)

	var v widget.View
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	require.NotNil(t, v.Telemetry)
	assert.Len(t, v.Telemetry.CurrentStates, 4)
	assert.Nil(t, v.Telemetry.CurrentSpeeds)
}

func TestViewEndpointErrors(t *testing.T) {
	h, ch := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/widgets/nope").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/widgets/swerve?mode=edit").Code)

	st := swerve.TelemetryType
	ch.Append(&st, "not a frame", 1)
	rec := get(t, h, "/api/widgets/swerve")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "malformed")
}

func TestViewEndpointIgnoresOtherTypes(t *testing.T) {
	h, ch := newTestServer(t)
	st := datachannel.StructuredType{Format: datachannel.FormatStruct, Name: "Pose2d"}
	ch.Append(&st, map[string]any{"x": 1}, 1)

	assert.Equal(t, http.StatusNoContent, get(t, h, "/api/widgets/swerve").Code)
}

func TestDiagramEndpoint(t *testing.T) {
	h, ch := newTestServer(t)

	// Without data the preview is drawn.
	rec := get(t, h, "/api/widgets/swerve/diagram.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, defaultDiagramSize, img.Bounds().Dx())

	st := swerve.TelemetryType
	ch.Append(&st, sampleFrame(), 1)
	rec = get(t, h, "/api/widgets/swerve/diagram.png?size=64")
	require.Equal(t, http.StatusOK, rec.Code)
	img, err = png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Greater(t, img.Bounds().Dy(), 64, "the slot title adds a heading row")

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/widgets/swerve/diagram.png?size=0").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/widgets/swerve/diagram.png?size=big").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/widgets/nope/diagram.png").Code)
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>swerve</h1>"), 0o644))

	layout := dashboard.Default(testSlot, widget.DefaultProps())
	h := NewWebServer(layout, fakeChannels{}).Handler(dir)

	rec := get(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "swerve")
}

func dialStream(t *testing.T, srv *httptest.Server, id string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/widgets/" + id
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func readResponse(t *testing.T, conn *websocket.Conn) WSResponse {
	t.Helper()
	var resp WSResponse
	require.NoError(t, conn.ReadJSON(&resp))
	return resp
}

func TestStreamPushesViews(t *testing.T) {
	h, ch := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dialStream(t, srv, "swerve")
	assert.Equal(t, "empty", readResponse(t, conn).Type)

	st := swerve.TelemetryType
	ch.Append(&st, sampleFrame(), 1)

	resp := readResponse(t, conn)
	require.Equal(t, "view", resp.Type)
	require.NotNil(t, resp.View)
	assert.False(t, resp.View.Preview)
	assert.InDelta(t, -90.0, resp.View.Rotation, 1e-9)

	ch.Append(&st, "broken", 2)
	resp = readResponse(t, conn)
	assert.Equal(t, "error", resp.Type)
	assert.Contains(t, resp.Message, "malformed")
}

func TestStreamModeChange(t *testing.T) {
	h, _ := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dialStream(t, srv, "swerve")
	assert.Equal(t, "empty", readResponse(t, conn).Type)

	require.NoError(t, conn.WriteJSON(WSMessage{Action: "mode", Mode: widget.ModeTemplate}))
	resp := readResponse(t, conn)
	require.Equal(t, "view", resp.Type)
	assert.True(t, resp.View.Preview)

	require.NoError(t, conn.WriteJSON(WSMessage{Action: "zoom"}))
	resp = readResponse(t, conn)
	assert.Equal(t, "error", resp.Type)
}

func TestStreamSendErrorOnClosedConnection(t *testing.T) {
	errs := make(chan error, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			errs <- err
			return
		}
		conn.Close()
		ss := &streamSession{conn: conn, mode: widget.ModeView}
		errs <- ss.sendError("unknown action zoom")
	}))
	defer srv.Close()

	dialStream(t, srv, "swerve")
	select {
	case err := <-errs:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not finish")
	}
}

func TestStreamUnknownWidget(t *testing.T) {
	h, _ := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/ws/widgets/nope").Code)
}

func TestLoadLayout(t *testing.T) {
	cfg := &config.Config{TopicSwerve: testSlot, MaxLinearSpeed: 4, MaxAngularSpeed: 180, ChassisSpeedsVisible: true}
	layout, err := loadLayout(cfg)
	require.NoError(t, err)
	require.Len(t, layout.Widgets, 1)
	assert.Equal(t, testSlot, layout.Widgets[0].Slot)
	assert.Equal(t, 4.0, layout.Widgets[0].Props.MaxLinearSpeed)

	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("widgets:\n  - id: a\n    type: swerve\n    slot: robot/a\n"), 0o644))
	layout, err = loadLayout(&config.Config{DashboardFile: path})
	require.NoError(t, err)
	assert.Equal(t, []string{"robot/a"}, layout.Slots())

	cfg.MaxLinearSpeed = -1
	_, err = loadLayout(cfg)
	assert.Error(t, err)
}
