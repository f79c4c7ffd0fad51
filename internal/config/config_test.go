// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/swerve_dashboard/internal/widget"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "swerve_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
# broker
MQTT_BROKER=tcp://localhost:1883
MQTT_CLIENT_ID_WEB = swerve-web
TOPIC_SWERVE=robot/swerve

SWERVE_LAYOUT=states
PUBLISH_INTERVAL=50
MAX_LINEAR_SPEED=4.5
MAX_ANGULAR_SPEED=540
CHASSIS_ROTATION=false
WIDGET_TITLE=Drive
DISPLAY_I2C_ADDR=0x3D
LOG_FILE=/var/log/swerve/web.log
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, "swerve-web", cfg.MQTTClientIDWeb)
	assert.Equal(t, LayoutStates, cfg.SwerveLayout)
	assert.Equal(t, 50*time.Millisecond, cfg.PublishEvery())
	assert.Equal(t, uint16(0x3D), cfg.DisplayI2CAddr)
	assert.Equal(t, "/var/log/swerve/web.log", cfg.LogFile)

	// Unset keys keep their defaults.
	assert.Equal(t, 8080, cfg.WebServerPort)
	assert.Equal(t, "web", cfg.WebStaticDir)
	assert.Equal(t, 200*time.Millisecond, cfg.DisplayEvery())

	assert.Equal(t, widget.Props{
		Title:                "Drive",
		ChassisRotation:      false,
		ChassisSpeedsVisible: true,
		MaxLinearSpeed:       4.5,
		MaxAngularSpeed:      540,
	}, cfg.WidgetProps())
	assert.NoError(t, cfg.WidgetProps().Validate())
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"missing broker":     "TOPIC_SWERVE=robot/swerve\n",
		"missing topic":      "MQTT_BROKER=tcp://localhost:1883\n",
		"no separator":       "MQTT_BROKER\n",
		"unknown key":        "MQTT_BROKER=x\nTOPIC_SWERVE=y\nIMU_ACCEL_RANGE=2\n",
		"bad layout":         "MQTT_BROKER=x\nTOPIC_SWERVE=y\nSWERVE_LAYOUT=pose\n",
		"zero linear speed":  "MQTT_BROKER=x\nTOPIC_SWERVE=y\nMAX_LINEAR_SPEED=0\n",
		"nan angular speed":  "MQTT_BROKER=x\nTOPIC_SWERVE=y\nMAX_ANGULAR_SPEED=NaN\n",
		"bad bool":           "MQTT_BROKER=x\nTOPIC_SWERVE=y\nCHASSIS_ROTATION=maybe\n",
		"port out of range":  "MQTT_BROKER=x\nTOPIC_SWERVE=y\nWEB_SERVER_PORT=70000\n",
		"negative interval":  "MQTT_BROKER=x\nTOPIC_SWERVE=y\nPUBLISH_INTERVAL=-5\n",
		"bad i2c address":    "MQTT_BROKER=x\nTOPIC_SWERVE=y\nDISPLAY_I2C_ADDR=0x1FFFF\n",
		"bad channel length": "MQTT_BROKER=x\nTOPIC_SWERVE=y\nCHANNEL_HISTORY=lots\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestDashboardFileReplacesTopic(t *testing.T) {
	cfg, err := Load(writeConfig(t, "MQTT_BROKER=x\nDASHBOARD_FILE=dashboard.yaml\n"))
	require.NoError(t, err)
	assert.Equal(t, "dashboard.yaml", cfg.DashboardFile)
}

func TestInitGlobal(t *testing.T) {
	path := writeConfig(t, "MQTT_BROKER=tcp://broker:1883\nTOPIC_SWERVE=robot/swerve\n")
	require.NoError(t, InitGlobal(path))
	require.NotNil(t, Get())
	assert.Equal(t, "tcp://broker:1883", Get().MQTTBroker)

	// Later calls are no-ops.
	require.NoError(t, InitGlobal(filepath.Join(t.TempDir(), "missing.txt")))
	assert.Equal(t, "tcp://broker:1883", Get().MQTTBroker)
}
