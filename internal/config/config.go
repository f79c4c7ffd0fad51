// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/relabs-tech/swerve_dashboard/internal/widget"
)

// Swerve payload layouts the producer can emit.
const (
	LayoutTelemetry = "telemetry"
	LayoutStates    = "states"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDBridge   string
	MQTTClientIDWeb      string
	MQTTClientIDConsole  string
	MQTTClientIDDisplay  string

	// Topics
	TopicSwerve string

	// Producer
	SwerveLayout    string // "telemetry" or "states"
	PublishInterval int    // milliseconds

	// Widget props used when no dashboard file is given
	MaxLinearSpeed       float64 // m/s
	MaxAngularSpeed      float64 // deg/s
	ChassisRotation      bool
	ChassisSpeedsVisible bool
	WidgetTitle          string

	// Dashboard
	DashboardFile  string
	ChannelHistory int

	// Serial bridge
	SerialPort     string
	SerialBaudRate int

	// Web Server
	WebServerPort int
	WebStaticDir  string

	// Display
	DisplayI2CAddr        uint16
	DisplayUpdateInterval int // milliseconds

	// Logging
	LogFile string // rotated copy of the log; empty logs to stderr only
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal and Get.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

func defaults() *Config {
	props := widget.DefaultProps()
	return &Config{
		SwerveLayout:          LayoutTelemetry,
		PublishInterval:       100,
		MaxLinearSpeed:        props.MaxLinearSpeed,
		MaxAngularSpeed:       props.MaxAngularSpeed,
		ChassisRotation:       props.ChassisRotation,
		ChassisSpeedsVisible:  props.ChassisSpeedsVisible,
		SerialBaudRate:        115200,
		WebServerPort:         8080,
		WebStaticDir:          "web",
		DisplayI2CAddr:        0x3C,
		DisplayUpdateInterval: 200,
	}
}

// Load reads the configuration file and returns a Config struct. Keys that
// are not in the file keep their defaults.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_BRIDGE":
		c.MQTTClientIDBridge = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_SWERVE":
		c.TopicSwerve = value

	// Producer
	case "SWERVE_LAYOUT":
		if value != LayoutTelemetry && value != LayoutStates {
			return fmt.Errorf("SWERVE_LAYOUT must be %q or %q, got %q", LayoutTelemetry, LayoutStates, value)
		}
		c.SwerveLayout = value
	case "PUBLISH_INTERVAL":
		interval, err := positiveInt(key, value)
		if err != nil {
			return err
		}
		c.PublishInterval = interval

	// Widget props
	case "MAX_LINEAR_SPEED":
		v, err := positiveFloat(key, value)
		if err != nil {
			return err
		}
		c.MaxLinearSpeed = v
	case "MAX_ANGULAR_SPEED":
		v, err := positiveFloat(key, value)
		if err != nil {
			return err
		}
		c.MaxAngularSpeed = v
	case "CHASSIS_ROTATION":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid CHASSIS_ROTATION %q: %w", value, err)
		}
		c.ChassisRotation = b
	case "CHASSIS_SPEEDS_VISIBLE":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid CHASSIS_SPEEDS_VISIBLE %q: %w", value, err)
		}
		c.ChassisSpeedsVisible = b
	case "WIDGET_TITLE":
		c.WidgetTitle = value

	// Dashboard
	case "DASHBOARD_FILE":
		c.DashboardFile = value
	case "CHANNEL_HISTORY":
		n, err := positiveInt(key, value)
		if err != nil {
			return err
		}
		c.ChannelHistory = n

	// Serial bridge
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := positiveInt(key, value)
		if err != nil {
			return err
		}
		c.SerialBaudRate = rate

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		if port < 1 || port > 65535 {
			return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", port)
		}
		c.WebServerPort = port
	case "WEB_STATIC_DIR":
		c.WebStaticDir = value

	// Display
	case "DISPLAY_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_I2C_ADDR %q: %w", value, err)
		}
		c.DisplayI2CAddr = uint16(addr)
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := positiveInt(key, value)
		if err != nil {
			return err
		}
		c.DisplayUpdateInterval = interval

	// Logging
	case "LOG_FILE":
		c.LogFile = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func positiveInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}

func positiveFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%s must be a positive number, got %v", key, v)
	}
	return v, nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicSwerve == "" && c.DashboardFile == "" {
		return fmt.Errorf("TOPIC_SWERVE or DASHBOARD_FILE is required")
	}
	return nil
}

// WidgetProps returns the widget props configured by the WIDGET_* and speed
// keys.
func (c *Config) WidgetProps() widget.Props {
	return widget.Props{
		Title:                c.WidgetTitle,
		ChassisRotation:      c.ChassisRotation,
		ChassisSpeedsVisible: c.ChassisSpeedsVisible,
		MaxLinearSpeed:       c.MaxLinearSpeed,
		MaxAngularSpeed:      c.MaxAngularSpeed,
	}
}

// PublishEvery returns PUBLISH_INTERVAL as a duration.
func (c *Config) PublishEvery() time.Duration {
	return time.Duration(c.PublishInterval) * time.Millisecond
}

// DisplayEvery returns DISPLAY_UPDATE_INTERVAL as a duration.
func (c *Config) DisplayEvery() time.Duration {
	return time.Duration(c.DisplayUpdateInterval) * time.Millisecond
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
