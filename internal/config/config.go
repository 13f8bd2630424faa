package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds all application configuration values.
type Config struct {
	// Device
	DeviceID string

	// MQTT
	MQTTBroker               string
	MQTTClientID             string
	MQTTKeepAlive            time.Duration
	MQTTCertFile             string
	MQTTKeyFile              string
	MQTTCAFile               string
	MQTTReconnectMaxInterval time.Duration
	MQTTInboxSize            int

	// Topics
	TopicUnlock  string
	TopicRefresh string
	TopicStatus  string

	// GPS
	GPSSerialPort  string
	GPSBaudRate    int
	GPSReadTimeout time.Duration

	// Door hardware
	HallPin           string
	ServoPin          string
	ServoLockedDuty   int
	ServoUnlockedDuty int
	ServoMinDuty      int
	ServoMaxDuty      int

	// Timing
	AutoLockDelay time.Duration
	LoopInterval  time.Duration

	// Display
	DisplayEnabled bool
	DisplayI2CBus  string

	// Web status page, 0 disables it
	WebServerPort int
}

// minAutoLockDelay is the shortest closed-door time before the bolt is thrown.
const minAutoLockDelay = 3 * time.Second

// Defaults returns a Config with every optional value filled in.
func Defaults() *Config {
	return &Config{
		MQTTClientID:             "smartlock",
		MQTTKeepAlive:            60 * time.Second,
		MQTTReconnectMaxInterval: 2 * time.Minute,
		MQTTInboxSize:            16,
		TopicUnlock:              "/smartlock/unlock",
		TopicRefresh:             "/smartlock/refresh",
		TopicStatus:              "/smartlock/pub",
		GPSBaudRate:              9600,
		GPSReadTimeout:           100 * time.Millisecond,
		ServoLockedDuty:          40,
		ServoUnlockedDuty:        115,
		ServoMinDuty:             40,
		ServoMaxDuty:             115,
		AutoLockDelay:            3 * time.Second,
		LoopInterval:             500 * time.Millisecond,
	}
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal and Get.
//   - configOnce: ensures InitGlobal() only loads once.
//   - configMu: guards globalConfig so Get is safe from any goroutine.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Defaults()
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
	var err error

	switch key {
	// Device
	case "DEVICE_ID":
		c.DeviceID = value

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "MQTT_KEEPALIVE":
		c.MQTTKeepAlive, err = parseSeconds(key, value)
	case "MQTT_CERT_FILE":
		c.MQTTCertFile = value
	case "MQTT_KEY_FILE":
		c.MQTTKeyFile = value
	case "MQTT_CA_FILE":
		c.MQTTCAFile = value
	case "MQTT_RECONNECT_MAX_INTERVAL":
		c.MQTTReconnectMaxInterval, err = parseSeconds(key, value)
	case "MQTT_INBOX_SIZE":
		c.MQTTInboxSize, err = parseRange(key, value, 1, 1024)

	// Topics
	case "TOPIC_UNLOCK":
		c.TopicUnlock = value
	case "TOPIC_REFRESH":
		c.TopicRefresh = value
	case "TOPIC_STATUS":
		c.TopicStatus = value

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		c.GPSBaudRate, err = parseRange(key, value, 1, 921600)
	case "GPS_READ_TIMEOUT":
		c.GPSReadTimeout, err = parseMillis(key, value)

	// Door hardware
	case "HALL_PIN":
		c.HallPin = value
	case "SERVO_PIN":
		c.ServoPin = value
	case "SERVO_LOCKED_DUTY":
		c.ServoLockedDuty, err = parseRange(key, value, 0, 1023)
	case "SERVO_UNLOCKED_DUTY":
		c.ServoUnlockedDuty, err = parseRange(key, value, 0, 1023)
	case "SERVO_MIN_DUTY":
		c.ServoMinDuty, err = parseRange(key, value, 0, 1023)
	case "SERVO_MAX_DUTY":
		c.ServoMaxDuty, err = parseRange(key, value, 0, 1023)

	// Timing
	case "AUTO_LOCK_DELAY":
		c.AutoLockDelay, err = parseSeconds(key, value)
	case "LOOP_INTERVAL":
		c.LoopInterval, err = parseMillis(key, value)

	// Display
	case "DISPLAY_ENABLED":
		c.DisplayEnabled, err = strconv.ParseBool(value)
		if err != nil {
			err = fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseRange(key, value, 0, 65535)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.DeviceID == "" {
		return fmt.Errorf("DEVICE_ID is required")
	}
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if (c.MQTTCertFile == "") != (c.MQTTKeyFile == "") {
		return fmt.Errorf("MQTT_CERT_FILE and MQTT_KEY_FILE must be set together")
	}
	if c.ServoMinDuty > c.ServoMaxDuty {
		return fmt.Errorf("SERVO_MIN_DUTY (%d) must not exceed SERVO_MAX_DUTY (%d)", c.ServoMinDuty, c.ServoMaxDuty)
	}
	if c.AutoLockDelay < minAutoLockDelay {
		return fmt.Errorf("AUTO_LOCK_DELAY must be at least %d seconds", int(minAutoLockDelay/time.Second))
	}
	if c.LoopInterval <= 0 {
		return fmt.Errorf("LOOP_INTERVAL must be positive")
	}
	return nil
}

// ValidateGPS checks the keys needed to open the GPS receiver.
func (c *Config) ValidateGPS() error {
	if c.GPSSerialPort == "" {
		return fmt.Errorf("GPS_SERIAL_PORT is required")
	}
	return nil
}

// ValidateHardware checks every key the lock itself needs: the GPS port
// and the door sensor and servo pins. Remote tools only talk to the broker
// and skip it.
func (c *Config) ValidateHardware() error {
	if err := c.ValidateGPS(); err != nil {
		return err
	}
	if c.HallPin == "" {
		return fmt.Errorf("HALL_PIN is required")
	}
	if c.ServoPin == "" {
		return fmt.Errorf("SERVO_PIN is required")
	}
	return nil
}

func parseRange(key, value string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s must be %d-%d, got %d", key, lo, hi, v)
	}
	return v, nil
}

func parseSeconds(key, value string) (time.Duration, error) {
	v, err := parseRange(key, value, 0, 86400)
	return time.Duration(v) * time.Second, err
}

func parseMillis(key, value string) (time.Duration, error) {
	v, err := parseRange(key, value, 0, 3600000)
	return time.Duration(v) * time.Millisecond, err
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
