package app

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/smartlock/internal/broker"
	"github.com/relabs-tech/smartlock/internal/config"
	"github.com/relabs-tech/smartlock/internal/device"
)

// dialConsole connects a short-lived tool session with its own client id so
// it does not kick the device off the broker.
func dialConsole(cfg *config.Config, suffix string) (*broker.Session, error) {
	var tlsConfig *tls.Config
	if cfg.MQTTCertFile != "" {
		var err error
		tlsConfig, err = broker.LoadTLSConfig(cfg.MQTTCertFile, cfg.MQTTKeyFile, cfg.MQTTCAFile)
		if err != nil {
			return nil, err
		}
	}
	return broker.Connect(broker.Options{
		Broker:    cfg.MQTTBroker,
		ClientID:  cfg.MQTTClientID + "-" + suffix,
		KeepAlive: cfg.MQTTKeepAlive,
		TLS:       tlsConfig,
		InboxSize: cfg.MQTTInboxSize,
	})
}

// RunConsoleMQTT prints every state published on the status topic until
// Ctrl+C.
func RunConsoleMQTT(cfg *config.Config) error {
	session, err := dialConsole(cfg, "console")
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.Subscribe(cfg.TopicStatus); err != nil {
		return err
	}
	log.Printf("console: subscribed to %s", cfg.TopicStatus)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("console: shutting down")
			return nil
		case msg := <-session.Inbox():
			var s device.Snapshot
			if err := json.Unmarshal(msg.Payload, &s); err != nil {
				log.Printf("console: state unmarshal error: %v", err)
				continue
			}
			fmt.Println(FormatSnapshot(s))
		}
	}
}

// FormatSnapshot renders a published state on one line.
func FormatSnapshot(s device.Snapshot) string {
	return fmt.Sprintf(
		"[LOCK] id=%s locked=%t lat=%.6f lng=%.6f updated=%s last_closed=%s batt=%s",
		s.ID, s.Locked, s.Lat, s.Lng, formatEpoch(s.UpdatedAt), formatEpoch(s.LastClosed), s.BatteryPercentage,
	)
}

func formatEpoch(sec int64) string {
	if sec == 0 {
		return "-"
	}
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}

// SendCommand publishes a command for deviceID on topic.
func SendCommand(cfg *config.Config, topic, deviceID string) error {
	payload, err := json.Marshal(map[string]string{"id": deviceID})
	if err != nil {
		return err
	}

	session, err := dialConsole(cfg, "ctl")
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.Publish(topic, payload); err != nil {
		return err
	}
	log.Printf("lockctl: sent %s to %s", payload, topic)
	return nil
}
