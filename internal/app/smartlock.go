// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/smartlock/internal/broker"
	"github.com/relabs-tech/smartlock/internal/config"
	"github.com/relabs-tech/smartlock/internal/device"
	"github.com/relabs-tech/smartlock/internal/gateway"
	"github.com/relabs-tech/smartlock/internal/gps"
	"github.com/relabs-tech/smartlock/internal/lock"
	"github.com/relabs-tech/smartlock/internal/sensors"
)

// RunSmartlock brings up the hardware and the broker session and runs the
// control loop until SIGINT or SIGTERM.
func RunSmartlock(cfg *config.Config) error {
	if err := cfg.ValidateHardware(); err != nil {
		return err
	}
	st := device.NewState(cfg.DeviceID)

	// ---- 1) Sinks ----
	sinks := []Sink{LogSink{}}
	if cfg.DisplayEnabled {
		display, err := OpenDisplay(cfg.DisplayI2CBus)
		if err != nil {
			log.Printf("display: disabled: %v", err)
		} else {
			defer display.Close()
			sinks = append(sinks, display)
		}
	}
	if cfg.WebServerPort > 0 {
		hub := NewStatusHub()
		ServeStatus(fmt.Sprintf(":%d", cfg.WebServerPort), hub)
		sinks = append(sinks, hub)
	}

	// ---- 2) Door hardware ----
	hall, err := sensors.OpenHallSensor(cfg.HallPin)
	if err != nil {
		return err
	}
	servo, err := sensors.OpenServo(cfg.ServoPin, sensors.ServoOpts{
		MinDuty:      cfg.ServoMinDuty,
		MaxDuty:      cfg.ServoMaxDuty,
		LockedDuty:   cfg.ServoLockedDuty,
		UnlockedDuty: cfg.ServoUnlockedDuty,
	})
	if err != nil {
		return err
	}

	// ---- 3) GPS ----
	port, err := gps.OpenSerial(cfg.GPSSerialPort, cfg.GPSBaudRate, cfg.GPSReadTimeout)
	if err != nil {
		return err
	}
	defer port.Close()
	if err := port.Configure(gps.DefaultCommands...); err != nil {
		log.Printf("gps: receiver setup failed, using its defaults: %v", err)
	}

	// ---- 4) Broker session ----
	var tlsConfig *tls.Config
	if cfg.MQTTCertFile != "" {
		tlsConfig, err = broker.LoadTLSConfig(cfg.MQTTCertFile, cfg.MQTTKeyFile, cfg.MQTTCAFile)
		if err != nil {
			return err
		}
	}
	session, err := broker.Connect(broker.Options{
		Broker:               cfg.MQTTBroker,
		ClientID:             cfg.MQTTClientID,
		KeepAlive:            cfg.MQTTKeepAlive,
		TLS:                  tlsConfig,
		MaxReconnectInterval: cfg.MQTTReconnectMaxInterval,
		InboxSize:            cfg.MQTTInboxSize,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	// ---- 5) Gateway and controller ----
	gw := NewGateway(cfg, session, st, servo)
	for _, topic := range []string{cfg.TopicUnlock, cfg.TopicRefresh} {
		if err := gw.Subscribe(topic); err != nil {
			return err
		}
	}
	if err := gw.PublishState(); err != nil {
		log.Printf("gateway: initial publish failed: %v", err)
	}

	publish := func(snap device.Snapshot) error {
		return gw.Publish(cfg.TopicStatus, snap)
	}
	ctrl := lock.NewController(hall, servo, publish, cfg.AutoLockDelay)

	// ---- 6) Loop ----
	sup := NewSupervisor(st, gps.NewFixReader(port), ctrl, gw, cfg.LoopInterval, sinks...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("smartlock: %s running, loop every %s", cfg.DeviceID, cfg.LoopInterval)
	if err := sup.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Println("smartlock: shutting down")
	return nil
}

// NewGateway returns a gateway with the unlock and refresh handlers
// registered on the configured topics.
func NewGateway(cfg *config.Config, t gateway.Transport, st *device.State, bolt gateway.Unlocker) *gateway.Gateway {
	gw := gateway.New(t, st, cfg.TopicStatus)
	gw.Handle(cfg.TopicUnlock, gateway.UnlockHandler(bolt))
	gw.Handle(cfg.TopicRefresh, gateway.RefreshHandler())
	return gw
}
