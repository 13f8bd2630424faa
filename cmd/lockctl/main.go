// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/relabs-tech/smartlock/internal/app"
	"github.com/relabs-tech/smartlock/internal/config"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("lockctl", pflag.ExitOnError)
	configPath := flags.StringP("config", "c", "smartlock_config.txt", "path to the KEY=VALUE config file")
	deviceID := flags.String("id", "", "target device id (defaults to DEVICE_ID from the config)")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: lockctl [flags] unlock|refresh\n\n")
		flags.PrintDefaults()
	}
	flags.Parse(os.Args[1:])

	if flags.NArg() != 1 {
		flags.Usage()
		os.Exit(2)
	}

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	var topic string
	switch flags.Arg(0) {
	case "unlock":
		topic = cfg.TopicUnlock
	case "refresh":
		topic = cfg.TopicRefresh
	default:
		flags.Usage()
		os.Exit(2)
	}

	id := *deviceID
	if id == "" {
		id = cfg.DeviceID
	}

	if err := app.SendCommand(cfg, topic, id); err != nil {
		log.Fatalf("fatal: %v", err)
	}
	log.Printf("sent %s to %s", flags.Arg(0), id)
}
