// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"
	"os"

	"github.com/relabs-tech/smartlock/internal/app"
	"github.com/relabs-tech/smartlock/internal/config"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("smartlock", pflag.ExitOnError)
	configPath := flags.StringP("config", "c", "smartlock_config.txt", "path to the KEY=VALUE config file")
	flags.Parse(os.Args[1:])

	log.Println("starting smartlock (GPS + door sensor + MQTT)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunSmartlock(config.Get()); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
