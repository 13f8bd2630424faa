package main

import (
	"log"
	"os"

	"github.com/relabs-tech/smartlock/internal/app"
	"github.com/relabs-tech/smartlock/internal/config"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("console_mqtt", pflag.ExitOnError)
	configPath := flags.StringP("config", "c", "smartlock_config.txt", "path to the KEY=VALUE config file")
	flags.Parse(os.Args[1:])

	log.Println("starting smartlock console (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsoleMQTT(config.Get()); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
