package app

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/smartlock/internal/config"
	"github.com/relabs-tech/smartlock/internal/device"
	"github.com/relabs-tech/smartlock/internal/gps"
)

// RunGPSProbe opens the GPS serial port and logs the clock and position it
// would feed the lock, without touching any other hardware.
func RunGPSProbe(cfg *config.Config) error {
	if err := cfg.ValidateGPS(); err != nil {
		return err
	}
	port, err := gps.OpenSerial(cfg.GPSSerialPort, cfg.GPSBaudRate, cfg.GPSReadTimeout)
	if err != nil {
		return err
	}
	defer port.Close()

	if err := port.Configure(gps.DefaultCommands...); err != nil {
		log.Printf("gps probe: receiver setup failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := device.NewState(cfg.DeviceID)
	sup := NewSupervisor(st, gps.NewFixReader(port), noopStage{}, noopStage{}, 100*time.Millisecond)
	if err := sup.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// noopStage stands in for loop stages the probe does not run.
type noopStage struct{}

func (noopStage) Evaluate(*device.State) error { return nil }
func (noopStage) CheckOneMessage() error       { return nil }
