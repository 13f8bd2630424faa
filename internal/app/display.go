package app

import (
	"fmt"
	"image"
	"log"
	"strings"

	"github.com/relabs-tech/smartlock/internal/sensors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

const (
	displayWidth  = 128
	displayHeight = 64
	lineHeight    = 12 // basicfont 7x13 glyphs fit with a 1px overlap
	displayLines  = displayHeight / lineHeight
	displayCols   = displayWidth / 7
)

// LogSink writes the rendered state to the standard logger.
type LogSink struct{}

// Render implements Sink.
func (LogSink) Render(text string) {
	log.Println(text)
}

// DisplaySink draws the rendered state on an SSD1306 OLED.
type DisplaySink struct {
	bus i2c.BusCloser
	dev *ssd1306.Dev
}

// OpenDisplay opens the OLED on the named I2C bus ("" for the first bus).
func OpenDisplay(busName string) (*DisplaySink, error) {
	if err := sensors.InitHost(); err != nil {
		return nil, err
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus: %w", err)
	}

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized on %s", bus)

	d := &DisplaySink{bus: bus, dev: dev}
	d.Render("Smartlock\nLooking for\nsats")
	return d, nil
}

// Render implements Sink. Drawing errors are logged, not returned.
func (d *DisplaySink) Render(text string) {
	img := renderText(text)
	if err := d.dev.Draw(d.dev.Bounds(), img, image.Point{}); err != nil {
		log.Printf("display: draw error: %v", err)
	}
}

// Close releases the I2C bus.
func (d *DisplaySink) Close() error {
	return d.bus.Close()
}

// renderText lays out as many lines as fit on the panel, truncating long
// lines. A "DeviceState:" header is dropped to leave room for values.
func renderText(text string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	for i, line := range displayText(text) {
		drawer.Dot = fixed.P(0, (i+1)*lineHeight)
		drawer.DrawString(line)
	}
	return img
}

func displayText(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > 1 && strings.HasSuffix(lines[0], ":") {
		lines = lines[1:]
	}

	var out []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > displayCols {
			line = line[:displayCols]
		}
		out = append(out, line)
		if len(out) == displayLines {
			break
		}
	}
	return out
}
