package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/wricardo/looney-race/game/engine"
)

var (
	ErrInvalidPort  = errors.New("invalid port")
	ErrInvalidDelay = errors.New("invalid delay")
	ErrInvalidHost  = errors.New("invalid host")
)

// Defaults
const (
	DefaultHost            = "localhost"
	DefaultPort            = 8080
	DefaultCleanupInterval = time.Hour
	DefaultRetainFinished  = 24 * time.Hour

	MaxDelay = 5 * time.Second
)

// Settings holds the runtime settings of the program. Race rules are not
// configurable; only how fast races are paced and where they are served.
type Settings struct {
	Host  string
	Port  int
	Delay time.Duration
	Debug bool

	// Finished races are forgotten after RetainFinished, checked every
	// CleanupInterval
	CleanupInterval time.Duration
	RetainFinished  time.Duration

	NgrokEnabled   bool
	NgrokAuthToken string
	NgrokDomain    string
}

// Default returns the settings used when nothing is overridden
func Default() Settings {
	return Settings{
		Host:            DefaultHost,
		Port:            DefaultPort,
		Delay:           engine.DefaultDelay,
		CleanupInterval: DefaultCleanupInterval,
		RetainFinished:  DefaultRetainFinished,
	}
}

// Validate checks the settings
func (s Settings) Validate() error {
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("%w: must be between 0 and 65535, got %d", ErrInvalidPort, s.Port)
	}
	if s.Delay < 0 || s.Delay > MaxDelay {
		return fmt.Errorf("%w: must be between 0 and %s, got %s", ErrInvalidDelay, MaxDelay, s.Delay)
	}
	if strings.TrimSpace(s.Host) == "" || (strings.ContainsAny(s.Host, " /:") && net.ParseIP(s.Host) == nil) {
		return fmt.Errorf("%w: %q", ErrInvalidHost, s.Host)
	}
	if s.CleanupInterval < 0 || s.RetainFinished < 0 {
		return fmt.Errorf("cleanup durations cannot be negative")
	}
	return nil
}

// Addr returns the listen address
func (s Settings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// BaseURL returns the HTTP URL of the API on Addr
func (s Settings) BaseURL() string {
	return "http://" + s.Addr()
}

// RaceOptions returns the engine options these settings imply
func (s Settings) RaceOptions() []engine.Option {
	return []engine.Option{engine.WithDelay(s.Delay)}
}
