package config

import (
	"errors"
	"testing"
	"time"

	"github.com/wricardo/looney-race/game/engine"
)

func TestDefault(t *testing.T) {
	s := Default()

	if s.Host != DefaultHost {
		t.Errorf("Expected host %s, got %s", DefaultHost, s.Host)
	}
	if s.Port != DefaultPort {
		t.Errorf("Expected port %d, got %d", DefaultPort, s.Port)
	}
	if s.Delay != engine.DefaultDelay {
		t.Errorf("Expected delay %s, got %s", engine.DefaultDelay, s.Delay)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Expected default settings to be valid, got %v", err)
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Settings)
		wantErr error
	}{
		{"Valid", func(s *Settings) {}, nil},
		{"Zero delay", func(s *Settings) { s.Delay = 0 }, nil},
		{"Random port", func(s *Settings) { s.Port = 0 }, nil},
		{"IPv6 host", func(s *Settings) { s.Host = "::1" }, nil},
		{"IPv4 host", func(s *Settings) { s.Host = "0.0.0.0" }, nil},
		{"Negative port", func(s *Settings) { s.Port = -1 }, ErrInvalidPort},
		{"Port too large", func(s *Settings) { s.Port = 70000 }, ErrInvalidPort},
		{"Negative delay", func(s *Settings) { s.Delay = -time.Millisecond }, ErrInvalidDelay},
		{"Delay too long", func(s *Settings) { s.Delay = MaxDelay + time.Second }, ErrInvalidDelay},
		{"Empty host", func(s *Settings) { s.Host = " " }, ErrInvalidHost},
		{"Host with path", func(s *Settings) { s.Host = "localhost/api" }, ErrInvalidHost},
		{"Host with port", func(s *Settings) { s.Host = "localhost:80" }, ErrInvalidHost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.modify(&s)

			err := s.Validate()
			if tt.wantErr == nil && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	t.Run("Negative cleanup", func(t *testing.T) {
		s := Default()
		s.RetainFinished = -time.Second
		if err := s.Validate(); err == nil {
			t.Error("Expected error for negative retention")
		}
	})
}

func TestSettings_Addr(t *testing.T) {
	tests := []struct {
		host     string
		port     int
		expected string
	}{
		{"localhost", 8080, "localhost:8080"},
		{"0.0.0.0", 9090, "0.0.0.0:9090"},
		{"::1", 8080, "[::1]:8080"},
	}

	for _, tt := range tests {
		s := Settings{Host: tt.host, Port: tt.port}
		if got := s.Addr(); got != tt.expected {
			t.Errorf("Expected %s, got %s", tt.expected, got)
		}
	}

	if got := Default().BaseURL(); got != "http://localhost:8080" {
		t.Errorf("Expected http://localhost:8080, got %s", got)
	}
}

func TestSettings_RaceOptions(t *testing.T) {
	s := Default()
	s.Delay = 0

	rules := engine.DefaultRules()
	rules.MaxSteps = 10
	race, err := engine.NewRace(rules, s.RaceOptions()...)
	if err != nil {
		t.Fatalf("NewRace failed: %v", err)
	}

	done := make(chan engine.Result, 1)
	go func() {
		result, _ := race.Run()
		done <- result
	}()

	select {
	case result := <-done:
		if result.Reason == engine.ReasonNone {
			t.Error("Expected race to finish with a reason")
		}
	case <-time.After(5 * time.Second):
		race.Stop()
		t.Fatal("Zero-delay race did not finish")
	}
}
