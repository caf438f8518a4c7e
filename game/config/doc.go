// Package config provides runtime settings for the Looney Race.
//
// Settings cover how the program runs, never how a race is played: the
// board rules are constants in the engine package. The command line fills
// Settings from flags and environment variables (a .env file is loaded
// first), then calls Validate.
//
// Usage:
//
//	settings := config.Default()
//	settings.Port = 9090
//	if err := settings.Validate(); err != nil {
//		log.Fatal(err)
//	}
//	sessions := session.NewManager(session.WithRaceOptions(settings.RaceOptions()...))
package config
