package playbacksvc

import "time"

// PlaybackConfig contains configuration parameters for the playback toggle.
type PlaybackConfig struct {
	// Command is the executable that injects the media key
	Command string `env:"COMMAND" default:"xdotool"`

	// Args are the whitespace separated arguments passed to Command
	Args string `env:"ARGS" default:"key XF86AudioPlay"`

	// Timeout bounds a single invocation
	Timeout time.Duration `env:"TIMEOUT" default:"5s"`
}
