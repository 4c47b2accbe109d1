package logger

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Diagnostics receives the human readable dumps of a stage running in verbose mode.
// It is handed to the stage by its owner, a stage never writes to a process-wide stream.
type Diagnostics struct {
	log     zerolog.Logger
	enabled bool
}

func NewDiagnostics(w io.Writer, component string) Diagnostics {
	out := zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.RFC3339}
	return Diagnostics{
		log:     zerolog.New(out).With().Timestamp().Str("component", component).Logger(),
		enabled: true,
	}
}

func NoDiagnostics() Diagnostics {
	return Diagnostics{log: zerolog.Nop()}
}

func (d Diagnostics) Enabled() bool {
	return d.enabled
}

func (d Diagnostics) Print(msg string, fields map[string]interface{}) {
	if !d.enabled {
		return
	}
	d.log.Info().Fields(fields).Msg(msg)
}

// Start logs msg and returns a function logging the elapsed time once the work is done.
func (d Diagnostics) Start(msg string) func() {
	if !d.enabled {
		return func() {}
	}
	d.log.Info().Msg(msg)
	started := time.Now()
	return func() {
		d.log.Info().Dur("elapsed", time.Since(started)).Msg("done.")
	}
}
