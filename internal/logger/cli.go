// Package logger contains the apex/log handler used by the jfs command.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
)

var bold = color.New(color.Bold)

var Strings = [...]string{
	log.DebugLevel: "DEBUG",
	log.InfoLevel:  " INFO",
	log.WarnLevel:  " WARN",
	log.ErrorLevel: "ERROR",
	log.FatalLevel: "FATAL",
}

// Handler prints one line per entry followed by its fields.
// Errors carrying checkpoints are printed below the line, one checkpoint per line.
type Handler struct {
	mu      sync.Mutex
	Writer  io.Writer
	Padding int
}

// New returns a handler writing to w. Colors are only used if w is a
// terminal and useColors is set.
func New(w io.Writer, useColors bool) *Handler {
	if f, ok := w.(*os.File); ok && useColors {
		return &Handler{Writer: colorable.NewColorable(f), Padding: 2}
	}
	return &Handler{Writer: colorable.NewNonColorable(w), Padding: 2}
}

// HandleLog implements log.Handler.
func (h *Handler) HandleLog(e *log.Entry) error {
	level := Strings[e.Level]
	names := e.Fields.Names()
	c := cli.Colors[e.Level]

	h.mu.Lock()
	defer h.mu.Unlock()

	c.Fprintf(h.Writer, "%s %-25s", bold.Sprintf("%*s:", h.Padding+len(level), level), e.Message)
	for _, name := range names {
		if name == "error" {
			continue
		}
		fmt.Fprintf(h.Writer, " %s=%v", c.Sprint(name), e.Fields.Get(name))
	}
	fmt.Fprintln(h.Writer)

	if err, ok := e.Fields.Get("error").(error); ok {
		fmt.Fprintf(h.Writer, "%s\n\n", err)
	}
	return nil
}

// Setup installs a handler on the global apex logger.
func Setup(w io.Writer, debug bool) {
	log.SetHandler(New(w, true))
	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}
