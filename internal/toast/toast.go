package toast

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Toaster surfaces short, transient messages to the user.
type Toaster interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}

// Console prints toasts as single lines on a terminal stream.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
}

func NewConsole(out io.Writer) *Console {
	c := &Console{out: out}
	if f, ok := out.(*os.File); ok {
		c.color = isatty.IsTerminal(f.Fd())
	}
	return c
}

func (c *Console) Success(msg string) { c.print(LevelSuccess, msg) }
func (c *Console) Error(msg string)   { c.print(LevelError, msg) }
func (c *Console) Info(msg string)    { c.print(LevelInfo, msg) }

func (c *Console) print(level Level, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.color {
		fmt.Fprintf(c.out, "[%s] %s\n", level, msg)
		return
	}
	code := "36"
	switch level {
	case LevelSuccess:
		code = "32"
	case LevelError:
		code = "31"
	}
	fmt.Fprintf(c.out, "\x1b[%sm●\x1b[0m %s\n", code, msg)
}

// Toast is one recorded message.
type Toast struct {
	Level   Level
	Message string
}

// Recorder keeps every toast in memory.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }
func (r *Recorder) Error(msg string)   { r.add(LevelError, msg) }
func (r *Recorder) Info(msg string)    { r.add(LevelInfo, msg) }

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, Toast{Level: level, Message: msg})
}

func (r *Recorder) All() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.toasts...)
}

// Count returns how many toasts of level were recorded.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.toasts {
		if t.Level == level {
			n++
		}
	}
	return n
}

// Discard drops every toast.
type Discard struct{}

func (Discard) Success(string) {}
func (Discard) Error(string)   {}
func (Discard) Info(string)    {}
