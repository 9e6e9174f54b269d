// Package console implements the command line shown in the studio footer.
package console

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Gaurav-Gosain/livepane/internal/preview"
	"github.com/Gaurav-Gosain/livepane/internal/window"
)

// Line kinds, used by the renderer to pick a color.
const (
	KindPlain   = "plain"
	KindEcho    = "echo"
	KindSuccess = "success"
	KindError   = "error"
)

// Line is one line of console output.
type Line struct {
	Kind string
	Text string
}

// PanelEvent is a window event the console wants the host to apply.
type PanelEvent struct {
	Panel window.Kind
	Event window.Event
}

// Env is what commands can see and do. The host builds one per command.
type Env struct {
	Buffers   preview.Buffers
	ExportDir string
	Now       func() time.Time
	// Viewport is used to pick detach positions.
	Width, Height int
	Offsets       map[window.Kind]window.Offset
	States        map[window.Kind]window.State
}

// Result is what a command produced.
type Result struct {
	Lines  []Line
	Clear  bool
	Events []PanelEvent
	// Log is set by the log command; the host writes it to its logger.
	Log map[string]string
}

// Handler runs one command.
type Handler func(env Env, args []string) Result

type command struct {
	name    string
	summary string
	run     Handler
}

// Console holds the scrollback and the command table.
type Console struct {
	lines    []Line
	max      int
	commands map[string]command
	input    string
}

// New returns a console with the built-in commands and a greeting.
func New(maxLines int) *Console {
	if maxLines <= 0 {
		maxLines = 200
	}
	c := &Console{
		max:      maxLines,
		commands: make(map[string]command),
	}
	c.registerBuiltins()
	c.push(Line{Kind: KindEcho, Text: "> Type 'help' to get started."})
	return c
}

// Register adds or replaces a command.
func (c *Console) Register(name, summary string, run Handler) {
	c.commands[name] = command{name: name, summary: summary, run: run}
}

// Names returns the registered command names, sorted.
func (c *Console) Names() []string {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Lines returns the scrollback.
func (c *Console) Lines() []Line {
	return c.lines
}

// Input returns the line being typed.
func (c *Console) Input() string {
	return c.input
}

// Type appends text to the input line.
func (c *Console) Type(s string) {
	c.input += s
}

// Backspace removes the last rune of the input line.
func (c *Console) Backspace() {
	if c.input == "" {
		return
	}
	r := []rune(c.input)
	c.input = string(r[:len(r)-1])
}

// Submit runs the typed line and clears the input.
func (c *Console) Submit(env Env) Result {
	line := c.input
	c.input = ""
	return c.Run(env, line)
}

// Run echoes line into the scrollback and executes it.
func (c *Console) Run(env Env, line string) Result {
	c.push(Line{Kind: KindEcho, Text: "> " + line})

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Result{}
	}

	cmd, ok := c.commands[fields[0]]
	if !ok {
		res := Result{Lines: []Line{{Kind: KindError, Text: "Unknown command: " + strings.TrimSpace(line)}}}
		c.push(res.Lines...)
		return res
	}

	if env.Now == nil {
		env.Now = time.Now
	}
	res := cmd.run(env, fields[1:])
	if res.Clear {
		c.lines = nil
	}
	c.push(res.Lines...)
	return res
}

func (c *Console) push(lines ...Line) {
	c.lines = append(c.lines, lines...)
	if over := len(c.lines) - c.max; over > 0 {
		c.lines = slices.Delete(c.lines, 0, over)
	}
}

func (c *Console) registerBuiltins() {
	c.Register("help", "list commands", func(Env, []string) Result {
		return Result{Lines: []Line{{Text: "Available commands: " + strings.Join(c.Names(), ", ")}}}
	})
	c.Register("clear", "clear the console", func(Env, []string) Result {
		return Result{Clear: true}
	})
	c.Register("time", "print the local time", func(env Env, _ []string) Result {
		return Result{Lines: []Line{{Text: "> " + env.Now().Format(time.Kitchen)}}}
	})
	c.Register("log", "write the buffers to the log", func(env Env, _ []string) Result {
		return Result{
			Lines: []Line{{Text: "HTML, CSS, JS states logged."}},
			Log: map[string]string{
				"html": env.Buffers.Markup,
				"css":  env.Buffers.Style,
				"js":   env.Buffers.Script,
			},
		}
	})
	for _, k := range preview.Kinds {
		c.Register("save-"+k.String(), "export "+k.ExportName(), saveHandler(k))
	}
	c.Register("minimize", "minimize <preview|editor>", panelHandler(func(Env, window.Kind, window.State) (window.Event, string) {
		return window.MinimizeToggled{}, "toggled"
	}))
	c.Register("detach", "detach <preview|editor>", panelHandler(func(env Env, k window.Kind, s window.State) (window.Event, string) {
		if s.Detached {
			return nil, "already detached"
		}
		offset, ok := env.Offsets[k]
		if !ok {
			offset = window.DefaultOffsets[k]
		}
		p := window.DetachPoint(offset, env.Width, env.Height)
		return window.DetachRequested{Position: p}, "detached at " + p.String()
	}))
	c.Register("restore", "restore <preview|editor>", panelHandler(func(Env, window.Kind, window.State) (window.Event, string) {
		return window.RestoreRequested{}, "restored"
	}))
}

func saveHandler(k preview.Kind) Handler {
	return func(env Env, _ []string) Result {
		dir := env.ExportDir
		if dir == "" {
			dir = "."
		}
		path, err := preview.ExportFile(dir, env.Buffers, k)
		if err != nil {
			return Result{Lines: []Line{{Kind: KindError, Text: err.Error()}}}
		}
		text := fmt.Sprintf("✅ %s saved as %s", strings.ToUpper(k.String()), path)
		return Result{Lines: []Line{{Kind: KindSuccess, Text: text}}}
	}
}

func panelHandler(fn func(Env, window.Kind, window.State) (window.Event, string)) Handler {
	return func(env Env, args []string) Result {
		if len(args) != 1 {
			return Result{Lines: []Line{{Kind: KindError, Text: "usage: <command> <preview|editor>"}}}
		}
		k, err := window.ParseKind(args[0])
		if err != nil {
			return Result{Lines: []Line{{Kind: KindError, Text: err.Error()}}}
		}
		ev, msg := fn(env, k, env.States[k])
		res := Result{Lines: []Line{{Text: k.Title() + ": " + msg}}}
		if ev != nil {
			res.Events = []PanelEvent{{Panel: k, Event: ev}}
		}
		return res
	}
}
