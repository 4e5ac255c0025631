// Package console renders log entries as colored human-readable lines.
package console

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap/zapcore"
)

const timeLayout = "2006-01-02 15:04:05"

// multiline fields printed below the message instead of inline.
var multilineKeys = map[string]bool{
	"errorVerbose": true,
	"stack":        true,
}

type styles struct {
	levels map[zapcore.Level]lipgloss.Style
	time   lipgloss.Style
	name   lipgloss.Style
	key    lipgloss.Style
	dump   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		levels: map[zapcore.Level]lipgloss.Style{
			zapcore.DebugLevel: r.NewStyle().Foreground(lipgloss.Color("245")),
			zapcore.InfoLevel:  r.NewStyle().Foreground(lipgloss.Color("42")),
			zapcore.WarnLevel:  r.NewStyle().Foreground(lipgloss.Color("214")),
			zapcore.ErrorLevel: r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		},
		time: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}),
		name: r.NewStyle().Foreground(lipgloss.Color("205")),
		key:  r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}),
		dump: r.NewStyle().Foreground(lipgloss.Color("196")).PaddingLeft(4),
	}
}

func (s styles) level(l zapcore.Level) lipgloss.Style {
	if st, ok := s.levels[l]; ok {
		return st
	}
	// dpanic, panic, fatal
	return s.levels[zapcore.ErrorLevel]
}

// Core zapcore.Core writing colored lines to a terminal.
type Core struct {
	zapcore.LevelEnabler
	out    zapcore.WriteSyncer
	styles styles
	fields []zapcore.Field
	mu     *sync.Mutex
}

// NewCore creates a Core writing to out. Colors are enabled only when out is a terminal.
func NewCore(out io.Writer, enab zapcore.LevelEnabler) *Core {
	return &Core{
		LevelEnabler: enab,
		out:          zapcore.AddSync(out),
		styles:       newStyles(lipgloss.NewRenderer(out)),
		mu:           &sync.Mutex{},
	}
}

// With adds structured context to the Core.
func (c *Core) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = make([]zapcore.Field, 0, len(c.fields)+len(fields))
	clone.fields = append(clone.fields, c.fields...)
	clone.fields = append(clone.fields, fields...)

	return &clone
}

// Check adds the Core to the checked entry when the level is enabled.
func (c *Core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write renders the entry and writes it out.
func (c *Core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	line := c.render(ent, enc.Fields)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := io.WriteString(c.out, line); err != nil {
		return err
	}
	if ent.Level > zapcore.ErrorLevel {
		return c.out.Sync()
	}

	return nil
}

// Sync flushes the underlying writer.
func (c *Core) Sync() error {
	return c.out.Sync()
}

func (c *Core) render(ent zapcore.Entry, fields map[string]interface{}) string {
	var b strings.Builder

	b.WriteString(c.styles.time.Render(ent.Time.Format(timeLayout)))
	b.WriteByte(' ')
	b.WriteString(c.styles.level(ent.Level).Render(fmt.Sprintf("%-5s", ent.Level.CapitalString())))
	if ent.LoggerName != "" {
		b.WriteByte(' ')
		b.WriteString(c.styles.name.Render(ent.LoggerName))
	}
	b.WriteByte(' ')
	b.WriteString(c.styles.level(ent.Level).Render(ent.Message))

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var dumps []string
	for _, k := range keys {
		if multilineKeys[k] {
			dumps = append(dumps, fmt.Sprint(fields[k]))
			continue
		}
		b.WriteByte(' ')
		b.WriteString(c.styles.key.Render(k + "="))
		b.WriteString(formatValue(fields[k]))
	}
	b.WriteByte('\n')

	for _, dump := range dumps {
		b.WriteString(c.styles.dump.Render(dump))
		b.WriteByte('\n')
	}

	return b.String()
}

func formatValue(v interface{}) string {
	s := fmt.Sprint(v)
	if strings.ContainsAny(s, " \t\n\"") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
