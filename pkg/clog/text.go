package clog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// TextHandler is a human-oriented colored handler for local development.
// Production environments use slog.NewJSONHandler instead.
type TextHandler struct {
	cfg   TextHandlerConfig
	attrs []slog.Attr
	mu    *sync.Mutex
	w     io.Writer
}

type TextHandlerConfig struct {
	Color bool
	Level *slog.Level
}

type TextHandlerOption func(*TextHandlerConfig)

func WithColor(c bool) TextHandlerOption {
	return func(cfg *TextHandlerConfig) {
		cfg.Color = c
	}
}

func WithLevel(level slog.Level) TextHandlerOption {
	return func(cfg *TextHandlerConfig) {
		cfg.Level = &level
	}
}

func NewTextHandler(w io.Writer, opts ...TextHandlerOption) *TextHandler {
	cfg := TextHandlerConfig{
		Color: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &TextHandler{
		cfg: cfg,
		mu:  &sync.Mutex{},
		w:   w,
	}
}

func (h *TextHandler) Enabled(_ context.Context, l slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.cfg.Level != nil {
		minLevel = h.cfg.Level.Level()
	}
	return l >= minLevel
}

func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(nh.attrs, h.attrs)
	nh.attrs = append(nh.attrs, attrs...)
	return &nh
}

func (h *TextHandler) WithGroup(name string) slog.Handler {
	// Groups are flattened; this handler is for local eyeballs only.
	return h
}

func (h *TextHandler) Handle(ctx context.Context, record slog.Record) error {
	levelColor := color.New()
	switch record.Level {
	case slog.LevelDebug:
		levelColor = color.New(color.FgCyan)
	case slog.LevelInfo:
		levelColor = color.New(color.FgBlue)
	case slog.LevelWarn:
		levelColor = color.New(color.FgYellow)
	case slog.LevelError:
		levelColor = color.New(color.FgRed)
	}
	if !h.cfg.Color {
		levelColor.DisableColor()
	}

	kv := map[string]string{}
	for _, attr := range h.attrs {
		kv[attr.Key] = attr.Value.String()
	}
	record.Attrs(func(attr slog.Attr) bool {
		kv[attr.Key] = attr.Value.String()
		return true
	})
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s", record.Time.Format(time.RFC3339), levelColor.Sprint(record.Level.String()), record.Message)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, kv[k])
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}
