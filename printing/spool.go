package printing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Sink receives rendered tickets for a printer.
type Sink interface {
	Print(ctx context.Context, printer Printer, t Ticket) error
}

// SpoolSink writes one PDF per ticket into <dir>/<printer>/ for a print daemon to pick up.
type SpoolSink struct {
	Dir string
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func slug(s string) string {
	s = unsafeChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "ticket"
	}
	return s
}

func (s *SpoolSink) Print(ctx context.Context, printer Printer, t Ticket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := RenderPDF(t, printer.PaperWidth)
	if err != nil {
		return err
	}

	dir := filepath.Join(s.Dir, slug(printer.Name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create spool dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s.pdf", time.Now().Format("20060102-150405.000000"), slug(t.Title))
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to spool ticket: %w", err)
	}
	return nil
}
