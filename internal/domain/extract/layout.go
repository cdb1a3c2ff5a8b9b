package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// LayoutMethod shells out to poppler's pdftotext in -layout mode, which keeps
// statement columns aligned on each line.
type LayoutMethod struct {
	binary string
}

// NewLayoutMethod uses binary, or "pdftotext" from PATH when empty.
func NewLayoutMethod(binary string) *LayoutMethod {
	if binary == "" {
		binary = "pdftotext"
	}
	return &LayoutMethod{binary: binary}
}

func (m *LayoutMethod) Name() string { return "layout" }

func (m *LayoutMethod) Extract(ctx context.Context, path string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, m.binary, "-layout", "-enc", "UTF-8", path, "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return joinPages(strings.Split(stdout.String(), "\f")), nil
}

// joinPages drops blank pages and joins the rest with a newline.
func joinPages(pages []string) string {
	kept := make([]string, 0, len(pages))
	for _, p := range pages {
		if strings.TrimSpace(p) == "" {
			continue
		}
		kept = append(kept, strings.TrimRight(p, "\n"))
	}
	return strings.Join(kept, "\n")
}
