package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/fmuoria/resume-parser/internal/models"
)

// extractDOC converts legacy Word documents with antiword
func (e *Extractor) extractDOC(ctx context.Context, doc models.SourceDocument) (string, error) {
	path, cleanup, err := materialize(doc, ".doc")
	if err != nil {
		return "", err
	}
	defer cleanup()

	out, err := e.runCommand(ctx, e.cfg.AntiwordPath, "-f", "-i", "1", path)
	if err != nil {
		return "", fmt.Errorf("antiword: %w", err)
	}
	return normalizeNewlines(string(out)), nil
}

// runCommand executes an external converter bounded by the command timeout.
// A non-zero exit status is returned as an error carrying stderr.
func (e *Extractor) runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cctx, cancel := context.WithTimeout(ctx, e.cfg.CommandTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(cctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(cctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s timed out after %s", name, e.cfg.CommandTimeout)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}

	return stdout.Bytes(), nil
}
