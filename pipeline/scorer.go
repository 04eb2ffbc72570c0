package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// prepareScorer makes the scorer script executable and returns a child
// environment whose PATH resolves it. The launcher's own environment is
// never touched; the adjusted PATH travels with each dispatched step.
func prepareScorer(scorer string) ([]string, error) {
	info, err := os.Stat(scorer)
	if err != nil {
		return nil, fmt.Errorf("scorer script %s: %w", scorer, err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("scorer script %s is a directory", scorer)
	}

	if err := os.Chmod(scorer, 0o755); err != nil {
		return nil, fmt.Errorf("failed to make scorer executable: %w", err)
	}

	dir, err := filepath.Abs(filepath.Dir(scorer))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scorer directory: %w", err)
	}

	return withPathPrefix(os.Environ(), dir), nil
}

// withPathPrefix returns a copy of env with dir prepended to its PATH
// entry, adding one if none exists
func withPathPrefix(env []string, dir string) []string {
	out := make([]string, 0, len(env)+1)
	found := false

	for _, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			out = append(out, "PATH="+dir+string(os.PathListSeparator)+strings.TrimPrefix(kv, "PATH="))
			found = true

			continue
		}

		out = append(out, kv)
	}

	if !found {
		out = append(out, "PATH="+dir)
	}

	return out
}
