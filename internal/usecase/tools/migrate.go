package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/archpilot/archpilot/internal/domain"
)

// MigrateScan runs a migrate-ease language scanner over a source tree and
// returns its parsed JSON report.
type MigrateScan struct {
	runner    execRunner
	workspace string
	scanners  map[string]bool
	names     []string
	outDir    string
}

// NewMigrateScan creates the migrate_ease_scan tool. scanners is the allowed
// scanner set; each maps to a migrate-ease-<scanner> executable.
func NewMigrateScan(runner execRunner, workspace string, scanners []string) *MigrateScan {
	allowed := make(map[string]bool, len(scanners))
	for _, s := range scanners {
		allowed[s] = true
	}
	return &MigrateScan{
		runner:    runner,
		workspace: workspace,
		scanners:  allowed,
		names:     scanners,
		outDir:    os.TempDir(),
	}
}

func (t *MigrateScan) Name() string { return "migrate_ease_scan" }

func (t *MigrateScan) Description() string {
	return "Scan a source tree with migrate-ease for Arm migration issues and return the JSON report."
}

type migrateArgs struct {
	Scanner          string `json:"scanner"`
	Path             string `json:"path,omitempty"`
	InvocationReason string `json:"invocation_reason,omitempty"`
}

type migrateResponse struct {
	Status  string         `json:"status"`
	Code    int            `json:"code"`
	Cmd     []string       `json:"cmd"`
	Stdout  string         `json:"stdout"`
	Stderr  string         `json:"stderr"`
	Results map[string]any `json:"results,omitempty"`
}

// Run validates the scanner name and target path, executes the scanner with a
// temporary JSON report file, and inlines the parsed report.
func (t *MigrateScan) Run(ctx context.Context, raw json.RawMessage) (any, error) {
	var args migrateArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	if !t.scanners[args.Scanner] {
		return nil, fmt.Errorf("%w: unknown scanner %q, expected one of %s",
			domain.ErrInvalidArgument, args.Scanner, strings.Join(t.names, ", "))
	}

	target := t.workspace
	if strings.TrimSpace(args.Path) != "" {
		p := args.Path
		if !filepath.IsAbs(p) {
			p = filepath.Join(t.workspace, p)
		}
		p = filepath.Clean(p)
		root := filepath.Clean(t.workspace)
		if p != root && !strings.HasPrefix(p, root+string(filepath.Separator)) {
			return nil, fmt.Errorf("%w: path escapes the workspace", domain.ErrInvalidArgument)
		}
		target = p
	}
	if info, err := os.Stat(target); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: scan target is not a directory", domain.ErrInvalidArgument)
	}

	reportPath := filepath.Join(t.outDir,
		fmt.Sprintf("migrate_ease_%s_%d.json", args.Scanner, time.Now().UnixNano()))
	defer os.Remove(reportPath)

	out := t.runner.Run(ctx, "migrate-ease-"+args.Scanner,
		"--march", "armv8-a", "--output", reportPath, target)

	resp := migrateResponse{
		Status: out.Status,
		Code:   out.Code,
		Cmd:    out.Cmd,
		Stdout: out.Stdout,
		Stderr: out.Stderr,
	}

	if data, err := os.ReadFile(reportPath); err == nil {
		var parsed map[string]any
		if jsonErr := json.Unmarshal(data, &parsed); jsonErr == nil {
			resp.Results = parsed
		} else {
			resp.Stderr += "\nreport is not valid JSON: " + jsonErr.Error()
		}
	}

	return resp, nil
}
