package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/archpilot/archpilot/internal/domain"
)

// MCA runs llvm-mca over an assembly file inside the workspace.
type MCA struct {
	runner    execRunner
	workspace string
}

// NewMCA creates the mca tool bound to a workspace directory. Input paths
// outside the workspace are rejected.
func NewMCA(runner execRunner, workspace string) *MCA {
	return &MCA{runner: runner, workspace: workspace}
}

func (t *MCA) Name() string { return "mca" }

func (t *MCA) Description() string {
	return "Run llvm-mca machine code analysis over an assembly file in the workspace."
}

type mcaArgs struct {
	InputPath        string   `json:"input_path"`
	ExtraArgs        []string `json:"extra_args,omitempty"`
	InvocationReason string   `json:"invocation_reason,omitempty"`
}

// Run resolves and validates the input path, then executes llvm-mca.
func (t *MCA) Run(ctx context.Context, raw json.RawMessage) (any, error) {
	var args mcaArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	path, err := t.resolve(args.InputPath)
	if err != nil {
		return nil, err
	}

	for _, a := range args.ExtraArgs {
		if strings.HasPrefix(a, "-o") || strings.HasPrefix(a, "--output") {
			return nil, fmt.Errorf("%w: output redirection flags are not allowed", domain.ErrInvalidArgument)
		}
	}

	cmdArgs := append(args.ExtraArgs, path)
	return t.runner.Run(ctx, "llvm-mca", cmdArgs...), nil
}

// resolve confines the input path to the workspace and requires a regular
// assembly file.
func (t *MCA) resolve(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: input_path is required", domain.ErrInvalidArgument)
	}

	path := input
	if !filepath.IsAbs(path) {
		path = filepath.Join(t.workspace, path)
	}
	path = filepath.Clean(path)

	root := filepath.Clean(t.workspace)
	if path != root && !strings.HasPrefix(path, root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: input_path escapes the workspace", domain.ErrInvalidArgument)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".s", ".asm":
	default:
		return "", fmt.Errorf("%w: input_path must be an assembly file (.s or .asm)", domain.ErrInvalidArgument)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: input_path: %v", domain.ErrInvalidArgument, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: input_path is not a regular file", domain.ErrInvalidArgument)
	}
	return path, nil
}
