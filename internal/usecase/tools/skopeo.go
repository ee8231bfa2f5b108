package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/archpilot/archpilot/internal/domain"
)

// Skopeo is a raw pass-through over `skopeo inspect` for container images.
type Skopeo struct {
	runner execRunner
}

// NewSkopeo creates the skopeo tool.
func NewSkopeo(runner execRunner) *Skopeo {
	return &Skopeo{runner: runner}
}

func (t *Skopeo) Name() string { return "skopeo" }

func (t *Skopeo) Description() string {
	return "Inspect a remote container image with skopeo and return the raw output."
}

type imageArgs struct {
	Image            string `json:"image"`
	InvocationReason string `json:"invocation_reason,omitempty"`
}

func (a *imageArgs) validate() error {
	a.Image = strings.TrimSpace(a.Image)
	if a.Image == "" {
		return fmt.Errorf("%w: image is required", domain.ErrInvalidArgument)
	}
	if strings.ContainsAny(a.Image, " \t\n") {
		return fmt.Errorf("%w: image reference contains whitespace", domain.ErrInvalidArgument)
	}
	return nil
}

// Run shells out to skopeo and returns the captured output verbatim.
func (t *Skopeo) Run(ctx context.Context, raw json.RawMessage) (any, error) {
	var args imageArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if err := args.validate(); err != nil {
		return nil, err
	}
	return t.runner.Run(ctx, "skopeo", "inspect", "docker://"+args.Image), nil
}

// CheckImage inspects a remote image's manifest list and reports whether it
// carries all required architectures.
type CheckImage struct {
	runner   execRunner
	required []string
}

// NewCheckImage creates the check_image tool. required defaults to
// amd64+arm64 when empty.
func NewCheckImage(runner execRunner, required []string) *CheckImage {
	if len(required) == 0 {
		required = []string{"amd64", "arm64"}
	}
	return &CheckImage{runner: runner, required: required}
}

func (t *CheckImage) Name() string { return "check_image" }

func (t *CheckImage) Description() string {
	return "Check whether a container image is published for all required CPU architectures."
}

type checkImageResponse struct {
	Status        string   `json:"status"` // "ok" / "unsupported" / "error"
	Message       string   `json:"message"`
	Architectures []string `json:"architectures"`
	Missing       []string `json:"missing,omitempty"`
	Cmd           []string `json:"cmd"`
}

// manifestList is the subset of the OCI/Docker manifest list we read.
type manifestList struct {
	Manifests []struct {
		Platform struct {
			Architecture string `json:"architecture"`
			OS           string `json:"os"`
		} `json:"platform"`
	} `json:"manifests"`
}

// Run fetches the raw manifest and compares its platform entries against the
// required architecture set.
func (t *CheckImage) Run(ctx context.Context, raw json.RawMessage) (any, error) {
	var args imageArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if err := args.validate(); err != nil {
		return nil, err
	}

	out := t.runner.Run(ctx, "skopeo", "inspect", "--raw", "docker://"+args.Image)
	if out.Status != "ok" {
		return checkImageResponse{
			Status:  "error",
			Message: "skopeo inspect failed: " + strings.TrimSpace(out.Stderr),
			Cmd:     out.Cmd,
		}, nil
	}

	var list manifestList
	if err := json.Unmarshal([]byte(out.Stdout), &list); err != nil {
		return checkImageResponse{
			Status:  "error",
			Message: "manifest is not valid JSON: " + err.Error(),
			Cmd:     out.Cmd,
		}, nil
	}

	if len(list.Manifests) == 0 {
		return checkImageResponse{
			Status:  "unsupported",
			Message: "image has no manifest list; it is published for a single architecture only",
			Missing: t.required,
			Cmd:     out.Cmd,
		}, nil
	}

	seen := make(map[string]bool)
	archs := make([]string, 0, len(list.Manifests))
	for _, m := range list.Manifests {
		arch := m.Platform.Architecture
		// Attestation manifests carry platform "unknown/unknown".
		if arch == "" || arch == "unknown" {
			continue
		}
		if !seen[arch] {
			seen[arch] = true
			archs = append(archs, arch)
		}
	}

	var missing []string
	for _, want := range t.required {
		if !seen[want] {
			missing = append(missing, want)
		}
	}

	resp := checkImageResponse{Architectures: archs, Cmd: out.Cmd}
	if len(missing) > 0 {
		resp.Status = "unsupported"
		resp.Missing = missing
		resp.Message = fmt.Sprintf("image %s is missing architectures: %s",
			args.Image, strings.Join(missing, ", "))
	} else {
		resp.Status = "ok"
		resp.Message = fmt.Sprintf("image %s supports all required architectures", args.Image)
	}
	return resp, nil
}
