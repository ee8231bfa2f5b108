// Package tools is the dispatch table for the assistant's callable
// operations. Each tool validates its own argument schema; apart from the
// knowledge-base search, tools are thin wrappers over external executables
// whose captured output is returned as-is.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/archpilot/archpilot/internal/domain"
	"github.com/archpilot/archpilot/internal/metrics"
)

// Tool is one callable operation.
type Tool interface {
	Name() string
	Description() string
	Run(ctx context.Context, args json.RawMessage) (any, error)
}

// Descriptor describes a registered tool for listing.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Registry dispatches invocations by tool name.
type Registry struct {
	tools  map[string]Tool
	logger *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{tools: make(map[string]Tool), logger: logger}
}

// Register adds a tool. Duplicate names panic: the table is assembled once in main.
func (r *Registry) Register(t Tool) {
	if _, ok := r.tools[t.Name()]; ok {
		panic("tools: duplicate registration of " + t.Name())
	}
	r.tools[t.Name()] = t
}

// List returns descriptors for all registered tools, sorted by name.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, Descriptor{Name: t.Name(), Description: t.Description()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Run dispatches one invocation.
func (r *Registry) Run(ctx context.Context, name string, args json.RawMessage) (any, error) {
	t, ok := r.tools[name]
	if !ok {
		metrics.ToolInvocationsTotal.WithLabelValues(name, "unknown").Inc()
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownTool, name)
	}

	result, err := t.Run(ctx, args)
	status := "success"
	if err != nil {
		status = "error"
		r.logger.Warn("tool failed", zap.String("tool", name), zap.Error(err))
	}
	metrics.ToolInvocationsTotal.WithLabelValues(name, status).Inc()

	return result, err
}

// decodeArgs parses tool arguments strictly: unknown fields are rejected so
// schema typos surface instead of being silently dropped.
func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
	}
	return nil
}
