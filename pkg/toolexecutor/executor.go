// Package toolexecutor manages the closed set of capabilities the
// reasoning backend may invoke. Each tool is registered with a typed
// parameter contract that is compiled to a JSON Schema up front;
// backend-issued arguments are validated against it before dispatch.
package toolexecutor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
)

// ToolParameter defines a single parameter of a tool's contract.
type ToolParameter struct {
	Name        string                 `json:"name"`
	Type        string                 `json:"type"`
	Description string                 `json:"description"`
	Required    bool                   `json:"required"`
	Minimum     *int                   `json:"minimum,omitempty"`
	Maximum     *int                   `json:"maximum,omitempty"`
	Items       map[string]interface{} `json:"items,omitempty"` // item schema for array parameters
}

// ToolHandler executes a tool and returns its serialized result.
type ToolHandler func(ctx context.Context, params map[string]interface{}) (string, error)

// ToolDefinition defines a tool's metadata and handler.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters"`
	Handler     ToolHandler     `json:"-"`
}

// ToolResult is the outcome of a single tool execution. Failures are
// carried in Error so the conversation can continue; the executor never
// lets a tool take the run down.
type ToolResult struct {
	Success bool   `json:"success"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ToolExecutor holds the registered tools and their compiled schemas.
type ToolExecutor struct {
	tools   map[string]*ToolDefinition
	schemas map[string]*gojsonschema.Schema
	timeout time.Duration
	mu      sync.RWMutex
}

// New creates an empty ToolExecutor with the default per-call timeout.
func New() *ToolExecutor {
	return &ToolExecutor{
		tools:   make(map[string]*ToolDefinition),
		schemas: make(map[string]*gojsonschema.Schema),
		timeout: 20 * time.Second,
	}
}

// SetTimeout overrides the per-call timeout.
func (te *ToolExecutor) SetTimeout(d time.Duration) {
	te.mu.Lock()
	defer te.mu.Unlock()
	if d > 0 {
		te.timeout = d
	}
}

// RegisterTool validates a tool definition, compiles its parameter
// schema and adds it to the registry. Registration failures are
// programmer errors and surface immediately.
func (te *ToolExecutor) RegisterTool(def ToolDefinition) error {
	if err := validateToolDefinition(def); err != nil {
		return fmt.Errorf("invalid tool definition: %w", err)
	}

	schema, err := compileSchema(def)
	if err != nil {
		return fmt.Errorf("failed to compile schema for %s: %w", def.Name, err)
	}

	te.mu.Lock()
	defer te.mu.Unlock()

	if _, exists := te.tools[def.Name]; exists {
		return fmt.Errorf("tool already registered: %s", def.Name)
	}

	te.tools[def.Name] = &def
	te.schemas[def.Name] = schema

	log.Debug().Str("tool", def.Name).Msg("Tool registered")
	return nil
}

// GetTool returns a tool definition by name, or nil if unknown.
func (te *ToolExecutor) GetTool(name string) *ToolDefinition {
	te.mu.RLock()
	defer te.mu.RUnlock()
	return te.tools[name]
}

// ListTools returns all registered tool names.
func (te *ToolExecutor) ListTools() []string {
	te.mu.RLock()
	defer te.mu.RUnlock()

	names := make([]string, 0, len(te.tools))
	for name := range te.tools {
		names = append(names, name)
	}
	return names
}

// ValidateArguments checks backend-issued arguments against a tool's
// compiled schema without executing it.
func (te *ToolExecutor) ValidateArguments(name string, params map[string]interface{}) error {
	te.mu.RLock()
	schema := te.schemas[name]
	te.mu.RUnlock()

	if schema == nil {
		return fmt.Errorf("unknown tool: %s", name)
	}
	return validateParameters(schema, params)
}

// Execute dispatches a named tool with validated arguments. Unknown
// names, schema violations, handler errors and timeouts all come back
// as failed ToolResults rather than Go errors: the loop must always be
// able to attach a reply for the call.
func (te *ToolExecutor) Execute(ctx context.Context, name string, params map[string]interface{}) ToolResult {
	te.mu.RLock()
	tool := te.tools[name]
	schema := te.schemas[name]
	timeout := te.timeout
	te.mu.RUnlock()

	if tool == nil {
		log.Warn().Str("tool", name).Msg("Unknown tool requested")
		return ToolResult{Success: false, Error: fmt.Sprintf("unknown tool: %s", name)}
	}

	if err := validateParameters(schema, params); err != nil {
		log.Warn().Str("tool", name).Err(err).Msg("Argument validation failed")
		return ToolResult{Success: false, Error: fmt.Sprintf("invalid arguments for %s: %v", name, err)}
	}

	start := time.Now()
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resultChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		output, err := tool.Handler(timeoutCtx, params)
		if err != nil {
			errChan <- err
			return
		}
		resultChan <- output
	}()

	select {
	case output := <-resultChan:
		log.Debug().
			Str("tool", name).
			Dur("duration", time.Since(start)).
			Msg("Tool execution completed")
		return ToolResult{Success: true, Output: output}

	case err := <-errChan:
		log.Warn().
			Str("tool", name).
			Dur("duration", time.Since(start)).
			Err(err).
			Msg("Tool execution failed")
		return ToolResult{Success: false, Error: err.Error()}

	case <-timeoutCtx.Done():
		log.Warn().
			Str("tool", name).
			Dur("duration", time.Since(start)).
			Msg("Tool execution timeout")
		return ToolResult{Success: false, Error: fmt.Sprintf("tool execution timeout after %v", timeout)}
	}
}

// validateToolDefinition checks a definition before registration.
func validateToolDefinition(def ToolDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if def.Description == "" {
		return fmt.Errorf("tool description cannot be empty")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool handler cannot be nil")
	}

	validTypes := map[string]bool{
		"string": true, "number": true, "boolean": true,
		"object": true, "array": true, "integer": true,
	}
	for _, param := range def.Parameters {
		if param.Name == "" {
			return fmt.Errorf("parameter name cannot be empty")
		}
		if !validTypes[param.Type] {
			return fmt.Errorf("invalid parameter type %s for %s", param.Type, param.Name)
		}
		if param.Description == "" {
			return fmt.Errorf("parameter description cannot be empty for %s", param.Name)
		}
	}
	return nil
}

// compileSchema builds and compiles the JSON Schema for a tool's
// parameter contract.
func compileSchema(def ToolDefinition) (*gojsonschema.Schema, error) {
	loader := gojsonschema.NewGoLoader(SchemaMap(def))
	return gojsonschema.NewSchema(loader)
}

// SchemaMap renders a tool's parameter contract as a plain JSON-schema
// map, shared between validation and the wire format handed to the
// reasoning backend.
func SchemaMap(def ToolDefinition) map[string]interface{} {
	properties := make(map[string]interface{})
	required := []string{}

	for _, param := range def.Parameters {
		paramSchema := map[string]interface{}{
			"type":        param.Type,
			"description": param.Description,
		}
		if param.Minimum != nil {
			paramSchema["minimum"] = *param.Minimum
		}
		if param.Maximum != nil {
			paramSchema["maximum"] = *param.Maximum
		}
		if param.Items != nil {
			paramSchema["items"] = param.Items
		}
		properties[param.Name] = paramSchema

		if param.Required {
			required = append(required, param.Name)
		}
	}

	schema := map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// validateParameters validates arguments against a compiled schema.
func validateParameters(schema *gojsonschema.Schema, params map[string]interface{}) error {
	if params == nil {
		params = map[string]interface{}{}
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		return err
	}
	if !result.Valid() {
		errs := []string{}
		for _, verr := range result.Errors() {
			errs = append(errs, verr.String())
		}
		return fmt.Errorf("validation errors: %v", errs)
	}
	return nil
}
