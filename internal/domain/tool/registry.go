package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/matiasleandrokruk/healthassist/internal/domain/insurance"
)

var (
	ErrToolExecutorAlreadyRegistered = errors.New("tool executor already registered")
	ErrToolExecutorNotRegistered     = errors.New("tool executor not registered")
	ErrToolValidationFailed          = errors.New("tool params validation failed")
)

// ToolDefinition describes a callable tool.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
	ReadOnly    bool            `json:"readOnly"`
}

// ToolRegistry maps tool names to definitions and executors.
// Registration happens during startup; after that the registry is only read, so
// Call is safe for concurrent use.
type ToolRegistry struct {
	definitions map[string]ToolDefinition
	executors   map[string]ToolExecutor
	order       []string
	logger      zerolog.Logger
}

func NewToolRegistry(logger zerolog.Logger) *ToolRegistry {
	return &ToolRegistry{
		definitions: make(map[string]ToolDefinition),
		executors:   make(map[string]ToolExecutor),
		logger:      logger,
	}
}

func (r *ToolRegistry) Register(def ToolDefinition, executor ToolExecutor) error {
	def.Name = strings.TrimSpace(def.Name)
	if def.Name == "" || executor == nil {
		return ErrToolExecutorNotRegistered
	}
	if _, exists := r.executors[def.Name]; exists {
		return ErrToolExecutorAlreadyRegistered
	}

	if len(def.InputSchema) == 0 {
		def.InputSchema = json.RawMessage(`{"type":"object","additionalProperties":false,"properties":{}}`)
	}
	if !json.Valid(def.InputSchema) {
		return fmt.Errorf("tool %q: input schema must be valid json", def.Name)
	}

	r.definitions[def.Name] = def
	r.executors[def.Name] = executor
	r.order = append(r.order, def.Name)
	return nil
}

func (r *ToolRegistry) Get(name string) (ToolExecutor, error) {
	executor, ok := r.executors[name]
	if !ok {
		return nil, ErrToolExecutorNotRegistered
	}
	return executor, nil
}

// Definitions returns every registered definition in registration order.
func (r *ToolRegistry) Definitions() []ToolDefinition {
	out := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.definitions[name])
	}
	return out
}

func (r *ToolRegistry) ValidateParams(toolName string, params json.RawMessage) error {
	def, ok := r.definitions[toolName]
	if !ok {
		return ErrToolExecutorNotRegistered
	}

	if len(params) == 0 {
		params = json.RawMessage(`{}`)
	}

	var input map[string]any
	if err := json.Unmarshal(params, &input); err != nil || input == nil {
		return fmt.Errorf("%w: params must be a json object", ErrToolValidationFailed)
	}

	var schema map[string]any
	if err := json.Unmarshal(def.InputSchema, &schema); err != nil {
		return fmt.Errorf("%w: invalid tool schema", ErrToolValidationFailed)
	}

	return validateAgainstMinimalSchema(input, schema)
}

// Call validates params against the tool's schema, runs the executor and logs
// the outcome under a fresh call id.
func (r *ToolRegistry) Call(ctx context.Context, toolName string, params json.RawMessage) (json.RawMessage, error) {
	callID := uuid.NewString()
	start := time.Now()

	out, err := r.call(ctx, toolName, params)

	outcome := outcomeOf(err)
	evt := r.logger.Info()
	switch outcome {
	case outcomeNotFound, outcomeInvalid:
		evt = r.logger.Warn().Err(err)
	case outcomeError:
		evt = r.logger.Error().Err(err)
	}
	evt.
		Str("call_id", callID).
		Str("tool", toolName).
		Str("outcome", outcome).
		Dur("duration", time.Since(start)).
		Msg("tool call")

	return out, err
}

func (r *ToolRegistry) call(ctx context.Context, toolName string, params json.RawMessage) (json.RawMessage, error) {
	executor, err := r.Get(toolName)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, toolName)
	}
	if err := r.ValidateParams(toolName, params); err != nil {
		return nil, err
	}
	if len(params) == 0 {
		params = json.RawMessage(`{}`)
	}
	return executor.Execute(ctx, params)
}

const (
	outcomeSuccess  = "success"
	outcomeNotFound = "not_found"
	outcomeInvalid  = "invalid"
	outcomeError    = "error"
)

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.Is(err, insurance.ErrNotFound):
		return outcomeNotFound
	case errors.Is(err, ErrToolValidationFailed), errors.Is(err, ErrToolExecutorNotRegistered):
		return outcomeInvalid
	default:
		return outcomeError
	}
}

func validateAgainstMinimalSchema(input, schema map[string]any) error {
	requiredKeys := extractStringSlice(schema["required"])
	for _, key := range requiredKeys {
		if _, ok := input[key]; !ok {
			return fmt.Errorf("%w: missing required field %q", ErrToolValidationFailed, key)
		}
	}

	allowAdditional := true
	if v, ok := schema["additionalProperties"].(bool); ok {
		allowAdditional = v
	}

	props, _ := schema["properties"].(map[string]any)
	for key, value := range input {
		prop, known := props[key].(map[string]any)
		if !known {
			if !allowAdditional {
				return fmt.Errorf("%w: unknown field %q", ErrToolValidationFailed, key)
			}
			continue
		}
		if want, ok := prop["type"].(string); ok && !matchesJSONType(value, want) {
			return fmt.Errorf("%w: field %q must be of type %s", ErrToolValidationFailed, key, want)
		}
	}

	return nil
}

func matchesJSONType(v any, want string) bool {
	switch want {
	case "string":
		_, ok := v.(string)
		return ok
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "number":
		_, ok := v.(float64)
		return ok
	case "integer":
		f, ok := v.(float64)
		return ok && f == math.Trunc(f)
	case "object":
		_, ok := v.(map[string]any)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	case "null":
		return v == nil
	default:
		return true
	}
}

func extractStringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		s, ok := item.(string)
		if ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
