// Package toolcall turns an assistant's loosely typed canvas tool calls into
// Document Store mutations.
package toolcall

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"artisan-canvas/core"
)

// ToolName is the only tool whose calls are dispatched.
const ToolName = "canvas_tool"

var (
	// ErrIgnored marks a call addressed to another tool, or one without a result.
	ErrIgnored = errors.New("not a canvas tool call")
	// ErrMissingAction marks a canvas call without an action tag.
	ErrMissingAction = errors.New("canvas tool call missing action")
	// ErrUnknownAction marks an action tag outside the supported set.
	ErrUnknownAction = errors.New("unknown canvas tool action")
	// ErrMalformed marks a call whose payload lacks what its action needs.
	ErrMalformed = errors.New("malformed canvas tool call")
)

type (
	// ToolCall is one structured action request from the assistant, in the
	// shape the chat service emits: {"name": "canvas_tool", "result": {...}}.
	ToolCall struct {
		Name   string          `json:"name"`
		Result json.RawMessage `json:"result,omitempty"`
	}

	// Action is the tag of a canvas tool call.
	Action string

	// Command is a validated tool call. The concrete types below form a closed
	// set; Dispatcher.Execute switches over all of them.
	Command interface {
		Action() Action
		command()
	}

	// Add creates an element. Missing geometry and color get defaults.
	Add struct {
		ElementType core.ElementType
		Properties  core.ElementPatch
	}

	// Update merges properties into the target and commits.
	Update struct {
		ElementID  string
		Properties core.ElementPatch
	}

	// Delete removes the target.
	Delete struct {
		ElementID string
	}

	// BringToFront moves the target to the top of the z-order.
	BringToFront struct {
		ElementID string
	}

	// SendToBack moves the target to the bottom of the z-order.
	SendToBack struct {
		ElementID string
	}

	arguments struct {
		Action      string          `json:"action"`
		ElementID   string          `json:"elementId"`
		ElementType string          `json:"elementType"`
		Properties  json.RawMessage `json:"properties"`
	}
)

const (
	ActionAdd          Action = "add"
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
	ActionBringToFront Action = "bringToFront"
	ActionSendToBack   Action = "sendToBack"
)

func (Add) Action() Action          { return ActionAdd }
func (Update) Action() Action       { return ActionUpdate }
func (Delete) Action() Action       { return ActionDelete }
func (BringToFront) Action() Action { return ActionBringToFront }
func (SendToBack) Action() Action   { return ActionSendToBack }

func (Add) command()          {}
func (Update) command()       {}
func (Delete) command()       {}
func (BringToFront) command() {}
func (SendToBack) command()   {}

// NewToolCall builds a canvas tool call from its arguments. It is mostly
// useful to tests and to clients replaying a stored transcript.
func NewToolCall(action Action, elementID string, elementType core.ElementType, properties any) (ToolCall, error) {
	args := map[string]any{"action": action}
	if elementID != "" {
		args["elementId"] = elementID
	}
	if elementType != "" {
		args["elementType"] = elementType
	}
	if properties != nil {
		args["properties"] = properties
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return ToolCall{}, err
	}
	return ToolCall{Name: ToolName, Result: raw}, nil
}

// Parse validates a raw tool call and converts it into a Command.
func Parse(call ToolCall) (Command, error) {
	if call.Name != ToolName || isAbsent(call.Result) {
		return nil, ErrIgnored
	}

	var args arguments
	if err := json.Unmarshal(call.Result, &args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if args.Action == "" {
		return nil, ErrMissingAction
	}

	switch action := Action(args.Action); action {
	case ActionAdd:
		if args.ElementType == "" || isAbsent(args.Properties) {
			return nil, fmt.Errorf("%w: add requires elementType and properties", ErrMalformed)
		}
		typ := core.ElementType(args.ElementType)
		if !typ.Valid() {
			return nil, fmt.Errorf("%w: unsupported element type %q", ErrMalformed, args.ElementType)
		}
		props, err := decodeProperties(args.Properties)
		if err != nil {
			return nil, err
		}
		return Add{ElementType: typ, Properties: props}, nil
	case ActionUpdate:
		if isAbsent(args.Properties) {
			return nil, fmt.Errorf("%w: update requires properties", ErrMalformed)
		}
		props, err := decodeProperties(args.Properties)
		if err != nil {
			return nil, err
		}
		return Update{ElementID: args.ElementID, Properties: props}, nil
	case ActionDelete:
		return Delete{ElementID: args.ElementID}, nil
	case ActionBringToFront:
		return BringToFront{ElementID: args.ElementID}, nil
	case ActionSendToBack:
		return SendToBack{ElementID: args.ElementID}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
}

func decodeProperties(raw json.RawMessage) (core.ElementPatch, error) {
	var props core.ElementPatch
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '{' {
		return props, fmt.Errorf("%w: properties must be an object", ErrMalformed)
	}
	if err := json.Unmarshal(raw, &props); err != nil {
		return props, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return props, nil
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
