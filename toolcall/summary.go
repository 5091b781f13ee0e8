package toolcall

import (
	"bytes"
	"encoding/json"
	"strings"
)

const pendingSummary = "Performing an action..."

// Summarize renders a one-line, human readable description of a tool call for
// the chat transcript. It never fails; calls it cannot read get a generic line.
func Summarize(call ToolCall) string {
	if call.Name != ToolName || isAbsent(call.Result) {
		return pendingSummary
	}

	var args arguments
	if err := json.Unmarshal(call.Result, &args); err != nil {
		return pendingSummary
	}

	switch Action(args.Action) {
	case ActionAdd:
		if args.ElementType == "" {
			return "Added a new element"
		}
		return "Added a new " + args.ElementType
	case ActionUpdate:
		return updateSummary(objectKeys(args.Properties))
	case ActionDelete:
		return "Deleted an element"
	case ActionBringToFront:
		return "Brought element to front"
	case ActionSendToBack:
		return "Sent element to back"
	default:
		return "Canvas action: " + args.Action
	}
}

func summaryFor(cmd Command) string {
	switch c := cmd.(type) {
	case Add:
		return "Added a new " + string(c.ElementType)
	case Update:
		return updateSummary(c.Properties.Fields())
	case Delete:
		return "Deleted an element"
	case BringToFront:
		return "Brought element to front"
	case SendToBack:
		return "Sent element to back"
	}
	return pendingSummary
}

func updateSummary(keys []string) string {
	if len(keys) == 0 {
		return "Updated properties"
	}
	return "Updated " + strings.Join(keys, ", ")
}

// objectKeys lists the top-level keys of a JSON object in document order.
func objectKeys(raw json.RawMessage) []string {
	if isAbsent(raw) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return keys
		}
		key, ok := tok.(string)
		if !ok {
			return keys
		}
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return keys
		}
	}
	return keys
}
