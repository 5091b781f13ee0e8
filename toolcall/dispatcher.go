package toolcall

import (
	"errors"
	"math/rand/v2"

	"artisan-canvas/core"

	"github.com/sirupsen/logrus"
)

const (
	defaultWidth  = 150
	defaultHeight = 100
	defaultColor  = "#333333"
)

const (
	StatusApplied  = "applied"
	StatusIgnored  = "ignored"
	StatusRejected = "rejected"
)

type (
	// Canvas is the slice of the Document Store the dispatcher drives.
	// *canvas.Document satisfies it.
	Canvas interface {
		Element(id string) (core.Element, bool)
		TopElementID() (string, bool)
		SelectedElementID() string
		AddElement(draft core.Element) string
		UpdateElement(id string, patch core.ElementPatch)
		DeleteElement(id string)
		BringToFront(id string)
		SendToBack(id string)
		Commit()
	}

	// Result reports what happened to one tool call. Failures are never
	// returned as errors; they are absorbed here.
	Result struct {
		Status    string `json:"status"`
		Action    Action `json:"action,omitempty"`
		ElementID string `json:"elementId,omitempty"`
		Summary   string `json:"summary"`
		Reason    string `json:"reason,omitempty"`
	}

	// Dispatcher applies tool calls to a Canvas.
	Dispatcher struct {
		canvas Canvas
		rand   func() float64
		log    logrus.FieldLogger
	}

	// Option configures a Dispatcher.
	Option func(*Dispatcher)
)

// WithRand sets the [0,1) source used to place elements added without a
// position.
func WithRand(fn func() float64) Option {
	return func(d *Dispatcher) {
		d.rand = fn
	}
}

// WithLogger sets the logger for dropped and unknown calls.
func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Dispatcher) {
		d.log = log
	}
}

func NewDispatcher(c Canvas, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		canvas: c,
		rand:   rand.Float64,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ResolveTarget picks the element an unaddressed call should affect: the
// explicit id when it exists, else the selection, else the top-most element.
func (d *Dispatcher) ResolveTarget(explicitID string) (string, bool) {
	if explicitID != "" {
		if _, ok := d.canvas.Element(explicitID); ok {
			return explicitID, true
		}
	}
	if selected := d.canvas.SelectedElementID(); selected != "" {
		return selected, true
	}
	return d.canvas.TopElementID()
}

// Process applies calls strictly in order. Each call, including its commit,
// completes before the next one starts.
func (d *Dispatcher) Process(calls []ToolCall) []Result {
	results := make([]Result, 0, len(calls))
	for _, call := range calls {
		results = append(results, d.Apply(call))
	}
	return results
}

// Apply parses and executes a single tool call.
func (d *Dispatcher) Apply(call ToolCall) Result {
	cmd, err := Parse(call)
	if err != nil {
		return d.drop(call, err)
	}
	return d.Execute(cmd)
}

// Execute applies a validated command.
func (d *Dispatcher) Execute(cmd Command) Result {
	res := Result{Status: StatusApplied, Action: cmd.Action()}

	if add, ok := cmd.(Add); ok {
		res.ElementID = d.canvas.AddElement(d.draft(add))
		res.Summary = "Added a new " + string(add.ElementType)
		return res
	}

	target, ok := d.ResolveTarget(explicitID(cmd))
	if !ok {
		d.log.WithField("action", cmd.Action()).Debug("Canvas tool call has no target element")
		res.Status = StatusIgnored
		res.Reason = "no target element"
		res.Summary = summaryFor(cmd)
		return res
	}
	res.ElementID = target

	switch c := cmd.(type) {
	case Update:
		d.canvas.UpdateElement(target, c.Properties)
		d.canvas.Commit()
	case Delete:
		d.canvas.DeleteElement(target)
	case BringToFront:
		d.canvas.BringToFront(target)
	case SendToBack:
		d.canvas.SendToBack(target)
	}
	res.Summary = summaryFor(cmd)

	d.log.WithFields(logrus.Fields{
		"action":     cmd.Action(),
		"element_id": target,
	}).Debug("Canvas tool call applied")
	return res
}

func (d *Dispatcher) draft(add Add) core.Element {
	draft := core.Element{
		Type:   add.ElementType,
		X:      d.rand()*200 + 50,
		Y:      d.rand()*300 + 50,
		Width:  defaultWidth,
		Height: defaultHeight,
		Color:  defaultColor,
	}
	add.Properties.Apply(&draft)
	return draft
}

func (d *Dispatcher) drop(call ToolCall, err error) Result {
	res := Result{Status: StatusRejected, Reason: err.Error(), Summary: Summarize(call)}
	log := d.log.WithField("tool", call.Name)

	switch {
	case errors.Is(err, ErrIgnored):
		res.Status = StatusIgnored
		log.Debug("Ignoring non-canvas tool call")
	case errors.Is(err, ErrUnknownAction):
		log.WithError(err).Warn("Unknown canvas tool action")
	default:
		log.WithError(err).Error("Dropping canvas tool call")
	}
	return res
}

func explicitID(cmd Command) string {
	switch c := cmd.(type) {
	case Update:
		return c.ElementID
	case Delete:
		return c.ElementID
	case BringToFront:
		return c.ElementID
	case SendToBack:
		return c.ElementID
	}
	return ""
}
