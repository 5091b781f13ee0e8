// Package session runs one design document per logged-in user. Every mutation
// goes through the editor's own goroutine, so the document is only ever
// touched by a single thread.
package session

import (
	"context"
	"errors"
	"sync"

	"artisan-canvas/assistant"
	"artisan-canvas/canvas"
	"artisan-canvas/toolcall"

	"github.com/sirupsen/logrus"
)

// MaxTranscript bounds the number of chat messages kept per session.
const MaxTranscript = 100

var (
	// ErrClosed is returned by operations on a stopped editor.
	ErrClosed = errors.New("editor closed")
	// ErrNoAssistant is returned when a turn is requested without a responder.
	ErrNoAssistant = errors.New("no assistant configured")
)

type (
	// Responder produces the assistant's reply to a transcript.
	// *assistant.Client satisfies it.
	Responder interface {
		Respond(ctx context.Context, transcript []assistant.Message, state canvas.State) (assistant.Reply, error)
	}

	// Observer is told about the document state after every mutation.
	Observer func(sessionID string, state canvas.State)

	// Turn is the outcome of one assistant exchange.
	Turn struct {
		Message assistant.Message `json:"message"`
		Results []toolcall.Result `json:"results"`
		State   canvas.State      `json:"state"`
	}

	// Editor owns a Document and serializes access to it.
	Editor struct {
		id         string
		doc        *canvas.Document
		dispatcher *toolcall.Dispatcher
		responder  Responder
		observer   Observer
		log        logrus.FieldLogger

		ops   chan op
		turns chan turnRequest
		stop  chan struct{}
		done  sync.WaitGroup
		once  sync.Once

		mu         sync.Mutex
		transcript []assistant.Message
	}

	op struct {
		fn     func(*canvas.Document)
		notify bool
		done   chan canvas.State
	}

	turnRequest struct {
		ctx   context.Context
		text  string
		reply chan turnResult
	}

	turnResult struct {
		turn Turn
		err  error
	}
)

func newEditor(id string, cfg config) *Editor {
	log := cfg.log.WithField("session_id", id)
	doc := canvas.New(append([]canvas.Option{canvas.WithLogger(log)}, cfg.documentOpts...)...)
	e := &Editor{
		id:         id,
		doc:        doc,
		dispatcher: toolcall.NewDispatcher(doc, append([]toolcall.Option{toolcall.WithLogger(log)}, cfg.dispatcherOpts...)...),
		responder:  cfg.responder,
		observer:   cfg.observer,
		log:        log,
		ops:        make(chan op, 64),
		turns:      make(chan turnRequest, 16),
		stop:       make(chan struct{}),
	}
	e.done.Add(2)
	go e.run()
	go e.runTurns()
	return e
}

// ID returns the session id the editor belongs to.
func (e *Editor) ID() string {
	return e.id
}

// run is the editor's main loop. It executes document closures in arrival
// order.
func (e *Editor) run() {
	defer e.done.Done()
	for {
		select {
		case o := <-e.ops:
			o.fn(e.doc)
			state := e.doc.State()
			if o.notify && e.observer != nil {
				e.observer(e.id, state)
			}
			o.done <- state
		case <-e.stop:
			return
		}
	}
}

// runTurns handles assistant exchanges one at a time, in request order.
func (e *Editor) runTurns() {
	defer e.done.Done()
	for {
		select {
		case req := <-e.turns:
			turn, err := e.handleTurn(req.ctx, req.text)
			req.reply <- turnResult{turn: turn, err: err}
		case <-e.stop:
			return
		}
	}
}

// Do runs fn on the editor goroutine and returns the resulting state.
// Observers are notified afterwards.
func (e *Editor) Do(ctx context.Context, fn func(doc *canvas.Document)) (canvas.State, error) {
	return e.submit(ctx, fn, true)
}

// State returns the current document state without notifying observers.
func (e *Editor) State(ctx context.Context) (canvas.State, error) {
	return e.submit(ctx, func(*canvas.Document) {}, false)
}

func (e *Editor) submit(ctx context.Context, fn func(*canvas.Document), notify bool) (canvas.State, error) {
	o := op{fn: fn, notify: notify, done: make(chan canvas.State, 1)}
	select {
	case e.ops <- o:
	case <-e.stop:
		return canvas.State{}, ErrClosed
	case <-ctx.Done():
		return canvas.State{}, ctx.Err()
	}

	// Once queued the closure always runs, so wait for it even if ctx ends.
	select {
	case state := <-o.done:
		return state, nil
	case <-e.stop:
		return canvas.State{}, ErrClosed
	}
}

// Dispatch applies a batch of tool calls in order within a single editor step.
func (e *Editor) Dispatch(ctx context.Context, calls []toolcall.ToolCall) ([]toolcall.Result, canvas.State, error) {
	var results []toolcall.Result
	state, err := e.Do(ctx, func(*canvas.Document) {
		results = e.dispatcher.Process(calls)
	})
	return results, state, err
}

// Ask queues a user message for the assistant and waits for the resulting
// turn. Concurrent calls are answered and applied in the order they arrive.
func (e *Editor) Ask(ctx context.Context, text string) (Turn, error) {
	if e.responder == nil {
		return Turn{}, ErrNoAssistant
	}

	req := turnRequest{ctx: ctx, text: text, reply: make(chan turnResult, 1)}
	select {
	case e.turns <- req:
	case <-e.stop:
		return Turn{}, ErrClosed
	case <-ctx.Done():
		return Turn{}, ctx.Err()
	}

	select {
	case res := <-req.reply:
		return res.turn, res.err
	case <-e.stop:
		return Turn{}, ErrClosed
	}
}

func (e *Editor) handleTurn(ctx context.Context, text string) (Turn, error) {
	if err := ctx.Err(); err != nil {
		return Turn{}, err
	}
	e.appendMessage(assistant.NewMessage(assistant.RoleUser, text))

	state, err := e.State(ctx)
	if err != nil {
		return Turn{}, err
	}

	reply, err := e.responder.Respond(ctx, e.Transcript(), state)
	if err != nil {
		e.log.WithError(err).Error("Assistant request failed")
		return Turn{}, err
	}

	// The reply has arrived; apply it even if the caller has gone away.
	results, state, err := e.Dispatch(context.WithoutCancel(ctx), reply.ToolCalls)
	if err != nil {
		return Turn{}, err
	}

	msg := assistant.NewMessage(assistant.RoleAssistant, reply.Content)
	msg.ToolCalls = reply.ToolCalls
	for _, res := range results {
		if res.Status == toolcall.StatusApplied {
			msg.Summaries = append(msg.Summaries, res.Summary)
		}
	}
	e.appendMessage(msg)

	e.log.WithFields(logrus.Fields{
		"tool_calls": len(reply.ToolCalls),
		"applied":    len(msg.Summaries),
	}).Info("Assistant turn applied")
	return Turn{Message: msg, Results: results, State: state}, nil
}

// Transcript returns a copy of the chat messages, oldest first.
func (e *Editor) Transcript() []assistant.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]assistant.Message, len(e.transcript))
	copy(out, e.transcript)
	return out
}

// ClearTranscript drops the chat history. The document is untouched.
func (e *Editor) ClearTranscript() {
	e.mu.Lock()
	e.transcript = nil
	e.mu.Unlock()
}

func (e *Editor) appendMessage(m assistant.Message) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transcript = append(e.transcript, m)
	if over := len(e.transcript) - MaxTranscript; over > 0 {
		e.transcript = append([]assistant.Message(nil), e.transcript[over:]...)
	}
}

// Close stops the editor's goroutines. Pending and later calls fail with
// ErrClosed. It is safe to call more than once.
func (e *Editor) Close() {
	e.once.Do(func() {
		close(e.stop)
	})
	e.done.Wait()
}
