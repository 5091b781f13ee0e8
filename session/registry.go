package session

import (
	"sync"

	"artisan-canvas/canvas"
	"artisan-canvas/toolcall"

	"github.com/sirupsen/logrus"
)

type (
	// Registry maps session ids to their running editors.
	Registry struct {
		cfg     config
		editors map[string]*Editor
		mu      sync.Mutex
	}

	// Option configures the editors a Registry creates.
	Option func(*config)

	config struct {
		responder      Responder
		observer       Observer
		log            logrus.FieldLogger
		documentOpts   []canvas.Option
		dispatcherOpts []toolcall.Option
	}
)

// WithResponder sets the assistant used by Editor.Ask.
func WithResponder(r Responder) Option {
	return func(c *config) {
		c.responder = r
	}
}

// WithObserver registers a callback run after every document mutation.
func WithObserver(o Observer) Option {
	return func(c *config) {
		c.observer = o
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *config) {
		c.log = log
	}
}

// WithDocumentOptions passes options to every new canvas.Document.
func WithDocumentOptions(opts ...canvas.Option) Option {
	return func(c *config) {
		c.documentOpts = append(c.documentOpts, opts...)
	}
}

// WithDispatcherOptions passes options to every editor's tool call dispatcher.
func WithDispatcherOptions(opts ...toolcall.Option) Option {
	return func(c *config) {
		c.dispatcherOpts = append(c.dispatcherOpts, opts...)
	}
}

func NewRegistry(opts ...Option) *Registry {
	cfg := config{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Registry{
		cfg:     cfg,
		editors: make(map[string]*Editor),
	}
}

// Get returns the editor for a session, starting a fresh one with an empty
// document if none is running.
func (r *Registry) Get(id string) *Editor {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.editors[id]
	if !ok {
		e = newEditor(id, r.cfg)
		r.editors[id] = e
		r.cfg.log.WithField("session_id", id).Info("Editor started")
	}
	return e
}

// Lookup returns the editor for a session if one is running.
func (r *Registry) Lookup(id string) (*Editor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.editors[id]
	return e, ok
}

// Len returns the number of running editors.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.editors)
}

// Close stops and forgets the editor for a session.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	e, ok := r.editors[id]
	delete(r.editors, id)
	r.mu.Unlock()

	if ok {
		e.Close()
		r.cfg.log.WithField("session_id", id).Info("Editor stopped")
	}
}

// CloseAll stops every editor.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	editors := r.editors
	r.editors = make(map[string]*Editor)
	r.mu.Unlock()

	for _, e := range editors {
		e.Close()
	}
	r.cfg.log.WithField("count", len(editors)).Info("All editors stopped")
}
