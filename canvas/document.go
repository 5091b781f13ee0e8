// Package canvas holds the editable document: the ordered element list, the
// selection, the canvas size and a capped linear history of snapshots.
//
// A Document is not safe for concurrent use. It is owned by a single editor
// loop (see package session) which runs every mutation to completion before
// starting the next.
package canvas

import (
	"artisan-canvas/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const (
	// MaxHistory bounds the number of stored snapshots.
	MaxHistory = 50

	DefaultWidth  = 800
	DefaultHeight = 1200
)

type (
	// Document is the Document Store. Mutations that create an undo checkpoint
	// commit immediately; UpdateElement does not, so that a drag can collapse
	// into one history entry when the caller commits at the end.
	Document struct {
		elements   []core.Element
		selectedID string
		width      int
		height     int

		history      []core.Snapshot
		historyIndex int

		newID func() string
		log   logrus.FieldLogger
	}

	// State is the full client-facing view of a document.
	State struct {
		core.Snapshot
		SelectedElementID *string `json:"selectedElementId"`
		HistoryIndex      int     `json:"historyIndex"`
		HistoryLength     int     `json:"historyLength"`
		CanUndo           bool    `json:"canUndo"`
		CanRedo           bool    `json:"canRedo"`
	}

	// Option configures a Document.
	Option func(*Document)
)

// WithIDGenerator replaces the ULID generator used for new elements.
func WithIDGenerator(fn func() string) Option {
	return func(d *Document) {
		d.newID = fn
	}
}

// WithLogger sets the logger used for mutation diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Document) {
		d.log = log
	}
}

// New returns an empty poster-sized document whose history holds a single
// snapshot of that empty state.
func New(opts ...Option) *Document {
	d := &Document{
		elements: []core.Element{},
		width:    DefaultWidth,
		height:   DefaultHeight,
		newID: func() string {
			return ulid.Make().String()
		},
		log: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.history = []core.Snapshot{d.Snapshot()}
	return d
}

// AddElement appends a new element built from draft on top of the z-order and
// commits. The draft's ID is ignored; a fresh one is assigned and returned.
func (d *Document) AddElement(draft core.Element) string {
	el := draft.Clone()
	el.ID = d.newID()
	if el.Type == core.ElementText {
		if el.FontFamily == "" {
			el.FontFamily = core.DefaultFontFamily
		}
		if el.FontSize == 0 {
			el.FontSize = core.DefaultFontSize
		}
		if el.FontWeight == "" {
			el.FontWeight = core.DefaultFontWeight
		}
	}
	d.elements = append(d.elements, el)
	d.log.WithFields(logrus.Fields{
		"element_id":   el.ID,
		"element_type": el.Type,
	}).Debug("Element added")
	d.Commit()
	return el.ID
}

// UpdateElement merges patch into the element with the given id. Unknown ids
// are ignored. It never commits.
func (d *Document) UpdateElement(id string, patch core.ElementPatch) {
	i := d.indexOf(id)
	if i < 0 {
		d.log.WithField("element_id", id).Debug("Update of unknown element ignored")
		return
	}
	patch.Apply(&d.elements[i])
}

// DeleteElement removes the element with the given id, clears the selection if
// it pointed at it, and commits.
func (d *Document) DeleteElement(id string) {
	kept := d.elements[:0:0]
	for _, el := range d.elements {
		if el.ID != id {
			kept = append(kept, el)
		}
	}
	d.elements = kept
	if d.selectedID == id {
		d.selectedID = ""
	}
	d.Commit()
}

// BringToFront moves the element to the top of the z-order and commits.
func (d *Document) BringToFront(id string) {
	if i := d.indexOf(id); i >= 0 {
		el := d.elements[i]
		d.elements = append(d.elements[:i], d.elements[i+1:]...)
		d.elements = append(d.elements, el)
	}
	d.Commit()
}

// SendToBack moves the element to the bottom of the z-order and commits.
func (d *Document) SendToBack(id string) {
	if i := d.indexOf(id); i >= 0 {
		el := d.elements[i]
		rest := append(d.elements[:i:i], d.elements[i+1:]...)
		d.elements = append([]core.Element{el}, rest...)
	}
	d.Commit()
}

// SetSelectedElementID changes the selection. An empty id clears it. The
// selection is never part of history.
func (d *Document) SetSelectedElementID(id string) {
	d.selectedID = id
}

// SetCanvasDimensions sets the canvas size and commits. Values are stored as
// given; zero or negative sizes are accepted.
func (d *Document) SetCanvasDimensions(width, height int) {
	d.width = width
	d.height = height
	d.Commit()
}

// Commit records the live state as a new history entry, dropping any redo
// tail and evicting the oldest entry beyond MaxHistory.
func (d *Document) Commit() {
	history := d.history[:d.historyIndex+1]
	history = append(history, d.Snapshot())
	if len(history) > MaxHistory {
		history = append([]core.Snapshot(nil), history[len(history)-MaxHistory:]...)
	}
	d.history = history
	d.historyIndex = len(history) - 1
}

// Undo restores the previous committed snapshot and clears the selection.
func (d *Document) Undo() {
	if d.historyIndex == 0 {
		return
	}
	d.historyIndex--
	d.restore(d.history[d.historyIndex])
}

// Redo restores the next committed snapshot and clears the selection.
func (d *Document) Redo() {
	if d.historyIndex == len(d.history)-1 {
		return
	}
	d.historyIndex++
	d.restore(d.history[d.historyIndex])
}

func (d *Document) restore(snap core.Snapshot) {
	d.elements = core.CloneElements(snap.Elements)
	d.width = snap.CanvasWidth
	d.height = snap.CanvasHeight
	d.selectedID = ""
}

func (d *Document) indexOf(id string) int {
	for i := range d.elements {
		if d.elements[i].ID == id {
			return i
		}
	}
	return -1
}

// Elements returns a copy of the live elements in z-order.
func (d *Document) Elements() []core.Element {
	return core.CloneElements(d.elements)
}

// Element returns a copy of the element with the given id.
func (d *Document) Element(id string) (core.Element, bool) {
	if i := d.indexOf(id); i >= 0 {
		return d.elements[i].Clone(), true
	}
	return core.Element{}, false
}

// TopElementID returns the id of the top-most element, if any.
func (d *Document) TopElementID() (string, bool) {
	if len(d.elements) == 0 {
		return "", false
	}
	return d.elements[len(d.elements)-1].ID, true
}

// SelectedElementID returns the selected id, or "" when nothing is selected.
func (d *Document) SelectedElementID() string {
	return d.selectedID
}

// CanvasSize returns the live canvas width and height.
func (d *Document) CanvasSize() (width, height int) {
	return d.width, d.height
}

func (d *Document) HistoryLen() int   { return len(d.history) }
func (d *Document) HistoryIndex() int { return d.historyIndex }
func (d *Document) CanUndo() bool     { return d.historyIndex > 0 }
func (d *Document) CanRedo() bool     { return d.historyIndex < len(d.history)-1 }

// HistoryAt returns a copy of the snapshot stored at index i.
func (d *Document) HistoryAt(i int) (core.Snapshot, bool) {
	if i < 0 || i >= len(d.history) {
		return core.Snapshot{}, false
	}
	return d.history[i].Clone(), true
}

// Snapshot returns the live state detached from the document.
func (d *Document) Snapshot() core.Snapshot {
	return core.Snapshot{
		Elements:     core.CloneElements(d.elements),
		CanvasWidth:  d.width,
		CanvasHeight: d.height,
	}
}

// State returns the live state plus selection and history cursor.
func (d *Document) State() State {
	var selected *string
	if d.selectedID != "" {
		selected = core.String(d.selectedID)
	}
	return State{
		Snapshot:          d.Snapshot(),
		SelectedElementID: selected,
		HistoryIndex:      d.historyIndex,
		HistoryLength:     len(d.history),
		CanUndo:           d.CanUndo(),
		CanRedo:           d.CanRedo(),
	}
}
