package defs

import (
	"os"
	"sync"

	pipeerr "github.com/secondlife/create/internal/errors"
)

// Library is the process-lifetime definitions cache. It loads and parses the
// on-disk document at most once, on first access; every consumer shares the
// same parsed instance. Construct one in the entry point and pass it down;
// there is no package-level global.
type Library struct {
	path string

	once sync.Once
	doc  *Definitions
	err  error
}

// NewLibrary returns a Library reading from the given definitions file path.
// Nothing is loaded until the first accessor call.
func NewLibrary(path string) *Library {
	return &Library{path: path}
}

// Path returns the definitions file path the library reads from.
func (l *Library) Path() string { return l.path }

// Definitions returns the cached document, loading and parsing the file on
// first call. The guard makes concurrent first access parse at most once; a
// load failure is cached and returned on every subsequent call.
func (l *Library) Definitions() (*Definitions, error) {
	l.once.Do(func() {
		raw, err := os.ReadFile(l.path)
		if err != nil {
			l.err = pipeerr.Wrap(err, pipeerr.CategoryParse, pipeerr.SeverityFatal, "read definitions file").
				WithContext("path", l.path)
			return
		}
		l.doc, l.err = Parse(raw)
	})
	return l.doc, l.err
}

// Constant looks up a constant by exact name. Unknown names (and a library
// that failed to load) report not-found rather than an error; the caller
// decides whether absence matters.
func (l *Library) Constant(name string) (Constant, bool) {
	doc, err := l.Definitions()
	if err != nil {
		return Constant{}, false
	}
	c, ok := doc.Constants[name]
	return c, ok
}

// Function looks up a function by exact name.
func (l *Library) Function(name string) (Function, bool) {
	doc, err := l.Definitions()
	if err != nil {
		return Function{}, false
	}
	f, ok := doc.Functions[name]
	return f, ok
}

// Event looks up an event by exact name.
func (l *Library) Event(name string) (Event, bool) {
	doc, err := l.Definitions()
	if err != nil {
		return Event{}, false
	}
	e, ok := doc.Events[name]
	return e, ok
}
