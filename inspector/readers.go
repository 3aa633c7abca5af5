package inspector

import (
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/jsphweid/notewindow/log"
	"github.com/jsphweid/notewindow/store"
)

// readers keeps records files open between requests and closes them all
// once the inspector has been idle for a while, so a fresh generate run is
// picked up on the next request.
type readers struct {
	dir  string
	mu   sync.Mutex
	open map[string]*store.Reader
	idle func(f func())
}

func newReaders(dir string, idleAfter time.Duration) *readers {
	return &readers{
		dir:  dir,
		open: make(map[string]*store.Reader),
		idle: debounce.New(idleAfter),
	}
}

// with runs fn against the split's reader. fn must not keep the reader.
func (r *readers) with(split string, fn func(*store.Reader) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idle(r.closeAll)

	rd, ok := r.open[split]
	if !ok {
		var err error
		rd, err = store.Open(store.Path(r.dir, split))
		if err != nil {
			return err
		}
		r.open[split] = rd
	}
	return fn(rd)
}

func (r *readers) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for split, rd := range r.open {
		if err := rd.Close(); err != nil {
			log.Inspect.Warnf("Could not close %v because: %v", rd.Path(), err)
		}
		delete(r.open, split)
	}
}
