package store

import (
	"log"

	"github.com/phanxgames/photosphere"
)

// Tracker mirrors a session into the store: added regions are saved and
// deleted regions are removed.
type Tracker struct {
	store   *Store
	image   string
	ids     []string // aligned with session indices; "" for unsaved regions
	handles []photosphere.CallbackHandle
}

// Track restores the stored regions of image into sess and keeps the store
// in sync with it from then on.
func (s *Store) Track(sess *photosphere.Session, image string) (*Tracker, error) {
	t := &Tracker{store: s, image: image, ids: make([]string, sess.Len())}
	ids, err := s.Restore(image, sess)
	if err != nil {
		return nil, err
	}
	t.ids = append(t.ids, ids...)
	t.handles = []photosphere.CallbackHandle{
		sess.OnRegionAdded(t.added),
		sess.OnRegionRemoved(t.removed),
	}
	return t, nil
}

func (t *Tracker) added(e photosphere.RegionEvent) {
	id, err := t.store.SaveRegion(t.image, e.Region)
	if err != nil {
		log.Printf("store: save region %q: %v", e.Region.Pixel.Name, err)
	}
	for len(t.ids) < e.Index {
		t.ids = append(t.ids, "")
	}
	t.ids = append(t.ids[:e.Index], append([]string{id}, t.ids[e.Index:]...)...)
}

func (t *Tracker) removed(e photosphere.RegionEvent) {
	if e.Index < 0 || e.Index >= len(t.ids) {
		return
	}
	if id := t.ids[e.Index]; id != "" {
		if err := t.store.DeleteRegion(id); err != nil {
			log.Printf("store: delete region %s: %v", id, err)
		}
	}
	t.ids = append(t.ids[:e.Index], t.ids[e.Index+1:]...)
}

// IDs returns the stored id of every session region, in session order.
func (t *Tracker) IDs() []string { return append([]string(nil), t.ids...) }

// Close stops tracking.
func (t *Tracker) Close() {
	for _, h := range t.handles {
		h.Remove()
	}
	t.handles = nil
}
