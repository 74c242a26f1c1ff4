package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phanxgames/photosphere"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "regions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func pair(name string, x int) photosphere.RegionPair {
	return photosphere.RegionPair{
		Pixel:     photosphere.Region{Name: name, XMin: x, YMin: 20, XMax: x + 30, YMax: 40, Pose: photosphere.PoseUnspecified},
		Spherical: photosphere.Region{Name: name, XMin: 1, YMin: 2, XMax: 3, YMax: 4, Pose: photosphere.PoseUnspecified},
		Outline: photosphere.Box{
			TL: r3.Vec{X: 1, Y: 2, Z: 3},
			TR: r3.Vec{X: 4, Y: 5, Z: 6},
			BR: r3.Vec{X: 7, Y: 8, Z: 9},
			BL: r3.Vec{X: 10, Y: 11, Z: 12},
		},
	}
}

func TestSaveAndList(t *testing.T) {
	s := openTestStore(t)
	tick := time.Unix(1000, 0)
	s.now = func() time.Time { tick = tick.Add(time.Second); return tick }

	id1, err := s.SaveRegion("pano.jpg", pair("car", 10))
	require.NoError(t, err)
	id2, err := s.SaveRegion("pano.jpg", pair("tree", 50))
	require.NoError(t, err)
	_, err = s.SaveRegion("other.jpg", pair("sign", 0))
	require.NoError(t, err)

	_, err = uuid.Parse(id1)
	assert.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	recs, err := s.ListRegions("pano.jpg")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, id1, recs[0].ID)
	assert.Equal(t, id2, recs[1].ID)
	assert.Equal(t, pair("car", 10), recs[0].Pair)
	assert.Equal(t, "pano.jpg", recs[1].Image)
	assert.Equal(t, time.Unix(1001, 0), recs[0].CreatedAt)

	none, err := s.ListRegions("missing.jpg")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteRegion(t *testing.T) {
	s := openTestStore(t)
	id, err := s.SaveRegion("pano.jpg", pair("car", 10))
	require.NoError(t, err)

	require.NoError(t, s.DeleteRegion(id))
	recs, err := s.ListRegions("pano.jpg")
	require.NoError(t, err)
	assert.Empty(t, recs)

	assert.ErrorIs(t, s.DeleteRegion(id), ErrNotFound)
}

func TestReopenKeepsRegions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.SaveRegion("pano.jpg", pair("car", 10))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Migrations are already applied the second time.
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	recs, err := s.ListRegions("pano.jpg")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestTrack(t *testing.T) {
	s := openTestStore(t)
	_, err := s.SaveRegion("pano.jpg", pair("old", 0))
	require.NoError(t, err)

	sess := photosphere.NewSession()
	tr, err := s.Track(sess, "pano.jpg")
	require.NoError(t, err)
	require.Equal(t, 1, sess.Len())
	assert.Equal(t, "old", sess.Region(0).Pixel.Name)

	sess.Add(pair("new", 10))
	sess.Add(pair("newer", 20))
	ids := tr.IDs()
	require.Len(t, ids, 3)

	recs, err := s.ListRegions("pano.jpg")
	require.NoError(t, err)
	require.Len(t, recs, 3)

	require.NoError(t, sess.Delete(1))
	recs, err = s.ListRegions("pano.jpg")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	names := []string{recs[0].Pair.Pixel.Name, recs[1].Pair.Pixel.Name}
	assert.ElementsMatch(t, []string{"old", "newer"}, names)
	assert.Equal(t, []string{ids[0], ids[2]}, tr.IDs())

	tr.Close()
	sess.Add(pair("untracked", 30))
	recs, err = s.ListRegions("pano.jpg")
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}
