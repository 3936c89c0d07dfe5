package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	forgeerrors "github.com/r5vtools/forge/internal/errors"
	"github.com/r5vtools/forge/internal/storage"
)

type fakeStore struct {
	mu     sync.Mutex
	writes []string
	delay  time.Duration
	fail   error
}

func (s *fakeStore) Write(path string, data []byte) (storage.WriteInfo, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return storage.WriteInfo{}, s.fail
	}
	s.writes = append(s.writes, path)
	return storage.WriteInfo{OriginalSize: len(data), CompressedSize: len(data) / 2}, nil
}

func (s *fakeStore) Read(path string) ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *fakeStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

type fakeSource struct {
	mu       sync.Mutex
	path     string
	snapErr  error
	snaps    int
	results  []error
	lastInfo storage.WriteInfo
	lastSnap Snapshot
}

func (s *fakeSource) Snapshot(pathOverride string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapErr != nil {
		return Snapshot{}, s.snapErr
	}
	s.snaps++
	path := s.path
	saveAs := false
	if pathOverride != "" {
		path = pathOverride
		saveAs = true
	}
	return Snapshot{Path: path, Data: []byte("payload"), Generation: uint64(s.snaps), SaveAs: saveAs}, nil
}

func (s *fakeSource) SaveResult(snap Snapshot, info storage.WriteInfo, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, err)
	s.lastInfo = info
	s.lastSnap = snap
}

func (s *fakeSource) resultCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

func newTestPipeline(t *testing.T, store *fakeStore, source *fakeSource) *Pipeline {
	t.Helper()
	p := New(store, source, nil, zerolog.Nop())
	p.Start(context.Background())
	t.Cleanup(p.Stop)
	return p
}

func TestPipeline_ExplicitSave(t *testing.T) {
	store := &fakeStore{}
	source := &fakeSource{path: "/mods/test.r5vp"}
	p := newTestPipeline(t, store, source)

	err := p.Save(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"/mods/test.r5vp"}, store.writes)
	require.Len(t, source.results, 1)
	assert.NoError(t, source.results[0])
	assert.Equal(t, 7, source.lastInfo.OriginalSize)
	assert.False(t, source.lastSnap.SaveAs)
}

func TestPipeline_SaveAsUsesOverridePath(t *testing.T) {
	store := &fakeStore{}
	source := &fakeSource{path: "/mods/old.r5vp"}
	p := newTestPipeline(t, store, source)

	err := p.Save(context.Background(), "/mods/new.r5vp")
	require.NoError(t, err)

	assert.Equal(t, []string{"/mods/new.r5vp"}, store.writes)
	assert.True(t, source.lastSnap.SaveAs)
}

func TestPipeline_WriteFailurePropagates(t *testing.T) {
	wantErr := forgeerrors.NewStorageError("write", "/mods/test.r5vp", errors.New("disk full"))
	store := &fakeStore{fail: wantErr}
	source := &fakeSource{path: "/mods/test.r5vp"}
	p := newTestPipeline(t, store, source)

	err := p.Save(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)

	// The source saw the failure too, so dirty state stays set.
	require.Len(t, source.results, 1)
	assert.Error(t, source.results[0])
}

func TestPipeline_AutoSaveCoalesces(t *testing.T) {
	store := &fakeStore{delay: 50 * time.Millisecond}
	source := &fakeSource{path: "/mods/test.r5vp"}
	p := newTestPipeline(t, store, source)

	// Force one save to be in flight, then pile up intents behind it.
	p.Trigger()
	time.Sleep(10 * time.Millisecond)
	for i := 0; i < 10; i++ {
		p.Trigger()
	}

	require.Eventually(t, func() bool {
		return store.writeCount() >= 2 && p.State() == StateIdle
	}, 2*time.Second, 10*time.Millisecond)

	// The burst collapsed: one in-flight write plus one for the latest state.
	assert.Equal(t, 2, store.writeCount())
}

func TestPipeline_AutoSaveWithoutBackingPathIsNoop(t *testing.T) {
	store := &fakeStore{}
	source := &fakeSource{snapErr: forgeerrors.ErrNoBackingPath}
	p := newTestPipeline(t, store, source)

	p.Trigger()
	time.Sleep(50 * time.Millisecond)

	assert.Zero(t, store.writeCount())
	assert.Zero(t, source.resultCount())
}

func TestPipeline_ExplicitSaveWithoutBackingPathFails(t *testing.T) {
	store := &fakeStore{}
	source := &fakeSource{snapErr: forgeerrors.ErrNoBackingPath}
	p := newTestPipeline(t, store, source)

	err := p.Save(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, forgeerrors.ErrNoBackingPath)
	assert.Zero(t, store.writeCount())
}

func TestPipeline_StopFlushesPendingIntent(t *testing.T) {
	store := &fakeStore{}
	source := &fakeSource{path: "/mods/test.r5vp"}
	p := New(store, source, nil, zerolog.Nop())
	p.Start(context.Background())

	// Enqueue an intent and stop immediately. Stop must flush it.
	p.Trigger()
	p.Stop()

	assert.GreaterOrEqual(t, store.writeCount(), 1)
}

func TestPipeline_SaveAfterStopFails(t *testing.T) {
	store := &fakeStore{}
	source := &fakeSource{path: "/mods/test.r5vp"}
	p := New(store, source, nil, zerolog.Nop())
	p.Start(context.Background())
	p.Stop()

	err := p.Save(context.Background(), "")
	require.Error(t, err)
}

func TestPipeline_StateDuringSave(t *testing.T) {
	store := &fakeStore{delay: 100 * time.Millisecond}
	source := &fakeSource{path: "/mods/test.r5vp"}
	p := newTestPipeline(t, store, source)

	assert.Equal(t, StateIdle, p.State())
	p.Trigger()

	require.Eventually(t, func() bool {
		return p.State() == StateSaving
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return p.State() == StateIdle && store.writeCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPipeline_StartIsIdempotent(t *testing.T) {
	store := &fakeStore{}
	source := &fakeSource{path: "/mods/test.r5vp"}
	p := New(store, source, nil, zerolog.Nop())
	p.Start(context.Background())
	p.Start(context.Background())
	defer p.Stop()

	require.NoError(t, p.Save(context.Background(), ""))
	assert.Equal(t, 1, store.writeCount())
}
