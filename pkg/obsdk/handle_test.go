package obsdk

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deleteLog struct {
	mu    sync.Mutex
	calls []RawHandle
}

func (d *deleteLog) deleter(err error) Deleter {
	return func(p RawHandle) error {
		d.mu.Lock()
		d.calls = append(d.calls, p)
		d.mu.Unlock()
		return err
	}
}

func (d *deleteLog) Calls() []RawHandle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]RawHandle(nil), d.calls...)
}

func TestAcquireHandleRejectsBadInput(t *testing.T) {
	var log deleteLog
	_, err := AcquireHandle("frame", 0, log.deleter(nil))
	assert.ErrorIs(t, err, ErrNullHandle)

	_, err = AcquireHandle("frame", 0x10, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Empty(t, log.Calls())
}

func TestDeleterRunsExactlyOnce(t *testing.T) {
	var log deleteLog
	h, err := AcquireHandle("device", 0x10, log.deleter(nil))
	require.NoError(t, err)
	assert.Equal(t, Owned, h.Ownership())
	assert.Equal(t, int64(1), h.RefCount())

	require.NoError(t, h.Retain())
	require.NoError(t, h.Close())
	assert.True(t, h.IsValid(), "a retained handle survives Close")
	assert.Empty(t, log.Calls())

	require.NoError(t, h.Release())
	assert.False(t, h.IsValid())
	assert.Equal(t, []RawHandle{0x10}, log.Calls())

	assert.ErrorIs(t, h.Release(), ErrHandleReleased)
	assert.ErrorIs(t, h.Close(), ErrHandleReleased)
	assert.ErrorIs(t, h.Retain(), ErrHandleReleased)
	_, err = h.Ptr()
	assert.ErrorIs(t, err, ErrHandleReleased)
	assert.Len(t, log.Calls(), 1)
}

func TestDeleterErrorStillReleases(t *testing.T) {
	var log deleteLog
	boom := errors.New("boom")
	h, err := AcquireHandle("sensor", 0x20, log.deleter(boom))
	require.NoError(t, err)

	assert.ErrorIs(t, h.Close(), boom)
	assert.False(t, h.IsValid())
	assert.ErrorIs(t, h.Release(), ErrHandleReleased)
	assert.Len(t, log.Calls(), 1)
}

func TestConcurrentRetainRelease(t *testing.T) {
	var deletes atomic.Int32
	h, err := AcquireHandle("frame", 0x30, func(RawHandle) error {
		deletes.Add(1)
		return nil
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				if err := h.Retain(); err != nil {
					t.Error(err)
					return
				}
				_, _ = h.Ptr()
				if err := h.Release(); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
	assert.Zero(t, deletes.Load())
	require.NoError(t, h.Close())
	assert.Equal(t, int32(1), deletes.Load())
}

func TestBorrowKeepsParentAlive(t *testing.T) {
	var log deleteLog
	parent, err := AcquireHandle("frameset", 0x40, log.deleter(nil))
	require.NoError(t, err)
	child, err := parent.Borrow("frame", 0x50, log.deleter(nil))
	require.NoError(t, err)
	assert.Equal(t, Borrowed, child.Ownership())
	assert.Equal(t, int64(2), parent.RefCount())

	require.NoError(t, parent.Close())
	assert.True(t, parent.IsValid())
	p, err := child.Ptr()
	require.NoError(t, err)
	assert.Equal(t, RawHandle(0x50), p)

	require.NoError(t, child.Close())
	assert.Equal(t, []RawHandle{0x50, 0x40}, log.Calls(), "child first, then parent")
	assert.False(t, parent.IsValid())
}

func TestBorrowWithoutReleaseFunc(t *testing.T) {
	var log deleteLog
	parent, err := AcquireHandle("stream_profile_list", 0x60, log.deleter(nil))
	require.NoError(t, err)
	child, err := parent.Borrow("stream_profile", 0x68, nil)
	require.NoError(t, err)

	require.NoError(t, child.Close())
	require.NoError(t, parent.Close())
	assert.Equal(t, []RawHandle{0x60}, log.Calls())
}

func TestBorrowFromReleasedParentReleasesPointer(t *testing.T) {
	var log deleteLog
	parent, err := AcquireHandle("frameset", 0x70, log.deleter(nil))
	require.NoError(t, err)
	require.NoError(t, parent.Close())

	child, err := parent.Borrow("frame", 0x80, log.deleter(nil))
	assert.ErrorIs(t, err, ErrHandleReleased)
	assert.Nil(t, child)
	assert.Equal(t, []RawHandle{0x70, 0x80}, log.Calls())
}

func TestNilHandleIsSafe(t *testing.T) {
	var h *NativeHandle
	assert.NoError(t, h.Close())
	assert.False(t, h.IsValid())
	_, err := h.Ptr()
	assert.ErrorIs(t, err, ErrHandleReleased)
}

func TestCloseBestEffortReportsFault(t *testing.T) {
	env := newTestEnv(t, nil)
	boom := errors.New("boom")
	h, err := acquire("filter", 0x90, func(RawHandle) error { return boom }, env.lib)
	require.NoError(t, err)

	h.closeBestEffort("finalize")
	h.closeBestEffort("finalize")

	faults := env.Faults()
	require.Len(t, faults, 1)
	assert.Equal(t, "finalize", faults[0].Op)
	assert.Equal(t, "filter", faults[0].Kind)
	assert.ErrorIs(t, faults[0], boom)
}

func TestCloseDuringUseDefersDeleterToFault(t *testing.T) {
	env := newTestEnv(t, nil)
	boom := errors.New("boom")
	var deletes int
	h, err := acquire("sensor", 0xa0, func(RawHandle) error { deletes++; return boom }, env.lib)
	require.NoError(t, err)

	err = h.use(func(p RawHandle) error {
		assert.Equal(t, RawHandle(0xa0), p)
		assert.NoError(t, h.Close(), "close while in use defers the deleter")
		assert.Zero(t, deletes)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, deletes)
	assert.False(t, h.IsValid())

	faults := env.Faults()
	require.Len(t, faults, 1)
	assert.Equal(t, "release", faults[0].Op)
	assert.Equal(t, "sensor", faults[0].Kind)
	assert.ErrorIs(t, faults[0], boom)
	assert.ErrorIs(t, h.Close(), ErrHandleReleased)
}
