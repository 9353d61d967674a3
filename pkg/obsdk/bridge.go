package obsdk

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/orbbec/obsdk-go/internal/native"
	"github.com/orbbec/obsdk-go/pkg/obsdk/metrics"
)

// lastToken numbers callback tokens for the whole process. The native
// trampoline table is process-wide, so two Libraries must never hand the SDK
// the same token.
var lastToken atomic.Uintptr

// registry maps the tokens handed to the SDK as callback user data back to
// the slot that owns them. Only slots are stored, never wrappers, so a
// registration does not keep its wrapper reachable.
type registry struct {
	mu  sync.Mutex
	reg map[native.Token]any
}

func newRegistry() *registry {
	return &registry{reg: make(map[native.Token]any)}
}

// put registers v and returns its token. Tokens are never reused.
func (r *registry) put(v any) native.Token {
	t := native.Token(lastToken.Add(1))
	r.mu.Lock()
	r.reg[t] = v
	r.mu.Unlock()
	return t
}

func (r *registry) get(t native.Token) (any, bool) {
	r.mu.Lock()
	v, ok := r.reg[t]
	r.mu.Unlock()
	return v, ok
}

func (r *registry) del(t native.Token) {
	r.mu.Lock()
	delete(r.reg, t)
	r.mu.Unlock()
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reg)
}

// callbackSlot holds the current user callback for one registration.
//
// The trampoline is registered with the SDK on the first set only; later sets
// swap the stored callback. fire-side callers bracket each dispatch with
// enter/exit. seal refuses further dispatch and wait blocks until in-flight
// callbacks return, so nothing runs after wait returns. Calling wait from
// inside the slot's own callback deadlocks.
type callbackSlot[F any] struct {
	mu         sync.Mutex
	fn         F
	has        bool
	registered bool
	closed     bool
	inflight   sync.WaitGroup
}

// set stores fn (has=false clears it) and reports whether the caller still
// needs to register the trampoline with the SDK.
func (s *callbackSlot[F]) set(fn F, has bool) (register bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	s.fn, s.has = fn, has
	register = !s.registered
	s.registered = true
	return register, nil
}

// registerFailed undoes set's registration mark after the SDK call failed.
func (s *callbackSlot[F]) registerFailed() {
	s.mu.Lock()
	s.registered = false
	var zero F
	s.fn, s.has = zero, false
	s.mu.Unlock()
}

// enter returns the current callback and counts the dispatch as in flight.
// When it returns ok, the caller must call exit.
func (s *callbackSlot[F]) enter() (fn F, reason string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return fn, metrics.DiscardClosed, false
	case !s.has:
		return fn, metrics.DiscardNoListener, false
	}
	s.inflight.Add(1)
	return s.fn, "", true
}

func (s *callbackSlot[F]) exit() {
	s.inflight.Done()
}

// seal refuses further dispatch and reports whether a trampoline was
// registered with the SDK. Only the first seal reports true.
func (s *callbackSlot[F]) seal() (wasRegistered bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	wasRegistered = s.registered
	var zero F
	s.fn, s.has = zero, false
	return wasRegistered
}

// wait blocks until every callback that entered before seal has returned.
func (s *callbackSlot[F]) wait() {
	s.inflight.Wait()
}

// bridge ties a slot to its token in the library registry.
//
// regMu serializes set against set and against the sealing step of shutdown,
// so a failed registration never undoes a callback installed by another
// caller and shutdown never observes a registration that is still in flight.
type bridge[F any] struct {
	lib   *Library
	name  string
	token native.Token
	slot  *callbackSlot[F]
	regMu sync.Mutex
}

func newBridge[F any](l *Library, name string) *bridge[F] {
	s := &callbackSlot[F]{}
	return &bridge[F]{lib: l, name: name, token: l.reg.put(s), slot: s}
}

// set installs fn. register runs only when the trampoline still has to be
// registered with the SDK; if it fails the slot is reset.
func (b *bridge[F]) set(fn F, has bool, register func(token native.Token) error) error {
	b.regMu.Lock()
	defer b.regMu.Unlock()
	first, err := b.slot.set(fn, has)
	if err != nil || !first || register == nil {
		return err
	}
	if err := register(b.token); err != nil {
		b.slot.registerFailed()
		return err
	}
	return nil
}

// shutdown closes the slot, runs unregister when the trampoline was
// registered, then releases the token in the SDK trampoline table and in the
// library registry. Callbacks racing with shutdown either finish before it
// returns or are discarded.
func (b *bridge[F]) shutdown(unregister func(token native.Token) error) error {
	b.regMu.Lock()
	registered := b.slot.seal()
	b.regMu.Unlock()
	b.slot.wait()

	var err error
	if registered && unregister != nil {
		err = unregister(b.token)
	}
	b.lib.api.ReleaseToken(b.token)
	b.lib.reg.del(b.token)
	return err
}

// dispatch resolves token to a live callback and hands it to deliver. When no
// callback can take the call, discard runs instead so that resource-owning
// arguments are released rather than leaked.
func dispatch[F any](l *Library, name string, token native.Token, deliver func(F), discard func()) {
	defer l.recoverCallback(name)

	v, ok := l.reg.get(token)
	slot, isSlot := v.(*callbackSlot[F])
	if !ok || !isSlot {
		l.metrics.RecordCallbackDiscarded(name, metrics.DiscardUnknownToken)
		discard()
		return
	}

	fn, reason, ok := slot.enter()
	if !ok {
		l.metrics.RecordCallbackDiscarded(name, reason)
		discard()
		return
	}
	defer slot.exit()

	start := time.Now()
	deliver(fn)
	l.metrics.RecordCallback(name, time.Since(start))
}

func noDiscard() {}

// Trampolines. Their signatures match the native callback types; each one
// rebuilds typed wrappers from the raw arguments.

func (l *Library) onDeviceChanged(removed, added native.Handle, token native.Token) {
	discard := func() {
		l.releaseRaw(kindDeviceList, removed, l.api.DeleteDeviceList)
		l.releaseRaw(kindDeviceList, added, l.api.DeleteDeviceList)
	}
	dispatch(l, "device_changed", token, func(cb DeviceChangedCallback) {
		r, err := l.optionalDeviceList(removed)
		if err != nil {
			l.releaseRaw(kindDeviceList, added, l.api.DeleteDeviceList)
			l.fault(Fault{Op: "wrap", Kind: kindDeviceList, Err: err})
			return
		}
		a, err := l.optionalDeviceList(added)
		if err != nil {
			_ = r.Close()
			l.fault(Fault{Op: "wrap", Kind: kindDeviceList, Err: err})
			return
		}
		cb(r, a)
	}, discard)
}

func (l *Library) onFrame(frame native.Handle, token native.Token) {
	discard := func() { l.releaseRaw(kindFrame, frame, l.api.DeleteFrame) }
	dispatch(l, "frame", token, func(cb FrameCallback) {
		f, err := l.wrapFrame(frame)
		if err != nil {
			l.fault(Fault{Op: "wrap", Kind: kindFrame, Err: err})
			return
		}
		cb(f)
	}, discard)
}

func (l *Library) onFrameset(frame native.Handle, token native.Token) {
	discard := func() { l.releaseRaw(kindFrameset, frame, l.api.DeleteFrame) }
	dispatch(l, "frameset", token, func(cb FramesetCallback) {
		fs, err := l.wrapFrameset(frame)
		if err != nil {
			l.fault(Fault{Op: "wrap", Kind: kindFrameset, Err: err})
			return
		}
		cb(fs)
	}, discard)
}

func (l *Library) onDeviceState(state uint64, message string, token native.Token) {
	dispatch(l, "device_state", token, func(cb DeviceStateCallback) {
		cb(DeviceState(state), message)
	}, noDiscard)
}

func (l *Library) onUpgrade(state native.UpgradeState, message string, percent uint8, token native.Token) {
	dispatch(l, "upgrade", token, func(cb UpgradeCallback) {
		cb(state, message, percent)
	}, noDiscard)
}

func (l *Library) onDataTransfer(state native.DataTranState, percent uint8, token native.Token) {
	dispatch(l, "data_transfer", token, func(cb DataTransferCallback) {
		cb(state, percent)
	}, noDiscard)
}

func (l *Library) onMediaState(state native.MediaState, token native.Token) {
	dispatch(l, "media_state", token, func(cb MediaStateCallback) {
		cb(state)
	}, noDiscard)
}
