package fakesdk

import (
	"time"

	"github.com/orbbec/obsdk-go/internal/native"
)

// frameData is the immutable content behind one or more frame handles.
type frameData struct {
	typ     native.FrameType
	format  native.Format
	index   uint64
	ts      uint64
	sysTs   uint64
	width   int
	height  int
	data    []byte
	members []*frameData
}

func payloadSize(f native.Format, w, h int) int {
	switch f {
	case native.FormatY16, native.FormatYUYV:
		return w * h * 2
	case native.FormatY8:
		return w * h
	case native.FormatRGB, native.FormatBGR:
		return w * h * 3
	case native.FormatBGRA:
		return w * h * 4
	case native.FormatMJPG:
		return max(w*h/10, 64)
	case native.FormatAccel, native.FormatGyro:
		return 16
	}
	return w * h
}

// synthesize builds the next frame for profile p. The caller holds s.mu.
func (s *SDK) synthesize(u *unit, p profileData) *frameData {
	ft := native.FrameOf(p.stream)
	idx := u.nextIndex(ft)
	now := time.Now()
	data := make([]byte, payloadSize(p.format, p.width, p.height))
	for i := 0; i < len(data); i += 97 {
		data[i] = byte(idx) + byte(i)
	}
	return &frameData{
		typ:    ft,
		format: p.format,
		index:  idx,
		ts:     uint64(now.Sub(u.clock).Microseconds()),
		sysTs:  uint64(now.UnixMicro()),
		width:  p.width,
		height: p.height,
		data:   data,
	}
}

// synthesizeSet builds a frameset from one frame of every profile.
func (s *SDK) synthesizeSet(u *unit, ps []profileData) *frameData {
	fs := &frameData{typ: native.FrameSet, format: native.FormatUnknown, index: u.nextIndex(native.FrameSet)}
	for _, p := range ps {
		m := s.synthesize(u, p)
		fs.members = append(fs.members, m)
		fs.ts, fs.sysTs = m.ts, m.sysTs
	}
	return fs
}

func (s *SDK) frame(h native.Handle, fn string, e *native.ErrorRef) (*frameData, bool) {
	if !s.enter(fn, e) {
		return nil, false
	}
	return lookup[*frameData](s, h, KindFrame, fn, e)
}

func (s *SDK) FrameIndex(h native.Handle, e *native.ErrorRef) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.frame(h, "ob_frame_get_index", e); ok {
		return f.index
	}
	return 0
}

func (s *SDK) FrameFormat(h native.Handle, e *native.ErrorRef) native.Format {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.frame(h, "ob_frame_get_format", e); ok {
		return f.format
	}
	return native.FormatUnknown
}

func (s *SDK) FrameType(h native.Handle, e *native.ErrorRef) native.FrameType {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.frame(h, "ob_frame_get_type", e); ok {
		return f.typ
	}
	return native.FrameVideo
}

func (s *SDK) FrameTimestampUs(h native.Handle, e *native.ErrorRef) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.frame(h, "ob_frame_get_timestamp_us", e); ok {
		return f.ts
	}
	return 0
}

func (s *SDK) FrameSystemTimestampUs(h native.Handle, e *native.ErrorRef) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.frame(h, "ob_frame_get_system_timestamp_us", e); ok {
		return f.sysTs
	}
	return 0
}

func (s *SDK) FrameDataSize(h native.Handle, e *native.ErrorRef) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.frame(h, "ob_frame_get_data_size", e); ok {
		return uint32(len(f.data))
	}
	return 0
}

func (s *SDK) FrameData(h native.Handle, buf []byte, e *native.ErrorRef) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.frame(h, "ob_frame_get_data", e); ok {
		return uint32(copy(buf, f.data))
	}
	return 0
}

func (s *SDK) VideoFrameWidth(h native.Handle, e *native.ErrorRef) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.frame(h, "ob_video_frame_get_width", e); ok {
		return uint32(f.width)
	}
	return 0
}

func (s *SDK) VideoFrameHeight(h native.Handle, e *native.ErrorRef) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.frame(h, "ob_video_frame_get_height", e); ok {
		return uint32(f.height)
	}
	return 0
}

func (s *SDK) FrameAddRef(h native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_frame_add_ref"
	if _, ok := s.frame(h, fn, e); ok {
		s.objs[h].refs++
	}
}

// DeleteFrame drops one reference; the handle dies with its last one.
func (s *SDK) DeleteFrame(h native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_delete_frame"
	if _, ok := s.frame(h, fn, e); !ok {
		return
	}
	o := s.objs[h]
	o.refs--
	if o.refs == 0 {
		delete(s.objs, h)
	}
}

func (s *SDK) FramesetFrameCount(h native.Handle, e *native.ErrorRef) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.frame(h, "ob_frameset_get_count", e); ok {
		return uint32(len(f.members))
	}
	return 0
}

func (s *SDK) FramesetGetFrame(h native.Handle, t native.FrameType, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_frameset_get_frame"
	f, ok := s.frame(h, fn, e)
	if !ok {
		return 0
	}
	if f.typ != native.FrameSet {
		s.fail(e, native.ExceptionInvalidValue, fn, "frame %#x is not a frameset", uintptr(h))
		return 0
	}
	for _, m := range f.members {
		if m.typ == t {
			return s.add(KindFrame, m)
		}
	}
	return 0
}

// releaseFramesLocked drops one reference on each handle. The caller holds s.mu.
func (s *SDK) releaseFramesLocked(hs []native.Handle) {
	for _, h := range hs {
		if o, ok := s.objs[h]; ok {
			o.refs--
			if o.refs <= 0 {
				delete(s.objs, h)
			}
		}
	}
}
