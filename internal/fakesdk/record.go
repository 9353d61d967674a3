package fakesdk

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/orbbec/obsdk-go/internal/native"
)

// Recording layout, inside one zstd stream:
//
//	magic | u32 header length | yaml header | records... | end tag
//
// Each record is a tag byte followed by recordWire and the payload.
const recordMagic = "OBFAKE1\n"

const (
	tagEnd   byte = 0
	tagFrame byte = 1
)

type recordHeader struct {
	Device DeviceSpec         `yaml:"device"`
	Param  native.CameraParam `yaml:"camera_param"`
}

type recordWire struct {
	Type   int32
	Format int32
	Width  uint32
	Height uint32
	Index  uint64
	TS     uint64
	Len    uint32
}

type recorderData struct {
	u *unit

	mu      sync.Mutex
	path    string
	file    *os.File
	enc     *zstd.Encoder
	running bool
	frames  int
	err     error
}

// tapList snapshots the recorders attached to u. The caller holds s.mu.
func (u *unit) tapList() []*recorderData {
	if len(u.taps) == 0 {
		return nil
	}
	out := make([]*recorderData, 0, len(u.taps))
	for r := range u.taps {
		out = append(out, r)
	}
	return out
}

func (r *recorderData) open(path string, hdr recordHeader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		f.Close()
		return err
	}
	meta, err := yaml.Marshal(hdr)
	if err != nil {
		enc.Close()
		f.Close()
		return err
	}
	var b bytes.Buffer
	b.WriteString(recordMagic)
	b.Write(binary.LittleEndian.AppendUint32(nil, uint32(len(meta))))
	b.Write(meta)
	if _, err := enc.Write(b.Bytes()); err != nil {
		enc.Close()
		f.Close()
		return err
	}
	r.path, r.file, r.enc, r.running, r.frames, r.err = path, f, enc, true, 0, nil
	return nil
}

// write appends fd, or its members when fd is a frameset. It is a no-op once
// the recorder has stopped.
func (r *recorderData) write(fd *frameData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running || r.err != nil {
		return
	}
	if fd.typ == native.FrameSet {
		for _, m := range fd.members {
			r.writeLocked(m)
		}
		return
	}
	r.writeLocked(fd)
}

func (r *recorderData) writeLocked(fd *frameData) {
	w := recordWire{
		Type:   int32(fd.typ),
		Format: int32(fd.format),
		Width:  uint32(fd.width),
		Height: uint32(fd.height),
		Index:  fd.index,
		TS:     fd.ts,
		Len:    uint32(len(fd.data)),
	}
	buf := []byte{tagFrame}
	buf, err := binary.Append(buf, binary.LittleEndian, w)
	if err != nil {
		r.err = err
		return
	}
	buf = append(buf, fd.data...)
	if _, err := r.enc.Write(buf); err != nil {
		r.err = err
		return
	}
	r.frames++
}

// stop writes the end tag and closes the file.
func (r *recorderData) stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return nil
	}
	r.running = false
	err := r.err
	if err == nil {
		_, err = r.enc.Write([]byte{tagEnd})
	}
	return errors.Join(err, r.enc.Close(), r.file.Close())
}

// readRecording decodes a file produced by recorderData.
func readRecording(path string) (recordHeader, []*frameData, error) {
	var hdr recordHeader
	f, err := os.Open(path)
	if err != nil {
		return hdr, nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return hdr, nil, err
	}
	defer dec.Close()
	br := bufio.NewReader(dec)

	magic := make([]byte, len(recordMagic))
	if _, err := io.ReadFull(br, magic); err != nil || string(magic) != recordMagic {
		return hdr, nil, fmt.Errorf("not a recording: %s", path)
	}
	var n uint32
	if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
		return hdr, nil, err
	}
	meta := make([]byte, n)
	if _, err := io.ReadFull(br, meta); err != nil {
		return hdr, nil, err
	}
	if err := yaml.Unmarshal(meta, &hdr); err != nil {
		return hdr, nil, err
	}

	var frames []*frameData
	for {
		tag, err := br.ReadByte()
		if err != nil {
			return hdr, nil, fmt.Errorf("truncated recording: %w", err)
		}
		if tag == tagEnd {
			return hdr, frames, nil
		}
		if tag != tagFrame {
			return hdr, nil, fmt.Errorf("bad record tag %d", tag)
		}
		var w recordWire
		if err := binary.Read(br, binary.LittleEndian, &w); err != nil {
			return hdr, nil, err
		}
		data := make([]byte, w.Len)
		if _, err := io.ReadFull(br, data); err != nil {
			return hdr, nil, err
		}
		frames = append(frames, &frameData{
			typ:    native.FrameType(w.Type),
			format: native.Format(w.Format),
			width:  int(w.Width),
			height: int(w.Height),
			index:  w.Index,
			ts:     w.TS,
			data:   data,
		})
	}
}

// cameraParam derives pinhole intrinsics from the first depth and color
// profiles of d.
func cameraParam(d DeviceSpec) native.CameraParam {
	intr := func(sensor string) native.Intrinsic {
		for _, ss := range d.Sensors {
			if ss.Type != sensor || len(ss.Profiles) == 0 {
				continue
			}
			p := ss.Profiles[0]
			w, h := float32(p.Width), float32(p.Height)
			return native.Intrinsic{Fx: w * 0.9, Fy: w * 0.9, Cx: w / 2, Cy: h / 2, Width: int16(p.Width), Height: int16(p.Height)}
		}
		return native.Intrinsic{}
	}
	p := native.CameraParam{DepthIntrinsic: intr("depth"), RGBIntrinsic: intr("color")}
	p.Transform.Rot = [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1}
	p.Transform.Trans = [3]float32{-50, 0, 0}
	return p
}

func (s *SDK) CreateRecorder(e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("ob_create_recorder", e) {
		return 0
	}
	return s.add(KindRecorder, &recorderData{})
}

func (s *SDK) CreateRecorderWithDevice(dev native.Handle, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.device(dev, "ob_create_recorder_with_device", e)
	if !ok {
		return 0
	}
	return s.add(KindRecorder, &recorderData{u: d.u})
}

func (s *SDK) recorder(h native.Handle, fn string, e *native.ErrorRef) (*recorderData, bool) {
	if !s.enter(fn, e) {
		return nil, false
	}
	return lookup[*recorderData](s, h, KindRecorder, fn, e)
}

// RecorderStart opens path. A device-bound recorder taps every frame the
// device produces until it is stopped. The fake always writes synchronously,
// whatever async says.
func (s *SDK) RecorderStart(h native.Handle, path string, async bool, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_recorder_start"
	r, ok := s.recorder(h, fn, e)
	if !ok {
		return
	}
	r.mu.Lock()
	running := r.running
	r.mu.Unlock()
	if running {
		s.fail(e, native.ExceptionWrongAPICallSequence, fn, "recorder already started")
		return
	}
	var hdr recordHeader
	if r.u != nil {
		hdr = recordHeader{Device: r.u.spec, Param: cameraParam(r.u.spec)}
	}
	r.mu.Lock()
	err := r.open(path, hdr)
	r.mu.Unlock()
	if err != nil {
		s.fail(e, native.ExceptionIO, fn, "open %s: %v", path, err)
		return
	}
	if r.u != nil {
		r.u.taps[r] = struct{}{}
	}
}

func (s *SDK) RecorderStop(h native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_recorder_stop"
	r, ok := s.recorder(h, fn, e)
	if !ok {
		return
	}
	s.stopRecorderLocked(r, fn, e)
}

func (s *SDK) stopRecorderLocked(r *recorderData, fn string, e *native.ErrorRef) {
	if r.u != nil {
		delete(r.u.taps, r)
	}
	if err := r.stop(); err != nil {
		s.fail(e, native.ExceptionIO, fn, "close %s: %v", r.path, err)
	}
}

func (s *SDK) RecorderWriteFrame(h, frame native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	const fn = "ob_recorder_write_frame"
	r, ok := s.recorder(h, fn, e)
	if !ok {
		s.mu.Unlock()
		return
	}
	fd, ok := lookup[*frameData](s, frame, KindFrame, fn, e)
	if !ok {
		s.mu.Unlock()
		return
	}
	r.mu.Lock()
	running := r.running
	r.mu.Unlock()
	if !running {
		s.fail(e, native.ExceptionWrongAPICallSequence, fn, "recorder not started")
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	r.write(fd)
}

// RecordedFrames reports how many frames the recorder behind h has written
// since it was last started.
func (s *SDK) RecordedFrames(h native.Handle) int {
	s.mu.Lock()
	o, ok := s.objs[h]
	s.mu.Unlock()
	if !ok {
		return 0
	}
	r, ok := o.val.(*recorderData)
	if !ok {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func (s *SDK) DeleteRecorder(h native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_delete_recorder"
	if !s.enter(fn, e) {
		return
	}
	v, ok := s.remove(h, KindRecorder, fn, e)
	if !ok {
		return
	}
	s.stopRecorderLocked(v.(*recorderData), fn, e)
}

type playbackData struct {
	hdr    recordHeader
	frames []*frameData
	st     *stream

	stateFn    native.MediaStateFunc
	stateToken native.Token
}

// CreatePlayback loads a whole recording into memory.
func (s *SDK) CreatePlayback(path string, e *native.ErrorRef) native.Handle {
	const fn = "ob_create_playback"
	hdr, frames, err := readRecording(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter(fn, e) {
		return 0
	}
	if err != nil {
		s.fail(e, native.ExceptionIO, fn, "load %s: %v", path, err)
		return 0
	}
	return s.add(KindPlayback, &playbackData{hdr: hdr, frames: frames})
}

func (s *SDK) playback(h native.Handle, fn string, e *native.ErrorRef) (*playbackData, bool) {
	if !s.enter(fn, e) {
		return nil, false
	}
	return lookup[*playbackData](s, h, KindPlayback, fn, e)
}

func (s *SDK) PlaybackStart(h native.Handle, cb native.FrameFunc, token native.Token, media native.MediaType, e *native.ErrorRef) {
	s.mu.Lock()
	s.bind(token, cb != nil)
	defer s.mu.Unlock()
	const fn = "ob_playback_start"
	pb, ok := s.playback(h, fn, e)
	if !ok {
		return
	}
	if pb.st != nil {
		s.fail(e, native.ExceptionWrongAPICallSequence, fn, "playback already started")
		return
	}
	st := newStream()
	pb.st = st
	s.bg.Add(1)
	go s.replay(pb, st, cb, token, media)
}

// replay delivers the recorded frames at the configured frame interval and
// reports begin and end through the state callback. A halted replay does
// not report MediaEnd.
func (s *SDK) replay(pb *playbackData, st *stream, cb native.FrameFunc, token native.Token, media native.MediaType) {
	defer s.bg.Done()
	defer close(st.done)

	s.notifyMedia(pb, native.MediaBegin)
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for _, fd := range pb.frames {
		if native.MediaOf(fd.typ)&media == 0 {
			continue
		}
		select {
		case <-st.stop:
			return
		case <-t.C:
		}
		s.mu.Lock()
		h := s.add(KindFrame, fd)
		s.mu.Unlock()
		if cb == nil {
			s.DeleteFrame(h, nil)
			continue
		}
		cb(h, token)
	}

	s.mu.Lock()
	if pb.st == st {
		pb.st = nil
	}
	s.mu.Unlock()
	select {
	case <-st.stop:
		return
	default:
	}
	s.notifyMedia(pb, native.MediaEnd)
}

func (s *SDK) notifyMedia(pb *playbackData, state native.MediaState) {
	s.mu.Lock()
	fn, token := pb.stateFn, pb.stateToken
	s.mu.Unlock()
	if fn != nil {
		fn(state, token)
	}
}

func (s *SDK) PlaybackStop(h native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	pb, ok := s.playback(h, "ob_playback_stop", e)
	if !ok {
		s.mu.Unlock()
		return
	}
	st := pb.st
	pb.st = nil
	s.mu.Unlock()
	if st != nil {
		st.halt()
	}
}

func (s *SDK) PlaybackSetStateCallback(h native.Handle, cb native.MediaStateFunc, token native.Token, e *native.ErrorRef) {
	s.mu.Lock()
	s.bind(token, cb != nil)
	defer s.mu.Unlock()
	if pb, ok := s.playback(h, "ob_playback_set_playback_state_callback", e); ok {
		pb.stateFn, pb.stateToken = cb, token
	}
}

func (s *SDK) PlaybackGetDeviceInfo(h native.Handle, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	pb, ok := s.playback(h, "ob_playback_get_device_info", e)
	if !ok {
		return 0
	}
	spec := pb.hdr.Device
	return s.add(KindDeviceInfo, &spec)
}

func (s *SDK) PlaybackGetCameraParam(h native.Handle, e *native.ErrorRef) native.CameraParam {
	s.mu.Lock()
	defer s.mu.Unlock()
	pb, ok := s.playback(h, "ob_playback_get_camera_param", e)
	if !ok {
		return native.CameraParam{}
	}
	return pb.hdr.Param
}

// DeletePlayback stops a running replay before freeing the handle.
func (s *SDK) DeletePlayback(h native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	const fn = "ob_delete_playback"
	if !s.enter(fn, e) {
		s.mu.Unlock()
		return
	}
	v, ok := s.remove(h, KindPlayback, fn, e)
	if !ok {
		s.mu.Unlock()
		return
	}
	pb := v.(*playbackData)
	st := pb.st
	pb.st = nil
	s.mu.Unlock()
	if st != nil {
		st.halt()
	}
}
