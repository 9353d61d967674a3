package fakesdk

import (
	"time"

	"github.com/orbbec/obsdk-go/internal/native"
)

type pipelineData struct {
	u         *unit
	st        *stream
	queue     []native.Handle
	notify    chan struct{}
	frameSync bool
}

type configData struct {
	profiles []profileData
	align    native.AlignMode
}

func (s *SDK) CreatePipeline(e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_create_pipeline"
	if !s.enter(fn, e) {
		return 0
	}
	units := s.attachedLocked()
	if len(units) == 0 {
		s.fail(e, native.ExceptionCameraDisconnected, fn, "no device connected")
		return 0
	}
	return s.add(KindPipeline, &pipelineData{u: units[0], notify: make(chan struct{}, 1)})
}

func (s *SDK) CreatePipelineWithDevice(dev native.Handle, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.device(dev, "ob_create_pipeline_with_device", e)
	if !ok {
		return 0
	}
	return s.add(KindPipeline, &pipelineData{u: d.u, notify: make(chan struct{}, 1)})
}

// DeletePipeline stops a running pipeline before releasing it.
func (s *SDK) DeletePipeline(p native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	const fn = "ob_delete_pipeline"
	if !s.enter(fn, e) {
		s.mu.Unlock()
		return
	}
	v, ok := s.remove(p, KindPipeline, fn, e)
	if !ok {
		s.mu.Unlock()
		return
	}
	st := s.stopPipelineLocked(v.(*pipelineData))
	s.mu.Unlock()
	if st != nil {
		st.halt()
	}
}

func (s *SDK) pipeline(p native.Handle, fn string, e *native.ErrorRef) (*pipelineData, bool) {
	if !s.enter(fn, e) {
		return nil, false
	}
	pl, ok := lookup[*pipelineData](s, p, KindPipeline, fn, e)
	if !ok {
		return nil, false
	}
	if !pl.u.attached {
		s.fail(e, native.ExceptionCameraDisconnected, fn, "device %s is disconnected", pl.u.spec.Serial)
		return nil, false
	}
	return pl, true
}

// defaultProfiles picks the first depth and color profiles.
func (u *unit) defaultProfiles() []profileData {
	var out []profileData
	for _, t := range []native.SensorType{native.SensorDepth, native.SensorColor} {
		if ps, ok := u.profiles(t); ok && len(ps) > 0 {
			out = append(out, ps[0])
		}
	}
	return out
}

func (s *SDK) PipelineStart(p native.Handle, e *native.ErrorRef) {
	s.startPipeline(p, 0, nil, 0, "ob_pipeline_start", e)
}

func (s *SDK) PipelineStartWithConfig(p, cfg native.Handle, e *native.ErrorRef) {
	s.startPipeline(p, cfg, nil, 0, "ob_pipeline_start_with_config", e)
}

func (s *SDK) PipelineStartWithCallback(p, cfg native.Handle, cb native.FrameFunc, token native.Token, e *native.ErrorRef) {
	s.startPipeline(p, cfg, cb, token, "ob_pipeline_start_with_callback", e)
}

func (s *SDK) startPipeline(p, cfg native.Handle, cb native.FrameFunc, token native.Token, fn string, e *native.ErrorRef) {
	s.mu.Lock()
	s.bind(token, cb != nil)
	defer s.mu.Unlock()
	pl, ok := s.pipeline(p, fn, e)
	if !ok {
		return
	}
	if pl.st != nil {
		s.fail(e, native.ExceptionWrongAPICallSequence, fn, "pipeline already started")
		return
	}
	var ps []profileData
	if cfg != 0 {
		c, ok := lookup[*configData](s, cfg, KindConfig, fn, e)
		if !ok {
			return
		}
		ps = append(ps, c.profiles...)
	}
	if len(ps) == 0 {
		ps = pl.u.defaultProfiles()
	}
	if len(ps) == 0 {
		s.fail(e, native.ExceptionUnsupportedOperation, fn, "device %s has no video streams", pl.u.spec.Serial)
		return
	}
	pl.st = newStream()
	go s.pump(pl, pl.st, ps, cb, token)
}

// pump emits framesets until st is halted. Without a callback framesets go
// to the bounded wait queue, dropping the oldest.
func (s *SDK) pump(pl *pipelineData, st *stream, ps []profileData, cb native.FrameFunc, token native.Token) {
	defer close(st.done)
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-st.stop:
			return
		case <-t.C:
		}
		s.mu.Lock()
		if pl.st != st {
			s.mu.Unlock()
			return
		}
		if !pl.u.attached {
			s.mu.Unlock()
			continue
		}
		fs := s.synthesizeSet(pl.u, ps)
		h := s.add(KindFrame, fs)
		taps := pl.u.tapList()
		if cb == nil {
			pl.queue = append(pl.queue, h)
			if over := len(pl.queue) - s.queueDepth; over > 0 {
				s.releaseFramesLocked(pl.queue[:over])
				pl.queue = append([]native.Handle(nil), pl.queue[over:]...)
			}
			select {
			case pl.notify <- struct{}{}:
			default:
			}
		}
		s.mu.Unlock()

		for _, r := range taps {
			for _, m := range fs.members {
				r.write(m)
			}
		}
		if cb != nil {
			cb(h, token)
		}
	}
}

// stopPipelineLocked detaches the producer and drops queued framesets. The
// caller halts the returned stream after unlocking.
func (s *SDK) stopPipelineLocked(pl *pipelineData) *stream {
	st := pl.st
	pl.st = nil
	s.releaseFramesLocked(pl.queue)
	pl.queue = nil
	return st
}

func (s *SDK) PipelineStop(p native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	const fn = "ob_pipeline_stop"
	if !s.enter(fn, e) {
		s.mu.Unlock()
		return
	}
	pl, ok := lookup[*pipelineData](s, p, KindPipeline, fn, e)
	if !ok {
		s.mu.Unlock()
		return
	}
	st := s.stopPipelineLocked(pl)
	s.mu.Unlock()
	if st != nil {
		st.halt()
	}
}

func (s *SDK) PipelineWaitForFrameset(p native.Handle, timeoutMs uint32, e *native.ErrorRef) native.Handle {
	const fn = "ob_pipeline_wait_for_frameset"
	deadline := time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	first := true
	for {
		s.mu.Lock()
		var (
			pl *pipelineData
			ok bool
		)
		if first {
			pl, ok = s.pipeline(p, fn, e)
			first = false
		} else {
			pl, ok = lookup[*pipelineData](s, p, KindPipeline, fn, e)
		}
		if !ok {
			s.mu.Unlock()
			return 0
		}
		if len(pl.queue) > 0 {
			h := pl.queue[0]
			pl.queue = pl.queue[1:]
			s.mu.Unlock()
			return h
		}
		if pl.st == nil {
			s.fail(e, native.ExceptionWrongAPICallSequence, fn, "pipeline not started")
			s.mu.Unlock()
			return 0
		}
		notify := pl.notify
		s.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0
		}
		timer := time.NewTimer(remaining)
		select {
		case <-notify:
			timer.Stop()
		case <-timer.C:
			return 0
		}
	}
}

func (s *SDK) PipelineGetDevice(p native.Handle, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	pl, ok := s.pipeline(p, "ob_pipeline_get_device", e)
	if !ok {
		return 0
	}
	return s.add(KindDevice, &deviceData{u: pl.u})
}

func (s *SDK) PipelineGetStreamProfileList(p native.Handle, t native.SensorType, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_pipeline_get_stream_profile_list"
	pl, ok := s.pipeline(p, fn, e)
	if !ok {
		return 0
	}
	ps, ok := pl.u.profiles(t)
	if !ok {
		s.fail(e, native.ExceptionInvalidValue, fn, "device %s has no %s sensor", pl.u.spec.Serial, t)
		return 0
	}
	return s.add(KindProfileList, &profileListData{profiles: ps})
}

func (s *SDK) PipelineEnableFrameSync(p native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pl, ok := s.pipeline(p, "ob_pipeline_enable_frame_sync", e); ok {
		pl.frameSync = true
	}
}

func (s *SDK) PipelineDisableFrameSync(p native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pl, ok := s.pipeline(p, "ob_pipeline_disable_frame_sync", e); ok {
		pl.frameSync = false
	}
}

func (s *SDK) CreateConfig(e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("ob_create_config", e) {
		return 0
	}
	return s.add(KindConfig, &configData{})
}

func (s *SDK) DeleteConfig(cfg native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_delete_config"
	if !s.enter(fn, e) {
		return
	}
	s.remove(cfg, KindConfig, fn, e)
}

func (s *SDK) config(cfg native.Handle, fn string, e *native.ErrorRef) (*configData, bool) {
	if !s.enter(fn, e) {
		return nil, false
	}
	return lookup[*configData](s, cfg, KindConfig, fn, e)
}

// ConfigEnableStream replaces any profile already enabled for the stream.
func (s *SDK) ConfigEnableStream(cfg, profile native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_config_enable_stream_with_stream_profile"
	c, ok := s.config(cfg, fn, e)
	if !ok {
		return
	}
	p, ok := lookup[*profileData](s, profile, KindProfile, fn, e)
	if !ok {
		return
	}
	for i := range c.profiles {
		if c.profiles[i].stream == p.stream {
			c.profiles[i] = *p
			return
		}
	}
	c.profiles = append(c.profiles, *p)
}

func (s *SDK) ConfigDisableStream(cfg native.Handle, t native.StreamType, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.config(cfg, "ob_config_disable_stream", e)
	if !ok {
		return
	}
	kept := c.profiles[:0]
	for _, p := range c.profiles {
		if p.stream != t {
			kept = append(kept, p)
		}
	}
	c.profiles = kept
}

func (s *SDK) ConfigDisableAllStream(cfg native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.config(cfg, "ob_config_disable_all_stream", e); ok {
		c.profiles = nil
	}
}

func (s *SDK) ConfigSetAlignMode(cfg native.Handle, mode native.AlignMode, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_config_set_align_mode"
	c, ok := s.config(cfg, fn, e)
	if !ok {
		return
	}
	if mode < native.AlignDisable || mode > native.AlignSoftware {
		s.fail(e, native.ExceptionInvalidValue, fn, "invalid align mode %d", mode)
		return
	}
	c.align = mode
}
