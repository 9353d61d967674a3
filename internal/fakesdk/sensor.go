package fakesdk

import (
	"time"

	"github.com/orbbec/obsdk-go/internal/native"
)

type sensorListData struct {
	u     *unit
	types []native.SensorType
}

type sensorData struct {
	u   *unit
	typ native.SensorType
}

type profileData struct {
	stream native.StreamType
	format native.Format
	width  int
	height int
	fps    int
}

type profileListData struct {
	profiles []profileData
}

type filterListData struct {
	names []string
}

// stream is one running frame producer.
type stream struct {
	stop chan struct{}
	done chan struct{}
}

func newStream() *stream {
	return &stream{stop: make(chan struct{}), done: make(chan struct{})}
}

// halt stops the producer and waits until it has delivered its last frame.
// The caller must not hold s.mu.
func (st *stream) halt() {
	close(st.stop)
	<-st.done
}

func (u *unit) sensorSpec(t native.SensorType) (SensorSpec, bool) {
	for _, ss := range u.spec.Sensors {
		if st, _ := native.ParseSensorType(ss.Type); st == t {
			return ss, true
		}
	}
	return SensorSpec{}, false
}

func (u *unit) profiles(t native.SensorType) ([]profileData, bool) {
	ss, ok := u.sensorSpec(t)
	if !ok {
		return nil, false
	}
	out := make([]profileData, 0, len(ss.Profiles))
	for _, p := range ss.Profiles {
		f, _ := native.ParseFormat(p.Format)
		out = append(out, profileData{stream: native.StreamOf(t), format: f, width: p.Width, height: p.Height, fps: p.FPS})
	}
	return out, true
}

// newSensor creates a sensor handle. The caller holds s.mu.
func (s *SDK) newSensor(u *unit, t native.SensorType, fn string, e *native.ErrorRef) native.Handle {
	if _, ok := u.sensorSpec(t); !ok {
		s.fail(e, native.ExceptionInvalidValue, fn, "device %s has no %s sensor", u.spec.Serial, t)
		return 0
	}
	return s.add(KindSensor, &sensorData{u: u, typ: t})
}

func (s *SDK) SensorListCount(list native.Handle, e *native.ErrorRef) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_sensor_list_get_count"
	if !s.enter(fn, e) {
		return 0
	}
	sl, ok := lookup[*sensorListData](s, list, KindSensorList, fn, e)
	if !ok {
		return 0
	}
	return uint32(len(sl.types))
}

func (s *SDK) sensorAt(list native.Handle, index uint32, fn string, e *native.ErrorRef) (*sensorListData, native.SensorType, bool) {
	if !s.enter(fn, e) {
		return nil, 0, false
	}
	sl, ok := lookup[*sensorListData](s, list, KindSensorList, fn, e)
	if !ok {
		return nil, 0, false
	}
	if int(index) >= len(sl.types) {
		s.fail(e, native.ExceptionInvalidValue, fn, "index %d out of range [0,%d)", index, len(sl.types))
		return nil, 0, false
	}
	return sl, sl.types[index], true
}

func (s *SDK) SensorListType(list native.Handle, index uint32, e *native.ErrorRef) native.SensorType {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, t, _ := s.sensorAt(list, index, "ob_sensor_list_get_sensor_type", e)
	return t
}

func (s *SDK) SensorListGetSensor(list native.Handle, index uint32, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_sensor_list_get_sensor"
	sl, t, ok := s.sensorAt(list, index, fn, e)
	if !ok {
		return 0
	}
	return s.newSensor(sl.u, t, fn, e)
}

func (s *SDK) SensorListGetSensorByType(list native.Handle, t native.SensorType, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_sensor_list_get_sensor_by_type"
	if !s.enter(fn, e) {
		return 0
	}
	sl, ok := lookup[*sensorListData](s, list, KindSensorList, fn, e)
	if !ok {
		return 0
	}
	return s.newSensor(sl.u, t, fn, e)
}

func (s *SDK) DeleteSensorList(list native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_delete_sensor_list"
	if !s.enter(fn, e) {
		return
	}
	s.remove(list, KindSensorList, fn, e)
}

func (s *SDK) sensor(h native.Handle, fn string, e *native.ErrorRef) (*sensorData, bool) {
	if !s.enter(fn, e) {
		return nil, false
	}
	sd, ok := lookup[*sensorData](s, h, KindSensor, fn, e)
	if !ok {
		return nil, false
	}
	if !sd.u.attached {
		s.fail(e, native.ExceptionCameraDisconnected, fn, "device %s is disconnected", sd.u.spec.Serial)
		return nil, false
	}
	return sd, true
}

func (s *SDK) SensorGetType(h native.Handle, e *native.ErrorRef) native.SensorType {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sd, ok := s.sensor(h, "ob_sensor_get_type", e); ok {
		return sd.typ
	}
	return native.SensorUnknown
}

func (s *SDK) SensorGetStreamProfileList(h native.Handle, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	sd, ok := s.sensor(h, "ob_sensor_get_stream_profile_list", e)
	if !ok {
		return 0
	}
	ps, _ := sd.u.profiles(sd.typ)
	return s.add(KindProfileList, &profileListData{profiles: ps})
}

func (s *SDK) SensorStart(h, profile native.Handle, cb native.FrameFunc, token native.Token, e *native.ErrorRef) {
	s.mu.Lock()
	s.bind(token, cb != nil)
	defer s.mu.Unlock()
	const fn = "ob_sensor_start"
	sd, ok := s.sensor(h, fn, e)
	if !ok {
		return
	}
	pd, ok := lookup[*profileData](s, profile, KindProfile, fn, e)
	if !ok {
		return
	}
	if pd.stream != native.StreamOf(sd.typ) {
		s.fail(e, native.ExceptionInvalidValue, fn, "profile stream %s does not match %s sensor", pd.stream, sd.typ)
		return
	}
	if _, busy := sd.u.streams[sd.typ]; busy {
		s.fail(e, native.ExceptionWrongAPICallSequence, fn, "%s sensor already streaming", sd.typ)
		return
	}
	st := newStream()
	sd.u.streams[sd.typ] = st
	go s.produce(st, sd.u, *pd, cb, token)
}

// produce emits frames for one sensor until st is halted.
func (s *SDK) produce(st *stream, u *unit, p profileData, cb native.FrameFunc, token native.Token) {
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
		fd := s.synthesize(u, p)
		h := s.add(KindFrame, fd)
		taps := u.tapList()
		s.mu.Unlock()

		for _, r := range taps {
			r.write(fd)
		}
		if cb == nil {
			s.DeleteFrame(h, nil)
			continue
		}
		cb(h, token)
	}
}

func (s *SDK) SensorStop(h native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	const fn = "ob_sensor_stop"
	if !s.enter(fn, e) {
		s.mu.Unlock()
		return
	}
	sd, ok := lookup[*sensorData](s, h, KindSensor, fn, e)
	if !ok {
		s.mu.Unlock()
		return
	}
	st := sd.u.streams[sd.typ]
	delete(sd.u.streams, sd.typ)
	s.mu.Unlock()
	if st != nil {
		st.halt()
	}
}

func (s *SDK) SensorSwitchProfile(h, profile native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_sensor_switch_profile"
	sd, ok := s.sensor(h, fn, e)
	if !ok {
		return
	}
	pd, ok := lookup[*profileData](s, profile, KindProfile, fn, e)
	if !ok {
		return
	}
	if pd.stream != native.StreamOf(sd.typ) {
		s.fail(e, native.ExceptionInvalidValue, fn, "profile stream %s does not match %s sensor", pd.stream, sd.typ)
		return
	}
	if _, busy := sd.u.streams[sd.typ]; !busy {
		s.fail(e, native.ExceptionWrongAPICallSequence, fn, "%s sensor is not streaming", sd.typ)
	}
}

func (s *SDK) SensorCreateRecommendedFilterList(h native.Handle, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	sd, ok := s.sensor(h, "ob_sensor_create_recommended_filter_list", e)
	if !ok {
		return 0
	}
	var names []string
	if sd.typ == native.SensorDepth {
		names = recommendedDepthFilters
	}
	return s.add(KindFilterList, &filterListData{names: names})
}

// DeleteSensor stops a running stream before releasing the sensor.
func (s *SDK) DeleteSensor(h native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	const fn = "ob_delete_sensor"
	if !s.enter(fn, e) {
		s.mu.Unlock()
		return
	}
	v, ok := s.remove(h, KindSensor, fn, e)
	if !ok {
		s.mu.Unlock()
		return
	}
	sd := v.(*sensorData)
	var st *stream
	if !s.sensorInUseLocked(sd) {
		st = sd.u.streams[sd.typ]
		delete(sd.u.streams, sd.typ)
	}
	s.mu.Unlock()
	if st != nil {
		st.halt()
	}
}

// sensorInUseLocked reports whether another handle refers to the same sensor.
func (s *SDK) sensorInUseLocked(sd *sensorData) bool {
	for _, o := range s.objs {
		if x, ok := o.val.(*sensorData); ok && x.u == sd.u && x.typ == sd.typ {
			return true
		}
	}
	return false
}

func (s *SDK) FilterListCount(list native.Handle, e *native.ErrorRef) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_filter_list_get_count"
	if !s.enter(fn, e) {
		return 0
	}
	fl, ok := lookup[*filterListData](s, list, KindFilterList, fn, e)
	if !ok {
		return 0
	}
	return uint32(len(fl.names))
}

func (s *SDK) FilterListGetFilter(list native.Handle, index uint32, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_filter_list_get_filter"
	if !s.enter(fn, e) {
		return 0
	}
	fl, ok := lookup[*filterListData](s, list, KindFilterList, fn, e)
	if !ok {
		return 0
	}
	if int(index) >= len(fl.names) {
		s.fail(e, native.ExceptionInvalidValue, fn, "index %d out of range [0,%d)", index, len(fl.names))
		return 0
	}
	return s.newFilter(fl.names[index], fn, e)
}

func (s *SDK) DeleteFilterList(list native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_delete_filter_list"
	if !s.enter(fn, e) {
		return
	}
	s.remove(list, KindFilterList, fn, e)
}

func (s *SDK) StreamProfileListCount(list native.Handle, e *native.ErrorRef) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_stream_profile_list_get_count"
	if !s.enter(fn, e) {
		return 0
	}
	pl, ok := lookup[*profileListData](s, list, KindProfileList, fn, e)
	if !ok {
		return 0
	}
	return uint32(len(pl.profiles))
}

func (s *SDK) StreamProfileListGetProfile(list native.Handle, index uint32, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_stream_profile_list_get_profile"
	if !s.enter(fn, e) {
		return 0
	}
	pl, ok := lookup[*profileListData](s, list, KindProfileList, fn, e)
	if !ok {
		return 0
	}
	if int(index) >= len(pl.profiles) {
		s.fail(e, native.ExceptionInvalidValue, fn, "index %d out of range [0,%d)", index, len(pl.profiles))
		return 0
	}
	p := pl.profiles[index]
	return s.add(KindProfile, &p)
}

func (s *SDK) StreamProfileListGetVideoProfile(list native.Handle, width, height int32, format native.Format, fps int32, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_stream_profile_list_get_video_stream_profile"
	if !s.enter(fn, e) {
		return 0
	}
	pl, ok := lookup[*profileListData](s, list, KindProfileList, fn, e)
	if !ok {
		return 0
	}
	for _, p := range pl.profiles {
		if (width == 0 || int(width) == p.width) &&
			(height == 0 || int(height) == p.height) &&
			(format == native.FormatAny || format == p.format) &&
			(fps == 0 || int(fps) == p.fps) {
			return s.add(KindProfile, &p)
		}
	}
	s.fail(e, native.ExceptionInvalidValue, fn, "no profile matches %dx%d %s@%d", width, height, format, fps)
	return 0
}

func (s *SDK) DeleteStreamProfileList(list native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_delete_stream_profile_list"
	if !s.enter(fn, e) {
		return
	}
	s.remove(list, KindProfileList, fn, e)
}

func (s *SDK) profile(h native.Handle, fn string, e *native.ErrorRef) (*profileData, bool) {
	if !s.enter(fn, e) {
		return nil, false
	}
	return lookup[*profileData](s, h, KindProfile, fn, e)
}

func (s *SDK) StreamProfileType(h native.Handle, e *native.ErrorRef) native.StreamType {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profile(h, "ob_stream_profile_get_type", e); ok {
		return p.stream
	}
	return native.StreamVideo
}

func (s *SDK) StreamProfileFormat(h native.Handle, e *native.ErrorRef) native.Format {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profile(h, "ob_stream_profile_get_format", e); ok {
		return p.format
	}
	return native.FormatUnknown
}

func (s *SDK) VideoStreamProfileWidth(h native.Handle, e *native.ErrorRef) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profile(h, "ob_video_stream_profile_get_width", e); ok {
		return uint32(p.width)
	}
	return 0
}

func (s *SDK) VideoStreamProfileHeight(h native.Handle, e *native.ErrorRef) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profile(h, "ob_video_stream_profile_get_height", e); ok {
		return uint32(p.height)
	}
	return 0
}

func (s *SDK) VideoStreamProfileFPS(h native.Handle, e *native.ErrorRef) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profile(h, "ob_video_stream_profile_get_fps", e); ok {
		return uint32(p.fps)
	}
	return 0
}

func (s *SDK) DeleteStreamProfile(h native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_delete_stream_profile"
	if !s.enter(fn, e) {
		return
	}
	s.remove(h, KindProfile, fn, e)
}
