package fakesdk

import (
	"maps"
	"slices"

	"github.com/orbbec/obsdk-go/internal/native"
)

var recommendedDepthFilters = []string{
	"DecimationFilter",
	"SpatialAdvancedFilter",
	"TemporalFilter",
	"HoleFillingFilter",
	"ThresholdFilter",
}

var filterSchemas = map[string][]native.FilterConfigSchemaItem{
	"DecimationFilter": {
		{Name: "decimate", Type: native.FilterConfigInt, Min: 1, Max: 8, Step: 1, Def: 2, Desc: "decimation factor"},
	},
	"SpatialAdvancedFilter": {
		{Name: "alpha", Type: native.FilterConfigFloat, Min: 0.01, Max: 1, Step: 0.01, Def: 0.5, Desc: "smoothing weight"},
		{Name: "disp_diff", Type: native.FilterConfigInt, Min: 1, Max: 255, Step: 1, Def: 160, Desc: "edge threshold"},
		{Name: "magnitude", Type: native.FilterConfigInt, Min: 1, Max: 5, Step: 1, Def: 1, Desc: "iterations"},
	},
	"TemporalFilter": {
		{Name: "diff_scale", Type: native.FilterConfigFloat, Min: 0.1, Max: 0.5, Step: 0.01, Def: 0.1, Desc: "difference scale"},
		{Name: "weight", Type: native.FilterConfigFloat, Min: 0.1, Max: 0.9, Step: 0.1, Def: 0.4, Desc: "history weight"},
	},
	"HoleFillingFilter": {
		{Name: "hole_filling_mode", Type: native.FilterConfigInt, Min: 0, Max: 2, Step: 1, Def: 0, Desc: "fill mode"},
	},
	"ThresholdFilter": {
		{Name: "min", Type: native.FilterConfigInt, Min: 0, Max: 16000, Step: 1, Def: 0, Desc: "min depth"},
		{Name: "max", Type: native.FilterConfigInt, Min: 0, Max: 16000, Step: 1, Def: 16000, Desc: "max depth"},
	},
}

// FilterNames lists the filters CreateFilter accepts.
func FilterNames() []string {
	return slices.Sorted(maps.Keys(filterSchemas))
}

type filterData struct {
	name    string
	enabled bool
	schema  []native.FilterConfigSchemaItem
	values  map[string]float64
	cb      native.FrameFunc
	token   native.Token
}

type schemaListData struct {
	items []native.FilterConfigSchemaItem
}

// newFilter creates a filter object. The caller holds s.mu.
func (s *SDK) newFilter(name, fn string, e *native.ErrorRef) native.Handle {
	schema, ok := filterSchemas[name]
	if !ok {
		s.fail(e, native.ExceptionInvalidValue, fn, "unknown filter %q", name)
		return 0
	}
	f := &filterData{name: name, enabled: true, schema: schema, values: make(map[string]float64)}
	for _, it := range schema {
		f.values[it.Name] = it.Def
	}
	return s.add(KindFilter, f)
}

func (s *SDK) CreateFilter(name string, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_create_filter"
	if !s.enter(fn, e) {
		return 0
	}
	return s.newFilter(name, fn, e)
}

func (s *SDK) filter(h native.Handle, fn string, e *native.ErrorRef) (*filterData, bool) {
	if !s.enter(fn, e) {
		return nil, false
	}
	return lookup[*filterData](s, h, KindFilter, fn, e)
}

func (s *SDK) FilterName(h native.Handle, e *native.ErrorRef) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.filter(h, "ob_filter_get_name", e); ok {
		return f.name
	}
	return ""
}

// apply runs the filter on in. The caller holds s.mu.
func (f *filterData) apply(in *frameData) *frameData {
	out := *in
	out.data = slices.Clone(in.data)
	if !f.enabled || f.name != "DecimationFilter" {
		return &out
	}
	k := max(int(f.values["decimate"]), 1)
	out.width, out.height = in.width/k, in.height/k
	out.data = out.data[:payloadSize(in.format, out.width, out.height)]
	return &out
}

func (s *SDK) FilterProcess(h, frame native.Handle, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_filter_process"
	f, ok := s.filter(h, fn, e)
	if !ok {
		return 0
	}
	in, ok := lookup[*frameData](s, frame, KindFrame, fn, e)
	if !ok {
		return 0
	}
	return s.add(KindFrame, f.apply(in))
}

func (s *SDK) FilterEnable(h native.Handle, enable bool, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.filter(h, "ob_filter_enable", e); ok {
		f.enabled = enable
	}
}

func (s *SDK) FilterIsEnabled(h native.Handle, e *native.ErrorRef) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.filter(h, "ob_filter_is_enabled", e)
	return ok && f.enabled
}

func (s *SDK) FilterReset(h native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.filter(h, "ob_filter_reset", e)
	if !ok {
		return
	}
	for _, it := range f.schema {
		f.values[it.Name] = it.Def
	}
}

func (s *SDK) FilterSetCallback(h native.Handle, cb native.FrameFunc, token native.Token, e *native.ErrorRef) {
	s.mu.Lock()
	s.bind(token, cb != nil)
	defer s.mu.Unlock()
	if f, ok := s.filter(h, "ob_filter_set_callback", e); ok {
		f.cb, f.token = cb, token
	}
}

// FilterPushFrame processes frame and hands the result to the filter's
// callback on the calling goroutine. Without a callback the result is
// dropped.
func (s *SDK) FilterPushFrame(h, frame native.Handle, e *native.ErrorRef) {
	const fn = "ob_filter_push_frame"
	s.mu.Lock()
	f, ok := s.filter(h, fn, e)
	if !ok {
		s.mu.Unlock()
		return
	}
	in, ok := lookup[*frameData](s, frame, KindFrame, fn, e)
	if !ok {
		s.mu.Unlock()
		return
	}
	cb, token := f.cb, f.token
	if cb == nil {
		s.mu.Unlock()
		return
	}
	out := s.add(KindFrame, f.apply(in))
	s.mu.Unlock()
	cb(out, token)
}

func (s *SDK) FilterGetConfigSchemaList(h native.Handle, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.filter(h, "ob_filter_get_config_schema_list", e)
	if !ok {
		return 0
	}
	return s.add(KindSchemaList, &schemaListData{items: slices.Clone(f.schema)})
}

func (s *SDK) schemaItem(f *filterData, name string) (native.FilterConfigSchemaItem, bool) {
	for _, it := range f.schema {
		if it.Name == name {
			return it, true
		}
	}
	return native.FilterConfigSchemaItem{}, false
}

func (s *SDK) FilterSetConfigValue(h native.Handle, name string, v float64, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_filter_set_config_value"
	f, ok := s.filter(h, fn, e)
	if !ok {
		return
	}
	it, ok := s.schemaItem(f, name)
	switch {
	case !ok:
		s.fail(e, native.ExceptionInvalidValue, fn, "filter %s has no config %q", f.name, name)
	case v < it.Min || v > it.Max:
		s.fail(e, native.ExceptionInvalidValue, fn, "%s=%v out of range [%v,%v]", name, v, it.Min, it.Max)
	default:
		f.values[name] = v
	}
}

func (s *SDK) FilterGetConfigValue(h native.Handle, name string, e *native.ErrorRef) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_filter_get_config_value"
	f, ok := s.filter(h, fn, e)
	if !ok {
		return 0
	}
	v, ok := f.values[name]
	if !ok {
		s.fail(e, native.ExceptionInvalidValue, fn, "filter %s has no config %q", f.name, name)
		return 0
	}
	return v
}

func (s *SDK) DeleteFilter(h native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_delete_filter"
	if !s.enter(fn, e) {
		return
	}
	s.remove(h, KindFilter, fn, e)
}

func (s *SDK) FilterConfigSchemaListCount(list native.Handle, e *native.ErrorRef) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_filter_config_schema_list_get_count"
	if !s.enter(fn, e) {
		return 0
	}
	sl, ok := lookup[*schemaListData](s, list, KindSchemaList, fn, e)
	if !ok {
		return 0
	}
	return uint32(len(sl.items))
}

func (s *SDK) FilterConfigSchemaListGetItem(list native.Handle, index uint32, e *native.ErrorRef) native.FilterConfigSchemaItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_filter_config_schema_list_get_item"
	if !s.enter(fn, e) {
		return native.FilterConfigSchemaItem{}
	}
	sl, ok := lookup[*schemaListData](s, list, KindSchemaList, fn, e)
	if !ok {
		return native.FilterConfigSchemaItem{}
	}
	if int(index) >= len(sl.items) {
		s.fail(e, native.ExceptionInvalidValue, fn, "index %d out of range [0,%d)", index, len(sl.items))
		return native.FilterConfigSchemaItem{}
	}
	return sl.items[index]
}

func (s *SDK) DeleteFilterConfigSchemaList(list native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_delete_filter_config_schema_list"
	if !s.enter(fn, e) {
		return
	}
	s.remove(list, KindSchemaList, fn, e)
}
