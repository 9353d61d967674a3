package obsdk

import (
	"runtime"

	"github.com/orbbec/obsdk-go/internal/native"
)

// PresetList names the presets a device offers.
type PresetList struct {
	lifecycle
	h *NativeHandle
}

func (l *Library) wrapPresetList(h *NativeHandle) *PresetList {
	pl := &PresetList{lifecycle: lifecycle{lib: l, kind: kindPresetList}, h: h}
	runtime.SetFinalizer(pl, (*PresetList).finalize)
	return pl
}

func (pl *PresetList) Count() (int, error) {
	n, err := query(pl.lib, pl.h, pl.lib.api.PresetListCount)
	return int(n), err
}

func (pl *PresetList) Name(i int) (string, error) {
	return query(pl.lib, pl.h, func(p RawHandle, e *native.ErrorRef) string {
		return pl.lib.api.PresetListName(p, uint32(i), e)
	})
}

// Has reports whether a preset called name exists.
func (pl *PresetList) Has(name string) (bool, error) {
	return query(pl.lib, pl.h, func(p RawHandle, e *native.ErrorRef) bool {
		return pl.lib.api.PresetListHas(p, name, e)
	})
}

// Names returns every preset name in order.
func (pl *PresetList) Names() ([]string, error) {
	n, err := pl.Count()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := range n {
		name, err := pl.Name(i)
		if err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, nil
}

func (pl *PresetList) Close() error {
	if pl == nil {
		return nil
	}
	return pl.closeOnce(pl, pl.h.Close)
}

func (pl *PresetList) finalize() {
	pl.finalizeOnce(pl.h.Close)
}
