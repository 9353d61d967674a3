package obsdk

import (
	"fmt"
	"runtime"

	"github.com/orbbec/obsdk-go/internal/native"
)

// DepthWorkModeList is a snapshot of the depth work modes a device offers.
type DepthWorkModeList struct {
	lifecycle
	h *NativeHandle
}

func (l *Library) wrapDepthWorkModeList(h *NativeHandle) *DepthWorkModeList {
	ml := &DepthWorkModeList{lifecycle: lifecycle{lib: l, kind: kindDepthModes}, h: h}
	runtime.SetFinalizer(ml, (*DepthWorkModeList).finalize)
	return ml
}

func (ml *DepthWorkModeList) Count() (int, error) {
	n, err := query(ml.lib, ml.h, ml.lib.api.DepthWorkModeListCount)
	return int(n), err
}

// Mode returns the i-th mode. Pass it to Device.SwitchDepthWorkMode to
// select it.
func (ml *DepthWorkModeList) Mode(i int) (DepthWorkMode, error) {
	return query(ml.lib, ml.h, func(p RawHandle, e *native.ErrorRef) DepthWorkMode {
		return ml.lib.api.DepthWorkModeListGetItem(p, uint32(i), e)
	})
}

// Modes returns every mode in list order.
func (ml *DepthWorkModeList) Modes() ([]DepthWorkMode, error) {
	n, err := ml.Count()
	if err != nil {
		return nil, err
	}
	out := make([]DepthWorkMode, 0, n)
	for i := range n {
		m, err := ml.Mode(i)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (ml *DepthWorkModeList) Close() error {
	if ml == nil {
		return nil
	}
	return ml.closeOnce(ml, ml.h.Close)
}

func (ml *DepthWorkModeList) finalize() {
	ml.finalizeOnce(ml.h.Close)
}

// CameraParamList holds the raw calibration parameters stored on a device,
// one entry per calibrated resolution. The entries are not adjusted for the
// current stream configuration.
type CameraParamList struct {
	lifecycle
	h *NativeHandle
}

func (l *Library) wrapCameraParamList(h *NativeHandle) *CameraParamList {
	cl := &CameraParamList{lifecycle: lifecycle{lib: l, kind: kindParamList}, h: h}
	runtime.SetFinalizer(cl, (*CameraParamList).finalize)
	return cl
}

func (cl *CameraParamList) Count() (int, error) {
	n, err := query(cl.lib, cl.h, cl.lib.api.CameraParamListCount)
	return int(n), err
}

func (cl *CameraParamList) Param(i int) (CameraParam, error) {
	return query(cl.lib, cl.h, func(p RawHandle, e *native.ErrorRef) CameraParam {
		return cl.lib.api.CameraParamListGetParam(p, uint32(i), e)
	})
}

// ForDepthResolution returns the first entry calibrated for a depth stream
// of width by height.
func (cl *CameraParamList) ForDepthResolution(width, height int) (CameraParam, error) {
	n, err := cl.Count()
	if err != nil {
		return CameraParam{}, err
	}
	for i := range n {
		cp, err := cl.Param(i)
		if err != nil {
			return CameraParam{}, err
		}
		if int(cp.DepthIntrinsic.Width) == width && int(cp.DepthIntrinsic.Height) == height {
			return cp, nil
		}
	}
	return CameraParam{}, fmt.Errorf("%w: no calibration for %dx%d depth", ErrUnsupported, width, height)
}

func (cl *CameraParamList) Close() error {
	if cl == nil {
		return nil
	}
	return cl.closeOnce(cl, cl.h.Close)
}

func (cl *CameraParamList) finalize() {
	cl.finalizeOnce(cl.h.Close)
}
