package obsdk

import (
	"runtime"

	"github.com/orbbec/obsdk-go/internal/native"
)

// SensorList lists a device's sensors.
type SensorList struct {
	lifecycle
	h *NativeHandle
}

func (l *Library) wrapSensorList(h *NativeHandle) *SensorList {
	sl := &SensorList{lifecycle: lifecycle{lib: l, kind: kindSensorList}, h: h}
	runtime.SetFinalizer(sl, (*SensorList).finalize)
	return sl
}

func (sl *SensorList) Count() (int, error) {
	n, err := query(sl.lib, sl.h, sl.lib.api.SensorListCount)
	return int(n), err
}

// Type returns the type of sensor i.
func (sl *SensorList) Type(i int) (SensorType, error) {
	return query(sl.lib, sl.h, func(p RawHandle, e *native.ErrorRef) SensorType {
		return sl.lib.api.SensorListType(p, uint32(i), e)
	})
}

// Types returns the types of every sensor in order.
func (sl *SensorList) Types() ([]SensorType, error) {
	n, err := sl.Count()
	if err != nil {
		return nil, err
	}
	out := make([]SensorType, 0, n)
	for i := range n {
		t, err := sl.Type(i)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (sl *SensorList) Sensor(i int) (*Sensor, error) {
	h, err := derive(sl.lib, sl.h, kindSensor, sl.lib.api.DeleteSensor, func(p RawHandle, e *native.ErrorRef) native.Handle {
		return sl.lib.api.SensorListGetSensor(p, uint32(i), e)
	})
	if err != nil {
		return nil, err
	}
	return sl.lib.wrapSensor(h), nil
}

func (sl *SensorList) SensorByType(t SensorType) (*Sensor, error) {
	h, err := derive(sl.lib, sl.h, kindSensor, sl.lib.api.DeleteSensor, func(p RawHandle, e *native.ErrorRef) native.Handle {
		return sl.lib.api.SensorListGetSensorByType(p, t, e)
	})
	if err != nil {
		return nil, err
	}
	return sl.lib.wrapSensor(h), nil
}

func (sl *SensorList) Close() error {
	if sl == nil {
		return nil
	}
	return sl.closeOnce(sl, sl.h.Close)
}

func (sl *SensorList) finalize() {
	sl.finalizeOnce(sl.h.Close)
}
