package obsdk

import (
	"fmt"
	"runtime"

	"github.com/orbbec/obsdk-go/internal/native"
)

// StreamProfileList lists stream profiles.
type StreamProfileList struct {
	lifecycle
	h *NativeHandle
}

func (l *Library) wrapStreamProfileList(h *NativeHandle) *StreamProfileList {
	pl := &StreamProfileList{lifecycle: lifecycle{lib: l, kind: kindProfileList}, h: h}
	runtime.SetFinalizer(pl, (*StreamProfileList).finalize)
	return pl
}

func (pl *StreamProfileList) Count() (int, error) {
	n, err := query(pl.lib, pl.h, pl.lib.api.StreamProfileListCount)
	return int(n), err
}

// Profile returns profile i. It keeps the list alive until closed.
func (pl *StreamProfileList) Profile(i int) (*StreamProfile, error) {
	h, err := borrowFrom(pl.lib, pl.h, kindProfile, pl.lib.api.DeleteStreamProfile, func(p RawHandle, e *native.ErrorRef) native.Handle {
		return pl.lib.api.StreamProfileListGetProfile(p, uint32(i), e)
	})
	if err != nil {
		return nil, err
	}
	return pl.lib.wrapStreamProfile(h), nil
}

// VideoProfile finds a matching video profile. Zero dimensions or fps and
// FormatAny match anything.
func (pl *StreamProfileList) VideoProfile(width, height int, format Format, fps int) (*StreamProfile, error) {
	h, err := borrowFrom(pl.lib, pl.h, kindProfile, pl.lib.api.DeleteStreamProfile, func(p RawHandle, e *native.ErrorRef) native.Handle {
		return pl.lib.api.StreamProfileListGetVideoProfile(p, int32(width), int32(height), format, int32(fps), e)
	})
	if err != nil {
		return nil, err
	}
	return pl.lib.wrapStreamProfile(h), nil
}

// DefaultProfile returns the first profile in the list.
func (pl *StreamProfileList) DefaultProfile() (*StreamProfile, error) {
	return pl.Profile(0)
}

func (pl *StreamProfileList) Close() error {
	if pl == nil {
		return nil
	}
	return pl.closeOnce(pl, pl.h.Close)
}

func (pl *StreamProfileList) finalize() {
	pl.finalizeOnce(pl.h.Close)
}

// StreamProfile describes one stream mode.
type StreamProfile struct {
	lifecycle
	h *NativeHandle
}

// VideoMode is a plain description of a video profile.
type VideoMode struct {
	Stream StreamType
	Format Format
	Width  int
	Height int
	FPS    int
}

func (m VideoMode) String() string {
	return fmt.Sprintf("%s %dx%d %s@%dfps", m.Stream, m.Width, m.Height, m.Format, m.FPS)
}

func (l *Library) wrapStreamProfile(h *NativeHandle) *StreamProfile {
	sp := &StreamProfile{lifecycle: lifecycle{lib: l, kind: kindProfile}, h: h}
	runtime.SetFinalizer(sp, (*StreamProfile).finalize)
	return sp
}

func (sp *StreamProfile) Type() (StreamType, error) {
	return query(sp.lib, sp.h, sp.lib.api.StreamProfileType)
}

func (sp *StreamProfile) Format() (Format, error) {
	return query(sp.lib, sp.h, sp.lib.api.StreamProfileFormat)
}

func (sp *StreamProfile) Width() (int, error) {
	n, err := query(sp.lib, sp.h, sp.lib.api.VideoStreamProfileWidth)
	return int(n), err
}

func (sp *StreamProfile) Height() (int, error) {
	n, err := query(sp.lib, sp.h, sp.lib.api.VideoStreamProfileHeight)
	return int(n), err
}

func (sp *StreamProfile) FPS() (int, error) {
	n, err := query(sp.lib, sp.h, sp.lib.api.VideoStreamProfileFPS)
	return int(n), err
}

// VideoMode reads the profile's video attributes in one go.
func (sp *StreamProfile) VideoMode() (VideoMode, error) {
	var m VideoMode
	var err error
	if m.Stream, err = sp.Type(); err != nil {
		return m, err
	}
	if m.Format, err = sp.Format(); err != nil {
		return m, err
	}
	if m.Width, err = sp.Width(); err != nil {
		return m, err
	}
	if m.Height, err = sp.Height(); err != nil {
		return m, err
	}
	m.FPS, err = sp.FPS()
	return m, err
}

func (sp *StreamProfile) Close() error {
	if sp == nil {
		return nil
	}
	return sp.closeOnce(sp, sp.h.Close)
}

func (sp *StreamProfile) finalize() {
	sp.finalizeOnce(sp.h.Close)
}
