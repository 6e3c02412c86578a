package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/types"
)

// Profile trades decode frame rate against detection region size.
type Profile struct {
	Name          string
	FPS           int
	RegionPercent int
}

var (
	ProfileFast     = Profile{Name: "fast", FPS: 15, RegionPercent: 60}
	ProfileBalanced = Profile{Name: "balanced", FPS: 10, RegionPercent: 75}
	ProfileAccurate = Profile{Name: "accurate", FPS: 5, RegionPercent: 100}
)

// ProfileByName returns the named profile; "" selects the fast default.
func ProfileByName(name string) (Profile, error) {
	switch name {
	case "", ProfileFast.Name:
		return ProfileFast, nil
	case ProfileBalanced.Name:
		return ProfileBalanced, nil
	case ProfileAccurate.Name:
		return ProfileAccurate, nil
	}
	return Profile{}, fmt.Errorf("unknown scan profile %q", name)
}

func (p Profile) FrameInterval() time.Duration {
	if p.FPS <= 0 {
		return time.Second / time.Duration(ProfileFast.FPS)
	}
	return time.Second / time.Duration(p.FPS)
}

// Frame is one captured image, or for decoding cameras the decoded text.
type Frame []byte

// Camera is an opened capture device.
type Camera interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}

type CameraOpener interface {
	Open(ctx context.Context, deviceID string, p Profile) (Camera, error)
}

type Decoder interface {
	Decode(f Frame) (string, error)
}

// ErrNoCode means the frame held nothing decodable. It is the common case.
var ErrNoCode = errors.New("capture: no code in frame")

var (
	ErrPermissionDenied = errors.New("capture: camera permission denied")
	ErrCameraBusy       = errors.New("capture: camera in use")
	ErrNoCamera         = errors.New("capture: no camera found")
	ErrInsecureContext  = errors.New("capture: camera requires a secure context")
	ErrSessionActive    = errors.New("capture: scanning already active")
)

// UserMessage maps a capture-device failure to an operator-facing message
// and the input path to fall back to.
func UserMessage(err error) (message, fallback string) {
	switch {
	case err == nil:
		return "", ""
	case errors.Is(err, ErrPermissionDenied):
		return "Camera access was denied. Allow camera access for this station.", "manual"
	case errors.Is(err, ErrCameraBusy):
		return "The camera is being used by another application.", "keyboard scanner"
	case errors.Is(err, ErrNoCamera):
		return "No camera was found on this station.", "keyboard scanner"
	case errors.Is(err, ErrInsecureContext):
		return "Camera access needs a secure (https or local) connection.", "manual"
	}
	return "The camera stopped unexpectedly. Try again.", "manual"
}

// CameraStateOf reports err in heartbeat terms.
func CameraStateOf(err error) types.CameraState {
	switch {
	case err == nil:
		return types.CameraOK
	case errors.Is(err, ErrPermissionDenied):
		return types.CameraPermissionDenied
	case errors.Is(err, ErrCameraBusy):
		return types.CameraBusy
	case errors.Is(err, ErrNoCamera):
		return types.CameraNotFound
	case errors.Is(err, ErrInsecureContext):
		return types.CameraInsecureContext
	}
	return types.CameraError
}

// OpticalSession drives one camera through start/stop. Decoding is
// single-shot: after a token is emitted the session ignores frames until
// Resume is called.
type OpticalSession struct {
	opener  CameraOpener
	decoder Decoder
	profile Profile
	log     *zap.SugaredLogger

	tokens chan Token
	armed  atomic.Bool

	mu      sync.Mutex
	cam     Camera
	cancel  context.CancelFunc
	done    chan struct{}
	lastErr error
}

func NewOpticalSession(opener CameraOpener, decoder Decoder, profile Profile, log *zap.SugaredLogger) *OpticalSession {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &OpticalSession{
		opener:  opener,
		decoder: decoder,
		profile: profile,
		log:     log,
		tokens:  make(chan Token, 1),
	}
}

// Tokens delivers decoded scans.
func (s *OpticalSession) Tokens() <-chan Token { return s.tokens }

// Start acquires the camera and begins decoding. The loop ends, and the
// camera is released, when ctx is done, Stop is called or the device
// fails.
func (s *OpticalSession) Start(ctx context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cam != nil {
		return ErrSessionActive
	}

	cam, err := s.opener.Open(ctx, deviceID, s.profile)
	if err != nil {
		s.lastErr = err
		s.log.Warnw("camera open failed", "device", deviceID, "err", err)
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cam = cam
	s.cancel = cancel
	s.done = make(chan struct{})
	s.lastErr = nil
	s.armed.Store(true)

	go s.loop(loopCtx, cam, s.done)
	s.log.Infow("scanning started", "device", deviceID, "profile", s.profile.Name)
	return nil
}

// Resume re-arms decoding after a token was emitted.
func (s *OpticalSession) Resume() {
	s.armed.Store(true)
}

// Stop releases the camera and waits for the decode loop to exit. Stopping
// an idle session is a no-op.
func (s *OpticalSession) Stop() error {
	s.mu.Lock()
	cam, cancel, done := s.cam, s.cancel, s.done
	s.cam, s.cancel = nil, nil
	s.mu.Unlock()

	if cam == nil {
		return nil
	}
	cancel()
	err := cam.Close()
	<-done
	return err
}

// SwitchCamera releases the current device before acquiring the next.
func (s *OpticalSession) SwitchCamera(ctx context.Context, deviceID string) error {
	if err := s.Stop(); err != nil {
		s.log.Warnw("camera release failed", "err", err)
	}
	return s.Start(ctx, deviceID)
}

// Active reports whether a camera is held.
func (s *OpticalSession) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cam != nil
}

// State summarizes the session for station heartbeats.
func (s *OpticalSession) State() (types.CameraState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cam != nil {
		return types.CameraOK, nil
	}
	if s.lastErr != nil {
		return CameraStateOf(s.lastErr), s.lastErr
	}
	return types.CameraOff, nil
}

func (s *OpticalSession) loop(ctx context.Context, cam Camera, done chan struct{}) {
	var loopErr error
	defer func() {
		s.release(cam, loopErr)
		close(done)
	}()

	tick := time.NewTicker(s.profile.FrameInterval())
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}

		f, err := cam.Next(ctx)
		if err != nil {
			if ctx.Err() == nil {
				loopErr = err
			}
			return
		}
		if !s.armed.Load() {
			continue
		}

		text, err := s.decoder.Decode(f)
		if err != nil || text == "" {
			continue
		}
		if !s.armed.CompareAndSwap(true, false) {
			continue
		}

		select {
		case s.tokens <- newToken(text, SourceCamera):
		case <-ctx.Done():
			return
		}
	}
}

// release frees a camera the loop still owns: the device failed or the
// parent context ended. After Stop the camera is no longer owned here.
func (s *OpticalSession) release(cam Camera, err error) {
	s.mu.Lock()
	owned := s.cam == cam
	if owned {
		s.cam = nil
		s.cancel()
		s.cancel = nil
		s.lastErr = err
	}
	s.mu.Unlock()

	if !owned {
		return
	}
	_ = cam.Close()
	if err != nil {
		s.log.Warnw("camera failed; scanning stopped", "err", err)
	}
}
