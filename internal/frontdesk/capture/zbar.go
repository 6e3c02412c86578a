package capture

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// Base resolution scaled by a profile's region percentage.
const (
	baseWidth  = 1280
	baseHeight = 720
)

// ZbarOpener runs zbarcam as the camera process. zbarcam does its own
// decoding, so each stdout line is already a payload; pair it with
// PassthroughDecoder.
type ZbarOpener struct {
	Binary string
}

func (o ZbarOpener) Open(ctx context.Context, deviceID string, p Profile) (Camera, error) {
	if err := checkSecureDevice(deviceID); err != nil {
		return nil, err
	}

	bin := o.Binary
	if bin == "" {
		bin = "zbarcam"
	}

	pct := p.RegionPercent
	if pct <= 0 || pct > 100 {
		pct = 100
	}
	args := []string{
		"--raw",
		"--nodisplay",
		fmt.Sprintf("--prescale=%dx%d", baseWidth*pct/100, baseHeight*pct/100),
	}
	if deviceID != "" {
		args = append(args, deviceID)
	}

	// The process outlives ctx; Close kills it.
	cmd := exec.Command(bin, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("zbarcam stdout: %w", err)
	}
	cam := &zbarCamera{cmd: cmd, lines: make(chan string, 4)}
	cmd.Stderr = &cam.stderr

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s not installed", ErrNoCamera, bin)
		}
		return nil, fmt.Errorf("start %s: %w", bin, err)
	}

	go cam.read(stdout)
	return cam, nil
}

type zbarCamera struct {
	cmd    *exec.Cmd
	lines  chan string
	stderr lockedBuffer

	closeOnce sync.Once
	closeErr  error
	waitErr   error
}

func (c *zbarCamera) read(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		c.lines <- sc.Text()
	}
	c.waitErr = c.cmd.Wait()
	close(c.lines)
}

func (c *zbarCamera) Next(ctx context.Context) (Frame, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case line, ok := <-c.lines:
		if !ok {
			return nil, classifyDeviceError(c.stderr.String(), c.waitErr)
		}
		return Frame(line), nil
	}
}

func (c *zbarCamera) Close() error {
	c.closeOnce.Do(func() {
		if c.cmd.Process != nil {
			c.closeErr = c.cmd.Process.Kill()
			if errors.Is(c.closeErr, os.ErrProcessDone) {
				c.closeErr = nil
			}
		}
		// Drain so the reader goroutine can reach Wait.
		go func() {
			for range c.lines {
			}
		}()
	})
	return c.closeErr
}

// classifyDeviceError maps zbarcam/v4l2 stderr onto the capture error set.
func classifyDeviceError(stderr string, waitErr error) error {
	msg := strings.ToLower(stderr)
	switch {
	case strings.Contains(msg, "permission denied"), strings.Contains(msg, "eacces"):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, strings.TrimSpace(stderr))
	case strings.Contains(msg, "device or resource busy"), strings.Contains(msg, "ebusy"):
		return fmt.Errorf("%w: %s", ErrCameraBusy, strings.TrimSpace(stderr))
	case strings.Contains(msg, "no such file"), strings.Contains(msg, "no such device"), strings.Contains(msg, "enoent"):
		return fmt.Errorf("%w: %s", ErrNoCamera, strings.TrimSpace(stderr))
	}
	if waitErr != nil {
		return fmt.Errorf("zbarcam exited: %w", waitErr)
	}
	return io.EOF
}

// checkSecureDevice refuses network cameras reached over plain http unless
// they are on loopback.
func checkSecureDevice(deviceID string) error {
	if !strings.HasPrefix(strings.ToLower(deviceID), "http://") {
		return nil
	}
	u, err := url.Parse(deviceID)
	if err != nil {
		return fmt.Errorf("camera url: %w", err)
	}
	host := u.Hostname()
	if host == "localhost" {
		return nil
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInsecureContext, u.Redacted())
}

// PassthroughDecoder treats each frame as already-decoded text.
type PassthroughDecoder struct{}

func (PassthroughDecoder) Decode(f Frame) (string, error) {
	s := strings.TrimSpace(string(f))
	if s == "" {
		return "", ErrNoCode
	}
	return s, nil
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
