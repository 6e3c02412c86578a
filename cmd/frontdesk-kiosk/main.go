// Command frontdesk-kiosk runs at the gym entrance. It reads a keyboard
// wedge scanner (and optionally a camera) and posts every scan to
// frontdesk-server, printing the decision for the desk operator.
//
// The terminal is switched to raw mode so each key is stamped as it
// arrives. Ctrl+N opens the manual member-id field; Enter submits it and
// Escape cancels. Ctrl+C quits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/frontdesk-gym/frontdesk/internal/config"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/capture"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/types"
	"github.com/frontdesk-gym/frontdesk/internal/kioskclient"
	"github.com/frontdesk-gym/frontdesk/internal/logger"
)

var version = "dev"

const queueSize = 32

func main() {
	configPath := flag.String("config", config.Path(), "path to a YAML config file")
	camera := flag.String("camera", "", "video device for optical scanning, e.g. /dev/video0")
	profile := flag.String("profile", "", "optical scan profile: fast, balanced or accurate")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *camera != "" {
		cfg.Kiosk.Camera = *camera
	}
	if *profile != "" {
		cfg.Kiosk.Profile = *profile
	}

	log, err := logger.New(logger.Options{
		Dir:   cfg.Log.Dir,
		Name:  "frontdesk-kiosk",
		Tee:   cfg.Log.Tee,
		Debug: cfg.Log.Debug,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg.Kiosk, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorw("kiosk exited", "err", err)
		os.Exit(1)
	}
}

// job is one unit of work for the pipeline worker: a scanned token or a
// manual member id.
type job struct {
	tok      capture.Token
	memberID int64
}

// resumer re-arms a capture source after its token has been handled.
type resumer interface {
	Resume()
}

type kiosk struct {
	cfg     config.Kiosk
	client  *kioskclient.Client
	camera  resumer
	jobs    chan job
	out     io.Writer
	log     *zap.SugaredLogger
	started time.Time
}

func newKiosk(cfg config.Kiosk, out io.Writer, log *zap.SugaredLogger) *kiosk {
	return &kiosk{
		cfg:     cfg,
		client:  kioskclient.New(cfg.ServerURL, nil),
		jobs:    make(chan job, queueSize),
		out:     out,
		log:     log,
		started: time.Now(),
	}
}

func run(cfg config.Kiosk, log *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	restore, raw, err := capture.MakeRaw(os.Stdin)
	if err != nil {
		log.Warnw("terminal stays in line mode; scanner timing is unreliable", "err", err)
	}
	defer func() { _ = restore() }()

	var out io.Writer = os.Stdout
	if raw {
		out = crlfWriter{w: os.Stdout}
	}
	k := newKiosk(cfg, out, log)

	router := capture.NewKeyRouter(capture.DefaultManualIdle, capture.RouterHooks{
		Manual:    k.manual,
		Edit:      k.showManual,
		Interrupt: stop,
	})
	defer router.Close()

	g, gctx := errgroup.WithContext(ctx)

	// stdin reads cannot be interrupted; the reader goroutine is left to
	// die with the process.
	keys := make(chan capture.KeyEvent, 64)
	go func() {
		if err := capture.NewTerminalSource(os.Stdin, nil).Run(gctx, keys); err != nil && gctx.Err() == nil {
			log.Warnw("stdin reader stopped", "err", err)
		}
	}()
	routed := make(chan capture.KeyEvent, 64)
	g.Go(func() error { return router.Run(gctx, keys, routed) })

	listener := capture.NewListener(capture.KeyboardConfig{ResetThreshold: cfg.ResetThreshold}, log)
	g.Go(func() error { return listener.Run(gctx, routed, k.scan) })

	var session *capture.OpticalSession
	if cfg.Camera != "" {
		p, err := capture.ProfileByName(cfg.Profile)
		if err != nil {
			return err
		}
		session = capture.NewOpticalSession(capture.ZbarOpener{}, capture.PassthroughDecoder{}, p, log)
		if err := session.Start(gctx, cfg.Camera); err != nil {
			msg, fallback := capture.UserMessage(err)
			fmt.Fprintf(k.out, "camera: %s\n  %s\n", msg, fallback)
		} else {
			k.camera = session
			defer func() { _ = session.Stop() }()
			g.Go(func() error {
				for {
					select {
					case <-gctx.Done():
						return gctx.Err()
					case tok := <-session.Tokens():
						k.scan(tok)
					}
				}
			})
		}
	}

	g.Go(func() error { return k.process(gctx) })
	g.Go(func() error { return k.heartbeats(gctx, session) })

	fmt.Fprintf(k.out, "frontdesk kiosk %s ready (station %s)\n", version, cfg.StationID)
	return g.Wait()
}

// scan queues a token from a capture goroutine without blocking it.
func (k *kiosk) scan(tok capture.Token) {
	if !k.enqueue(job{tok: tok}) {
		k.log.Warnw("scan queue full; dropping scan", "scan_id", tok.ScanID, "source", tok.Source)
		fmt.Fprintln(k.out, "[BUSY]  Please scan again")
		k.resume(tok)
	}
}

func (k *kiosk) manual(text string) {
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil || id <= 0 {
		fmt.Fprintln(k.out, "manual entry: member id must be a positive number")
		return
	}
	if !k.enqueue(job{memberID: id}) {
		fmt.Fprintln(k.out, "[BUSY]  Please enter the member id again")
	}
}

func (k *kiosk) showManual(text string, active bool) {
	if active {
		fmt.Fprintf(k.out, "\rmember id: %s\x1b[K", text)
		return
	}
	fmt.Fprint(k.out, "\r\x1b[K")
}

func (k *kiosk) enqueue(j job) bool {
	select {
	case k.jobs <- j:
		return true
	default:
		return false
	}
}

// resume re-arms the camera after one of its tokens was handled or dropped.
func (k *kiosk) resume(tok capture.Token) {
	if tok.Source == capture.SourceCamera && k.camera != nil {
		k.camera.Resume()
	}
}

// process is the single pipeline worker.
func (k *kiosk) process(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case j := <-k.jobs:
			k.handle(ctx, j)
			k.resume(j.tok)
		}
	}
}

func (k *kiosk) handle(ctx context.Context, j job) {
	rctx, cancel := context.WithTimeout(ctx, k.cfg.RequestTimeout)
	defer cancel()

	var (
		resp types.CheckInResponse
		err  error
	)
	if j.memberID > 0 {
		resp, err = k.client.Manual(rctx, j.memberID)
	} else {
		resp, err = k.client.Scan(rctx, types.ScanRequest{
			Token:  j.tok.Text,
			ScanID: j.tok.ScanID,
			Source: string(j.tok.Source),
		})
	}
	if err != nil {
		k.log.Warnw("check-in request failed", "scan_id", j.tok.ScanID, "member_id", j.memberID, "err", err)
	}
	render(k.out, resp, err)
}

func (k *kiosk) heartbeats(ctx context.Context, session *capture.OpticalSession) error {
	if k.cfg.HeartbeatInterval <= 0 {
		return nil
	}
	ticker := time.NewTicker(k.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		k.sendHeartbeat(ctx, session)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (k *kiosk) sendHeartbeat(ctx context.Context, session *capture.OpticalSession) {
	req := types.HeartbeatRequest{
		StationID:     k.cfg.StationID,
		Version:       version,
		UptimeSeconds: uint64(time.Since(k.started).Seconds()),
		CaptureMode:   "keyboard",
		CameraState:   types.CameraOff,
	}
	if k.cfg.Camera != "" {
		req.CaptureMode = "both"
		req.CameraState = types.CameraError
	}
	if session != nil {
		state, err := session.State()
		req.CameraState = state
		if err != nil {
			req.LastError = err.Error()
		}
	}

	rctx, cancel := context.WithTimeout(ctx, k.cfg.RequestTimeout)
	defer cancel()
	if _, err := k.client.Heartbeat(rctx, req); err != nil {
		k.log.Warnw("heartbeat failed", "err", err)
	}
}
