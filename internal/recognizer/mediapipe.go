package recognizer

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/detector"
)

// MediaPipeDetector implements Detector using a Python MediaPipe gesture
// recognizer running as a subprocess.
//
// Wire protocol: each request is a 4-byte big-endian length followed by a JPEG
// frame on stdin; each response is one JSON line on stdout.
type MediaPipeDetector struct {
	config     Config
	scriptPath string
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     *bufio.Reader
	mu         sync.Mutex
	started    bool
	lastUsed   time.Time
	idleTimer  *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The script and model must exist; the Python process itself is started lazily
// on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	scriptPath := config.ScriptPath
	if scriptPath == "" {
		scriptPath = findRecognizerScript()
	}
	if scriptPath == "" {
		return nil, ErrScriptNotFound
	}
	if _, err := os.Stat(scriptPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrScriptNotFound, scriptPath)
	}
	if _, err := os.Stat(config.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, config.ModelPath)
	}

	return &MediaPipeDetector{
		config:     config,
		scriptPath: scriptPath,
	}, nil
}

// Detect analyzes a frame and returns the hands and gestures it contains.
// A broken pipe or an unreadable reply kills the service; the next call
// starts a fresh one.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) (detector.Detection, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return detector.Detection{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	return d.detectJPEG(buf.GetBytes())
}

func (d *MediaPipeDetector) detectJPEG(data []byte) (detector.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return detector.Detection{}, err
	}

	line, err := d.roundTrip(data)
	if err == nil {
		var det detector.Detection
		det, err = parseResponse(line)
		if err == nil || errors.Is(err, ErrServiceReported) {
			d.lastUsed = time.Now()
			d.resetIdleTimer()
			return det, err
		}
	}

	log.Warn().Err(err).Msg("recognizer service out of sync, restarting on next frame")
	d.kill()
	return detector.Detection{}, err
}

// roundTrip writes one length-prefixed frame and reads one reply line.
func (d *MediaPipeDetector) roundTrip(data []byte) ([]byte, error) {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return line, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, d.scriptPath,
		"--model", d.config.ModelPath,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', 2, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', 2, 64),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start recognizer service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.lastUsed = time.Now()

	log.Info().Str("script", d.scriptPath).Int("pid", d.cmd.Process.Pid).Msg("recognizer service started")
	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	log.Info().Msg("recognizer service stopped")
	return err
}

// kill stops a service that can no longer be trusted to answer in order.
func (d *MediaPipeDetector) kill() {
	if d.cmd != nil && d.cmd.Process != nil {
		d.cmd.Process.Kill()
	}
	if err := d.shutdown(); err != nil {
		log.Debug().Err(err).Msg("recognizer exit")
	}
}

// idleExpired reports whether the running service has gone unused for the
// idle shutdown period.
func (d *MediaPipeDetector) idleExpired(now time.Time) bool {
	return d.started && now.Sub(d.lastUsed) >= d.config.IdleShutdown
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.config.IdleShutdown <= 0 {
		return
	}
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(d.config.IdleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		// A Detect that won the lock before this callback already rescheduled it.
		if !d.idleExpired(time.Now()) {
			return
		}
		if err := d.shutdown(); err != nil {
			log.Debug().Err(err).Msg("recognizer idle shutdown")
		}
	})
}

func findRecognizerScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/recognizer_service.py",
		"../scripts/recognizer_service.py",
		filepath.Join(execDir, "scripts/recognizer_service.py"),
		filepath.Join(os.Getenv("HOME"), ".mudra/scripts/recognizer_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".mudra/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonResponse is one line from the recognizer service.
type jsonResponse struct {
	Hands []jsonHand `json:"hands"`
	Error string     `json:"error,omitempty"`
}

type jsonHand struct {
	Points     []detector.Point    `json:"points"`
	Handedness string              `json:"handedness"`
	Score      float64             `json:"score"`
	Gestures   []detector.Category `json:"gestures"`
}

// parseResponse converts a service response into a Detection. The first hand
// with landmarks supplies handedness and gestures and stays at Hands[0], so the
// pointer and the action follow the same hand.
func parseResponse(line []byte) (detector.Detection, error) {
	var resp jsonResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return detector.Detection{}, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return detector.Detection{}, fmt.Errorf("%w: %s", ErrServiceReported, resp.Error)
	}

	det := detector.Detection{Handedness: detector.Unknown}
	if len(resp.Hands) == 0 {
		return det, nil
	}

	primary := resp.Hands[0]
	for _, h := range resp.Hands {
		if len(h.Points) > 0 {
			primary = h
			break
		}
	}
	det.Handedness = detector.ParseHandedness(primary.Handedness)
	det.Gestures = primary.Gestures

	for _, h := range resp.Hands {
		if len(h.Points) == 0 {
			continue
		}
		det.Hands = append(det.Hands, detector.Landmarks(h.Points))
	}

	return det, nil
}
