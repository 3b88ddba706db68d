package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// idleShutdown stops the service after this long without frames, e.g. while
// the pipeline is disabled.
const idleShutdown = 30 * time.Second

// serviceConn speaks the gesture service protocol: a 4-byte big-endian length
// and a JPEG per request, one JSON Result line per response.
type serviceConn struct {
	w io.Writer
	r *bufio.Reader
}

func (c *serviceConn) roundTrip(jpeg []byte) (Result, error) {
	msg := make([]byte, 4+len(jpeg))
	binary.BigEndian.PutUint32(msg, uint32(len(jpeg)))
	copy(msg[4:], jpeg)
	if _, err := c.w.Write(msg); err != nil {
		return Result{}, fmt.Errorf("send frame: %w", err)
	}

	line, err := c.r.ReadBytes('\n')
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}
	return parseResult(line)
}

func parseResult(line []byte) (Result, error) {
	var res Result
	if err := json.Unmarshal(line, &res); err != nil {
		return Result{}, fmt.Errorf("parse response: %w", err)
	}
	return res, nil
}

// MediaPipeDetector runs the MediaPipe gesture recognizer as a Python
// subprocess. The process starts on the first frame and is restarted on the
// frame after it dies.
type MediaPipeDetector struct {
	cfg    Config
	script string
	python string

	mu   sync.Mutex
	proc *exec.Cmd
	in   io.WriteCloser
	conn *serviceConn
	idle *time.Timer
	// gen counts idle timer arms. A timer only shuts the service down if
	// nothing re-armed or stopped it after it fired.
	gen uint64
}

// NewMediaPipeDetector locates the service script and interpreter. It fails
// with ErrSourceUnavailable when no script can be found.
func NewMediaPipeDetector(cfg Config) (*MediaPipeDetector, error) {
	script := cfg.ScriptPath
	if script == "" {
		script = firstExisting(searchPaths("scripts/gesture_service.py"))
	}
	if script == "" {
		return nil, fmt.Errorf("gesture_service.py not found: %w", ErrSourceUnavailable)
	}

	python := cfg.PythonPath
	if python == "" {
		python = firstExisting(searchPaths("venv/bin/python"))
	}
	if python == "" {
		python = "python3"
	}

	return &MediaPipeDetector{cfg: cfg, script: script, python: python}, nil
}

func (d *MediaPipeDetector) Detect(frame *gocv.Mat) (Result, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return Result{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil {
		if err := d.start(); err != nil {
			return Result{}, err
		}
	}

	res, err := d.conn.roundTrip(buf.GetBytes())
	if err != nil {
		// The stream is out of sync or the process is gone; start over.
		_ = d.stop()
		return Result{}, fmt.Errorf("gesture service: %v: %w", err, ErrSourceUnavailable)
	}

	d.touch()
	return res, nil
}

func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stop()
}

func (d *MediaPipeDetector) start() error {
	cmd := exec.Command(d.python, d.script,
		"--max-hands", strconv.Itoa(d.cfg.MaxHands),
		"--min-confidence", strconv.FormatFloat(d.cfg.MinConfidence, 'f', -1, 64),
	)
	cmd.Stderr = os.Stderr

	in, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %v: %w", d.script, err, ErrSourceUnavailable)
	}

	d.proc = cmd
	d.in = in
	d.conn = &serviceConn{w: in, r: bufio.NewReader(out)}
	return nil
}

// stop closes stdin, which the service treats as a shutdown request, and
// reaps the process. Callers hold d.mu.
func (d *MediaPipeDetector) stop() error {
	d.gen++
	if d.idle != nil {
		d.idle.Stop()
		d.idle = nil
	}

	var err error
	if d.in != nil {
		d.in.Close()
	}
	if d.proc != nil {
		err = d.proc.Wait()
	}
	d.proc, d.in, d.conn = nil, nil, nil
	return err
}

// touch re-arms the idle timer. Callers hold d.mu.
func (d *MediaPipeDetector) touch() {
	d.gen++
	gen := d.gen
	if d.idle != nil {
		d.idle.Stop()
	}
	d.idle = time.AfterFunc(idleShutdown, func() { d.idleExpired(gen) })
}

// idleExpired stops the service unless the timer that fired is stale: a
// callback can lose the race for d.mu against a Detect that re-armed the
// timer or restarted the process.
func (d *MediaPipeDetector) idleExpired(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if gen != d.gen {
		return
	}
	_ = d.stop()
}

// searchPaths lists where rel may live: the working directory, its parent,
// next to the binary, and under ~/.mudra.
func searchPaths(rel string) []string {
	paths := []string{rel, filepath.Join("..", rel)}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), rel))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".mudra", rel))
	}
	return paths
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	}
	return ""
}
