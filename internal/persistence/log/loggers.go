package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/objects-time/neural-mmo/internal/sim/realm"
)

const DefaultSegmentTicks = 3000

var (
	ErrWriterClosed = errors.New("journal writer closed")
	// ErrJournalExists means a realm directory already holds a journal from
	// an earlier run.
	ErrJournalExists = errors.New("journal already exists")
)

// JSONLZstdWriter writes JSON lines to zstd segments. A new segment starts
// every segmentTicks ticks; segment files are named by their first tick.
// A writer only starts in a directory holding no segments of its prefix, and
// once it refuses every later Write fails the same way.
type JSONLZstdWriter struct {
	baseDir      string
	prefix       string
	segmentTicks uint64

	mu      sync.Mutex
	curSeg  uint64
	open    bool
	closed  bool
	started bool
	err     error
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string, segmentTicks uint64) *JSONLZstdWriter {
	if segmentTicks == 0 {
		segmentTicks = DefaultSegmentTicks
	}
	return &JSONLZstdWriter{
		baseDir:      baseDir,
		prefix:       prefix,
		segmentTicks: segmentTicks,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(tick uint64, v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWriterClosed
	}
	if w.err != nil {
		return w.err
	}
	if !w.started {
		if err := w.checkEmptyLocked(); err != nil {
			w.err = err
			return err
		}
		w.started = true
	}

	seg := tick / w.segmentTicks
	if !w.open || seg != w.curSeg {
		if err := w.rotateLocked(seg); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) checkEmptyLocked() error {
	existing, err := filepath.Glob(filepath.Join(w.baseDir, w.prefix+"-*.jsonl.zst"))
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return fmt.Errorf("%w: %d %s segments in %s", ErrJournalExists, len(existing), w.prefix, w.baseDir)
	}
	return nil
}

func (w *JSONLZstdWriter) rotateLocked(seg uint64) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	path := w.pathForSegment(seg)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %s", ErrJournalExists, filepath.Base(path))
	}
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curSeg = seg
	w.open = true
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.open = false
	return err1
}

func (w *JSONLZstdWriter) pathForSegment(seg uint64) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%010d.jsonl.zst", w.prefix, seg*w.segmentTicks))
}

// TickLogger journals one entry per realm tick.
type TickLogger struct{ w *JSONLZstdWriter }

func NewTickLogger(realmDir string, segmentTicks uint64) *TickLogger {
	return &TickLogger{w: NewJSONLZstdWriter(JournalDir(realmDir), "ticks", segmentTicks)}
}

func JournalDir(realmDir string) string { return filepath.Join(realmDir, "ticks") }

// EnsureFresh fails with ErrJournalExists when realmDir already has journal
// segments. A realm starts at tick 1 and cannot resume, so a second run on
// the same directory would interleave two lifetimes.
func EnsureFresh(realmDir string) error {
	segs, err := Segments(JournalDir(realmDir))
	if err != nil {
		return err
	}
	if len(segs) > 0 {
		return fmt.Errorf("%w: %d segments in %s", ErrJournalExists, len(segs), JournalDir(realmDir))
	}
	return nil
}

func (l *TickLogger) WriteTick(e realm.TickLogEntry) error { return l.w.Write(e.Tick, e) }
func (l *TickLogger) Close() error                         { return l.w.Close() }

// Segments lists journal segment files under dir in tick order.
func Segments(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadTicks decodes every entry of one segment.
func ReadTicks(path string) ([]realm.TickLogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []realm.TickLogEntry
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		var e realm.TickLogEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return out, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		out = append(out, e)
	}
	return out, sc.Err()
}
