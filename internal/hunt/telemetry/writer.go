package telemetry

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// JSONLZstdWriter files events by the UTC hour of their timestamp, one JSON
// document per line, in <prefix>-YYYY-MM-DD-HH.jsonl.zst under dir. Every
// event is flushed as its own zstd block so a crashed session stays readable
// up to its last event.
type JSONLZstdWriter struct {
	dir    string
	prefix string

	mu   sync.Mutex
	hour string
	f    *os.File
	zw   *zstd.Encoder
	js   *json.Encoder
}

func NewJSONLZstdWriter(dir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{dir: dir, prefix: prefix}
}

func (w *JSONLZstdWriter) Write(ev Event) error {
	if ev.At.IsZero() {
		return fmt.Errorf("telemetry: %s event without timestamp", ev.Kind)
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if hour := hourKey(ev.At); hour != w.hour {
		if err := w.openLocked(hour); err != nil {
			return err
		}
	}
	if err := w.js.Encode(ev); err != nil {
		return err
	}
	return w.zw.Flush()
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

// Path returns the file holding events stamped within the hour of t.
func (w *JSONLZstdWriter) Path(t time.Time) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hourKey(t)))
}

func hourKey(t time.Time) string { return t.UTC().Format("2006-01-02-15") }

// openLocked switches to the file of hour. Files are opened for append, so
// an hour revisited by a late event gains a second zstd frame.
func (w *JSONLZstdWriter) openLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(w.dir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest), zstd.WithEncoderConcurrency(1))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f, w.zw, w.js, w.hour = f, zw, json.NewEncoder(zw), hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	if w.f == nil {
		return nil
	}
	err := errors.Join(w.zw.Close(), w.f.Close())
	w.f, w.zw, w.js, w.hour = nil, nil, nil, ""
	return err
}

// ReadEvents decodes a zstd JSONL stream, calling fn for every event.
func ReadEvents(r io.Reader, fn func(Event) error) error {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	return sc.Err()
}

// ReadFile is ReadEvents over the file at path.
func ReadFile(path string, fn func(Event) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReadEvents(f, fn)
}
