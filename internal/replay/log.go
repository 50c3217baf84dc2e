// Package replay records depth frame streams to disk and plays them back,
// so a walk captured in the field can be re-run through the pipeline during
// tuning. It also provides a synthetic frame source for testing and demos.
package replay

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"time"

	"github.com/sensepath-app/sensepath/internal/depth"
)

const (
	logMagic   = "SPDLOG"
	logVersion = 1
)

// logHeader opens every log file and fixes the frame geometry for the
// whole stream.
type logHeader struct {
	Magic   string
	Version int
	Label   string
	Width   int
	Height  int
}

// frameEntry is one recorded frame. Depths are stored raw; gzip below the
// gob layer keeps repetitive depth maps small on disk.
type frameEntry struct {
	TimestampNs int64
	Depths      []float64
}

// LogWriter appends depth frames to a compressed log file.
type LogWriter struct {
	file   *os.File
	gz     *gzip.Writer
	enc    *gob.Encoder
	width  int
	height int
}

// CreateLog creates a new depth log at path. All frames written to it must
// share the given dimensions.
func CreateLog(path, label string, width, height int) (*LogWriter, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("replay: invalid log dimensions %dx%d", width, height)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("replay: failed to create log: %w", err)
	}

	gz := gzip.NewWriter(file)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(logHeader{
		Magic:   logMagic,
		Version: logVersion,
		Label:   label,
		Width:   width,
		Height:  height,
	}); err != nil {
		gz.Close()
		file.Close()
		return nil, fmt.Errorf("replay: failed to write log header: %w", err)
	}

	return &LogWriter{file: file, gz: gz, enc: enc, width: width, height: height}, nil
}

// WriteFrame appends one frame to the log.
func (w *LogWriter) WriteFrame(f *depth.Frame) error {
	if f.Width != w.width || f.Height != w.height {
		return fmt.Errorf("replay: frame is %dx%d, log is %dx%d", f.Width, f.Height, w.width, w.height)
	}
	return w.enc.Encode(frameEntry{
		TimestampNs: f.Timestamp.UnixNano(),
		Depths:      f.Depths,
	})
}

// Close flushes and closes the log file.
func (w *LogWriter) Close() error {
	if err := w.gz.Close(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// LogReader reads depth frames back from a log file.
type LogReader struct {
	file   *os.File
	gz     *gzip.Reader
	dec    *gob.Decoder
	header logHeader
}

// OpenLog opens an existing depth log for reading.
func OpenLog(path string) (*LogReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay: failed to open log: %w", err)
	}

	gz, err := gzip.NewReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("replay: not a depth log: %w", err)
	}

	dec := gob.NewDecoder(gz)
	var header logHeader
	if err := dec.Decode(&header); err != nil {
		gz.Close()
		file.Close()
		return nil, fmt.Errorf("replay: failed to read log header: %w", err)
	}
	if header.Magic != logMagic {
		gz.Close()
		file.Close()
		return nil, fmt.Errorf("replay: bad log magic %q", header.Magic)
	}
	if header.Version != logVersion {
		gz.Close()
		file.Close()
		return nil, fmt.Errorf("replay: unsupported log version %d", header.Version)
	}

	return &LogReader{file: file, gz: gz, dec: dec, header: header}, nil
}

// Label returns the label recorded when the log was created.
func (r *LogReader) Label() string { return r.header.Label }

// Width returns the frame width of the logged stream.
func (r *LogReader) Width() int { return r.header.Width }

// Height returns the frame height of the logged stream.
func (r *LogReader) Height() int { return r.header.Height }

// ReadFrame returns the next recorded frame, or io.EOF at the end of the
// log.
func (r *LogReader) ReadFrame() (*depth.Frame, error) {
	var entry frameEntry
	if err := r.dec.Decode(&entry); err != nil {
		return nil, err
	}
	if len(entry.Depths) != r.header.Width*r.header.Height {
		return nil, fmt.Errorf("replay: corrupt frame: %d samples for %dx%d log",
			len(entry.Depths), r.header.Width, r.header.Height)
	}
	return &depth.Frame{
		Width:     r.header.Width,
		Height:    r.header.Height,
		Depths:    entry.Depths,
		Timestamp: time.Unix(0, entry.TimestampNs).UTC(),
	}, nil
}

// Close closes the log file.
func (r *LogReader) Close() error {
	if err := r.gz.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}
