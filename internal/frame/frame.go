// Package frame implements the length-prefixed JSON framing shared by the
// pipe multiplexer and the native frontend connection.
//
// Each frame is the decimal byte count of the payload, a space, the JSON
// payload and a terminating newline:
//
//	27 {"command":"VERSION","v":2}\n
package frame

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
)

// MaxSize bounds a single frame payload.
const MaxSize = 16 << 20

var ErrInvalidFrame = errors.New("invalid frame")

// Writer encodes messages as frames. It is safe for concurrent use; each
// frame is written with a single Write call.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteMessage marshals msg to JSON and writes it as one frame.
func (w *Writer) WriteMessage(msg interface{}) error {
	buf, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("frame encoding failed: %w", err)
	}
	return w.WriteFrame(buf)
}

// WriteFrame writes an already encoded payload.
func (w *Writer) WriteFrame(payload []byte) error {
	if len(payload) < 1 {
		return fmt.Errorf("%w: empty payload", ErrInvalidFrame)
	}
	if len(payload) > MaxSize {
		return fmt.Errorf("%w: payload of %d bytes exceeds %d", ErrInvalidFrame, len(payload), MaxSize)
	}

	out := make([]byte, 0, len(payload)+12)
	out = strconv.AppendInt(out, int64(len(payload)), 10)
	out = append(out, ' ')
	out = append(out, payload...)
	out = append(out, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.w.Write(out)
	return err
}

// Reader decodes frames from a stream. It is not safe for concurrent use.
type Reader struct {
	rd *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{rd: bufio.NewReader(r)}
}

// ReadFrame returns the next payload. io.EOF is returned unwrapped when the
// stream ends cleanly between frames.
func (r *Reader) ReadFrame() ([]byte, error) {
	sizeStr, err := r.rd.ReadString(' ')
	if err != nil {
		if err == io.EOF && len(sizeStr) == 0 {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read error: %w", err)
	} else if len(sizeStr) < 2 {
		return nil, fmt.Errorf("%w: invalid size", ErrInvalidFrame)
	}

	byteCnt, err := strconv.ParseInt(sizeStr[:len(sizeStr)-1], 10, 32)
	if err != nil || byteCnt < 1 {
		return nil, fmt.Errorf("%w: size too short", ErrInvalidFrame)
	} else if byteCnt > MaxSize {
		return nil, fmt.Errorf("%w: size %d exceeds %d", ErrInvalidFrame, byteCnt, MaxSize)
	}

	blob := make([]byte, byteCnt)
	if _, err := io.ReadFull(r.rd, blob); err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}

	// Read the final newline
	if nl, err := r.rd.ReadByte(); err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	} else if nl != '\n' {
		return nil, fmt.Errorf("%w: expected terminating newline, read %q", ErrInvalidFrame, nl)
	}

	return blob, nil
}
