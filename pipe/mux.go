package pipe

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/oklog/ulid/v2"

	enamlerrors "github.com/CrimsonAS/enaml/errors"
	"github.com/CrimsonAS/enaml/internal/frame"
	"github.com/CrimsonAS/enaml/internal/loop"
	"github.com/CrimsonAS/enaml/metrics"
)

// MuxVersion is the protocol version announced by a Mux when it starts.
const MuxVersion = 1

// Mux carries any number of pipes over one stream, such as a socket or the
// stdin/stdout of a child process. Frames are length-prefixed JSON:
//
//	{"command":"MESSAGE","pipe":"<id>","message":"set_text","context":{...}}
//
// Inbound frames are read by an internal goroutine and queued. Callbacks run
// only during calls to Process (or Run, or RunLockable), so an application
// controls which goroutine touches its widgets. Messages for a pipe with no
// callback are buffered on that pipe until one is installed.
type Mux struct {
	stream *frame.Stream
	log    *slog.Logger

	mu        sync.Mutex
	endpoints map[string]*muxEndpoint
	flush     map[string]*muxEndpoint
}

// NewMux creates a multiplexer over an open stream. Nothing is read or
// written until the first Put, Process, ProcessSignal or Run.
func NewMux(data io.ReadWriteCloser, opts ...Option) *Mux {
	return NewMuxSplit(data, data, opts...)
}

// NewMuxSplit is equivalent to NewMux, except that it uses separate streams
// for reading and writing.
func NewMuxSplit(in io.ReadCloser, out io.WriteCloser, opts ...Option) *Mux {
	o := buildOptions(opts)
	return &Mux{
		stream:    frame.NewStream(in, out, muxMessage{Command: "VERSION", Version: MuxVersion}),
		log:       o.log,
		endpoints: make(map[string]*muxEndpoint),
		flush:     make(map[string]*muxEndpoint),
	}
}

// NewStdMux creates a Mux over stdin and stdout, for a process launched by
// its peer. os.Stdin is set to nil and os.Stdout to os.Stderr so stray
// prints cannot corrupt the stream.
func NewStdMux(opts ...Option) *Mux {
	if os.Stdin == nil {
		panic("cannot create multiple stdin/stdout Mux instances")
	}

	in, out := os.Stdin, os.Stdout
	os.Stdin, os.Stdout = nil, os.Stderr
	return NewMuxSplit(in, out, opts...)
}

type muxMessage struct {
	Command string  `json:"command"`
	Version int     `json:"version,omitempty"`
	Pipe    string  `json:"pipe,omitempty"`
	Message string  `json:"message,omitempty"`
	Context Context `json:"context,omitempty"`
}

func (m *Mux) fatal(err error) {
	if m.stream.Fail(err) {
		m.log.Error("mux failed", slog.Any("error", err))
	}
}

func (m *Mux) warn(msg string, args ...any) {
	m.log.Warn(msg, args...)
}

func (m *Mux) ensureHandler() error {
	return m.stream.Start()
}

// Started reports whether the reader and writer have been started.
func (m *Mux) Started() bool {
	return m.stream.Started()
}

// Err returns the error that ended the mux, or nil.
func (m *Mux) Err() error {
	if err := m.stream.Err(); err != nil {
		if enamlerrors.GetCode(err) == enamlerrors.ErrCodeProtocol {
			return err
		}
		return enamlerrors.Wrap(err, enamlerrors.ErrCodeProtocol, "stream failed")
	}
	return nil
}

// Run processes messages until the mux is closed. Callbacks may run at any
// time while Run is active; see RunLockable for mutual exclusion.
func (m *Mux) Run() error {
	m.ensureHandler()
	return loop.Run(m)
}

// RunLockable runs the mux in a separate goroutine and returns a
// sync.Locker that excludes Process while held.
func (m *Mux) RunLockable() (sync.Locker, <-chan error) {
	m.ensureHandler()
	return loop.RunLockable(m)
}

// Process delivers pending inbound messages but does not block to wait for
// new ones. ProcessSignal signals when there is work.
//
// Process returns nil when nothing is pending. All errors are fatal for the
// mux.
func (m *Mux) Process() error {
	m.ensureHandler()

	for {
		data, ok := m.stream.Next()
		if !ok {
			break
		}
		m.dispatch(data)
	}
	m.flushPending()
	return m.Err()
}

func (m *Mux) ProcessSignal() <-chan struct{} {
	m.ensureHandler()
	return m.stream.Signal()
}

func (m *Mux) dispatch(data []byte) {
	var msg muxMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		m.fatal(enamlerrors.Wrap(err, enamlerrors.ErrCodeProtocol, "invalid message"))
		return
	}

	switch msg.Command {
	case "VERSION":
		if msg.Version != MuxVersion {
			m.fatal(enamlerrors.Newf(enamlerrors.ErrCodeProtocol, "unsupported version %d", msg.Version))
		}

	case "MESSAGE":
		if msg.Pipe == "" || msg.Message == "" {
			m.fatal(enamlerrors.New(enamlerrors.ErrCodeProtocol, "message without pipe or name"))
			return
		}
		if msg.Context == nil {
			msg.Context = Context{}
		}

		ep := m.endpoint(msg.Pipe)
		if err := ep.box.push(msg.Message, msg.Context); err != nil {
			metrics.MessagesDropped.WithLabelValues("mux", "closed").Inc()
			m.warn("message for closed pipe", slog.String("pipe", msg.Pipe), slog.String("message", msg.Message))
			return
		}
		ep.box.drain()

	default:
		m.fatal(enamlerrors.Newf(enamlerrors.ErrCodeProtocol, "unknown command %q", msg.Command))
	}
}

func (m *Mux) flushPending() {
	m.mu.Lock()
	if len(m.flush) == 0 {
		m.mu.Unlock()
		return
	}
	eps := make([]*muxEndpoint, 0, len(m.flush))
	for id, ep := range m.flush {
		eps = append(eps, ep)
		delete(m.flush, id)
	}
	m.mu.Unlock()

	for _, ep := range eps {
		ep.box.drain()
	}
}

func (m *Mux) schedule(ep *muxEndpoint) {
	m.mu.Lock()
	m.flush[ep.id] = ep
	m.mu.Unlock()
	m.stream.Wake()
}

func (m *Mux) endpoint(id string) *muxEndpoint {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ep, ok := m.endpoints[id]; ok {
		return ep
	}
	ep := &muxEndpoint{mux: m, id: id, box: newInbox("mux", id, m.log)}
	m.endpoints[id] = ep
	return ep
}

// Pipe returns the pipe with the given identifier, creating it if the mux
// has not seen it yet. Both ends of a connection name a pipe by the same
// identifier.
func (m *Mux) Pipe(id string) Pipe {
	return m.endpoint(id)
}

// NewPair allocates two pipes with fresh identifiers.
func (m *Mux) NewPair() (Pipe, Pipe, error) {
	return m.endpoint(ulid.Make().String()), m.endpoint(ulid.Make().String()), nil
}

func (m *Mux) send(id, message string, ctx Context) error {
	err := m.stream.Send(muxMessage{Command: "MESSAGE", Pipe: id, Message: message, Context: ctx})
	switch {
	case err == nil:
		metrics.MessagesSent.WithLabelValues("mux", message).Inc()
		return nil
	case errors.Is(err, frame.ErrStopped):
		return ErrClosed
	case m.stream.Err() != nil:
		return enamlerrors.Wrap(err, enamlerrors.ErrCodePipeClosed, "mux failed")
	}
	return enamlerrors.Wrap(err, enamlerrors.ErrCodeProtocol, "message encoding failed").
		WithContext("message", message)
}

// Close shuts down both streams. Messages buffered on pipes without a
// callback are discarded.
func (m *Mux) Close() error {
	m.stream.Close()

	m.mu.Lock()
	eps := make([]*muxEndpoint, 0, len(m.endpoints))
	for _, ep := range m.endpoints {
		eps = append(eps, ep)
	}
	m.mu.Unlock()

	for _, ep := range eps {
		ep.box.close()
	}
	return nil
}

type muxEndpoint struct {
	mux *Mux
	id  string
	box *inbox
}

func (e *muxEndpoint) ID() string {
	return e.id
}

func (e *muxEndpoint) String() string {
	return fmt.Sprintf("mux:%s", e.id)
}

func (e *muxEndpoint) Put(message string, ctx Context) (interface{}, error) {
	return nil, e.mux.send(e.id, message, ctx)
}

func (e *muxEndpoint) SetCallback(fn Handler) {
	if e.box.setCallback(fn) {
		e.mux.schedule(e)
	}
}
