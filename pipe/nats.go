package pipe

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"

	enamlerrors "github.com/CrimsonAS/enaml/errors"
	"github.com/CrimsonAS/enaml/metrics"
)

// Connect opens a NATS connection for use with NATSFactory.
func Connect(url, name string, timeout time.Duration) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	opts := []nats.Option{
		nats.Name(name),
		nats.Timeout(timeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1), // Unlimited reconnects
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}

// NATSFactory maps pipes to NATS subjects of the form <prefix>.<id>.
//
// Put is a NATS request and the reader's subscription replies with the
// callback result, so Put is synchronous across the network and a pipe with
// no reader fails with ErrNoReceiver rather than losing the message. Each
// subscription handles its messages one at a time, preserving order for a
// single writer.
type NATSFactory struct {
	conn    *nats.Conn
	prefix  string
	timeout time.Duration
	log     *slog.Logger
}

func NewNATSFactory(conn *nats.Conn, prefix string, timeout time.Duration, opts ...Option) *NATSFactory {
	o := buildOptions(opts)
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &NATSFactory{conn: conn, prefix: prefix, timeout: timeout, log: o.log}
}

func (f *NATSFactory) NewPair() (Pipe, Pipe, error) {
	if f.conn.IsClosed() {
		return nil, nil, ErrClosed
	}
	return f.Pipe(ulid.Make().String()), f.Pipe(ulid.Make().String()), nil
}

// Pipe returns the pipe for an identifier. Pipes are stateless apart from
// their subscription, so both processes can name the same pipe.
func (f *NATSFactory) Pipe(id string) Pipe {
	return &natsPipe{factory: f, id: id, subject: f.prefix + "." + id}
}

type natsRequest struct {
	Message string  `json:"message"`
	Context Context `json:"context"`
}

type natsReply struct {
	Result         interface{} `json:"result,omitempty"`
	NotImplemented bool        `json:"not_implemented,omitempty"`
	Code           string      `json:"code,omitempty"`
	Error          string      `json:"error,omitempty"`
}

func encodeReply(result interface{}, err error) []byte {
	var reply natsReply
	switch {
	case err != nil:
		reply.Code = string(enamlerrors.GetCode(err))
		reply.Error = err.Error()
	case IsNotImplemented(result):
		reply.NotImplemented = true
	default:
		reply.Result = result
	}

	buf, merr := json.Marshal(reply)
	if merr != nil {
		buf, _ = json.Marshal(natsReply{
			Code:  string(enamlerrors.ErrCodeProtocol),
			Error: "reply encoding failed: " + merr.Error(),
		})
	}
	return buf
}

func decodeReply(data []byte) (interface{}, error) {
	var reply natsReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, enamlerrors.Wrap(err, enamlerrors.ErrCodeProtocol, "invalid reply")
	}
	if reply.Error != "" {
		code := enamlerrors.ErrorCode(reply.Code)
		if code == "" {
			code = enamlerrors.ErrCodeInternal
		}
		return nil, enamlerrors.New(code, reply.Error)
	}
	if reply.NotImplemented {
		return NotImplemented, nil
	}
	return reply.Result, nil
}

type natsPipe struct {
	factory *NATSFactory
	id      string
	subject string

	mu  sync.Mutex
	sub *nats.Subscription
}

func (p *natsPipe) ID() string {
	return p.id
}

func (p *natsPipe) String() string {
	return "nats:" + p.subject
}

func (p *natsPipe) Put(message string, ctx Context) (interface{}, error) {
	data, err := json.Marshal(natsRequest{Message: message, Context: ctx})
	if err != nil {
		return nil, enamlerrors.Wrap(err, enamlerrors.ErrCodeProtocol, "message encoding failed").
			WithContext("message", message)
	}

	metrics.MessagesSent.WithLabelValues("nats", message).Inc()
	msg, err := p.factory.conn.Request(p.subject, data, p.factory.timeout)
	if err != nil {
		switch {
		case errors.Is(err, nats.ErrNoResponders):
			metrics.MessagesDropped.WithLabelValues("nats", "no_receiver").Inc()
			p.factory.log.Warn("message dropped, no subscriber",
				slog.String("subject", p.subject),
				slog.String("message", message))
			return nil, enamlerrors.Wrap(err, enamlerrors.ErrCodeNoReceiver, "no subscriber").
				WithContext("pipe", p.id).
				WithContext("message", message)
		case errors.Is(err, nats.ErrConnectionClosed):
			return nil, enamlerrors.Wrap(err, enamlerrors.ErrCodePipeClosed, "connection closed")
		case errors.Is(err, nats.ErrTimeout):
			metrics.MessagesDropped.WithLabelValues("nats", "timeout").Inc()
		}
		return nil, enamlerrors.Wrap(err, enamlerrors.ErrCodeProtocol, "request failed").
			WithContext("pipe", p.id).
			WithContext("message", message)
	}
	return decodeReply(msg.Data)
}

func (p *natsPipe) SetCallback(fn Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sub != nil {
		if err := p.sub.Unsubscribe(); err != nil {
			p.factory.log.Warn("unsubscribe failed", slog.String("subject", p.subject), slog.Any("error", err))
		}
		p.sub = nil
	}
	if fn == nil {
		return
	}

	sub, err := p.factory.conn.Subscribe(p.subject, func(msg *nats.Msg) {
		var req natsRequest
		var result interface{}
		err := json.Unmarshal(msg.Data, &req)
		if err != nil {
			err = enamlerrors.Wrap(err, enamlerrors.ErrCodeProtocol, "invalid request")
		} else {
			if req.Context == nil {
				req.Context = Context{}
			}
			metrics.MessagesDelivered.WithLabelValues("nats").Inc()
			result, err = fn(req.Message, req.Context)
		}
		if msg.Reply != "" {
			_ = msg.Respond(encodeReply(result, err))
		}
	})
	if err != nil {
		p.factory.log.Error("subscribe failed", slog.String("subject", p.subject), slog.Any("error", err))
		return
	}
	// Make sure the interest is registered before a writer can request.
	if err := p.factory.conn.Flush(); err != nil {
		p.factory.log.Warn("flush failed", slog.String("subject", p.subject), slog.Any("error", err))
	}
	p.sub = sub
}
