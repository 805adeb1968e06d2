// Package broadcast republishes layout frames on a nanomsg PUB socket so
// that viewers outside the HTTP API can follow the layout.
//
// Every message starts with the topic "frame", a NUL and a codec byte,
// followed by the frame as exported JSON, snappy-compressed when the codec
// byte is CodecSnappy.
package broadcast

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"

	// Register transports
	_ "go.nanomsg.org/mangos/v3/transport/all"

	"github.com/dd0wney/cluso-socialgraph/pkg/logging"
	"github.com/dd0wney/cluso-socialgraph/pkg/pools"
	"github.com/dd0wney/cluso-socialgraph/pkg/visualization"
)

// Topic prefixes every frame message; subscribers filter on it.
var Topic = []byte("frame\x00")

// Codec bytes.
const (
	CodecJSON   byte = 0
	CodecSnappy byte = 1
)

// sendTimeout bounds a blocked send; PUB sockets normally never block.
const sendTimeout = time.Second

// ErrMalformed is returned by Decode for a message without the frame
// header or with a corrupt body.
var ErrMalformed = errors.New("malformed frame message")

// Frames is the stream a Publisher forwards.
type Frames interface {
	Channel() <-chan any
}

// Publisher owns the PUB socket.
type Publisher struct {
	sock     mangos.Socket
	addr     string
	compress bool
	logger   logging.Logger

	sent   atomic.Uint64
	failed atomic.Uint64

	closeOnce sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithCompression snappy-compresses frame bodies.
func WithCompression(on bool) Option {
	return func(p *Publisher) { p.compress = on }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(p *Publisher) { p.logger = l }
}

// Listen binds a PUB socket to addr, e.g. "tcp://*:9090".
func Listen(addr string, opts ...Option) (*Publisher, error) {
	sock, err := pub.NewSocket()
	if err != nil {
		return nil, errors.Wrap(err, "create PUB socket")
	}
	if err := sock.SetOption(mangos.OptionSendDeadline, sendTimeout); err != nil {
		_ = sock.Close()
		return nil, errors.Wrap(err, "set send deadline")
	}
	if err := sock.Listen(addr); err != nil {
		_ = sock.Close()
		return nil, errors.Wrapf(err, "bind PUB socket to %s", addr)
	}

	p := &Publisher{sock: sock, addr: addr, logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(logging.Component("broadcast"), logging.String("addr", addr))
	p.logger.Info("frame publisher bound", logging.Bool("compress", p.compress))
	return p, nil
}

// Run forwards frames until ctx is done or the stream closes. Send
// failures are counted and logged; they do not stop the publisher.
func (p *Publisher) Run(ctx context.Context, frames Frames) error {
	defer p.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-frames.Channel():
			if !ok {
				return nil
			}
			frame, ok := msg.(visualization.Frame)
			if !ok {
				continue
			}
			if err := p.Send(frame); err != nil {
				p.logger.Debug("frame not published", logging.Error(err), logging.Uint64("seq", frame.Seq))
			}
		}
	}
}

// Send publishes one frame.
func (p *Publisher) Send(frame visualization.Frame) error {
	body, err := visualization.ExportJSON(frame)
	if err != nil {
		p.failed.Add(1)
		return err
	}

	msg, release := Encode(body, p.compress)
	defer release()

	if err := p.sock.Send(msg); err != nil {
		p.failed.Add(1)
		return errors.Wrap(err, "publish frame")
	}
	p.sent.Add(1)
	return nil
}

// Stats returns how many frames were published and how many failed.
func (p *Publisher) Stats() (sent, failed uint64) {
	return p.sent.Load(), p.failed.Load()
}

// Close closes the socket.
func (p *Publisher) Close() error {
	var err error
	p.closeOnce.Do(func() {
		err = p.sock.Close()
	})
	return err
}

// Encode frames body as a message. The returned buffer comes from a pool
// and is only valid until release is called.
func Encode(body []byte, compress bool) (msg []byte, release func()) {
	header := len(Topic) + 1
	size := header + len(body)
	if compress {
		size = header + snappy.MaxEncodedLen(len(body))
	}

	buf := pools.GetBytes(size)
	buf = append(buf, Topic...)
	if compress {
		buf = append(buf, CodecSnappy)
		enc := snappy.Encode(buf[header:size], body)
		buf = buf[:header+len(enc)]
	} else {
		buf = append(buf, CodecJSON)
		buf = append(buf, body...)
	}
	return buf, func() { pools.PutBytes(buf) }
}

// Decode returns the JSON body of a frame message.
func Decode(msg []byte) ([]byte, error) {
	header := len(Topic) + 1
	if len(msg) < header || !bytes.HasPrefix(msg, Topic) {
		return nil, ErrMalformed
	}
	body := msg[header:]
	switch msg[header-1] {
	case CodecJSON:
		return body, nil
	case CodecSnappy:
		out, err := snappy.Decode(nil, body)
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "decompress frame"), ErrMalformed)
		}
		return out, nil
	default:
		return nil, errors.Wrapf(ErrMalformed, "unknown codec %d", msg[header-1])
	}
}
