package stream

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
	"github.com/lueurxax/code-skeptic-scanner/internal/platform/observability"
)

const (
	sourceNATS   = "nats"
	sourceReader = "reader"

	maxLineBytes = 1 << 20

	drainTimeout  = 30 * time.Second
	drainInterval = 50 * time.Millisecond
)

// DispatchFunc hands a decoded tweet to intake and reports whether it was accepted.
type DispatchFunc func(ctx context.Context, tweet domain.RawTweet) bool

// Source delivers tweets until its input ends or ctx is canceled.
type Source interface {
	Run(ctx context.Context, dispatch DispatchFunc) error
}

func deliver(ctx context.Context, source string, data []byte, dispatch DispatchFunc, logger *zerolog.Logger) {
	observability.TweetsIngested.WithLabelValues(source).Inc()

	tweet, err := DecodeTweet(data)
	if err != nil {
		observability.TweetsInvalid.WithLabelValues(source).Inc()
		logger.Warn().Err(err).Str("source", source).Msg("invalid tweet payload")

		return
	}

	dispatch(ctx, tweet)
}

// NATSSource subscribes to a subject carrying JSON tweet payloads.
type NATSSource struct {
	conn         *nats.Conn
	subject      string
	queue        string
	pendingMsgs  int
	pendingBytes int
	logger       *zerolog.Logger
}

// NewNATSSource creates a source. A non-empty queue joins a queue group so replicas share
// the stream.
func NewNATSSource(conn *nats.Conn, subject, queue string, logger *zerolog.Logger) *NATSSource {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &NATSSource{
		conn:         conn,
		subject:      subject,
		queue:        queue,
		pendingMsgs:  nats.DefaultSubPendingMsgsLimit,
		pendingBytes: nats.DefaultSubPendingBytesLimit,
		logger:       logger,
	}
}

// SetPendingLimits sizes the client-side buffer that holds messages while every intake
// worker is busy. Non-positive values keep the client defaults; the server drops messages
// for a consumer whose buffer is full.
func (s *NATSSource) SetPendingLimits(msgs, bytes int) {
	if msgs > 0 {
		s.pendingMsgs = msgs
	}

	if bytes > 0 {
		s.pendingBytes = bytes
	}
}

// ConnectNATS connects to the server at url.
func ConnectNATS(url string, logger *zerolog.Logger) (*nats.Conn, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	nc, err := nats.Connect(url,
		nats.Name("skeptic-scanner"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			event := logger.Error().Err(err)
			if sub != nil {
				dropped, _ := sub.Dropped()
				event = event.Str("subject", sub.Subject).Int("dropped", dropped)
			}

			event.Msg("nats subscription error")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return nc, nil
}

// Run subscribes and delivers messages until ctx is canceled, then drains the subscription.
// Messages buffered at cancellation are still delivered, with a context that is not
// canceled, and Run returns once the last of them has been handed to dispatch.
func (s *NATSSource) Run(ctx context.Context, dispatch DispatchFunc) error {
	deliverCtx := context.WithoutCancel(ctx)
	handler := func(msg *nats.Msg) {
		deliver(deliverCtx, sourceNATS, msg.Data, dispatch, s.logger)
	}

	var (
		sub *nats.Subscription
		err error
	)

	if s.queue != "" {
		sub, err = s.conn.QueueSubscribe(s.subject, s.queue, handler)
	} else {
		sub, err = s.conn.Subscribe(s.subject, handler)
	}

	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", s.subject, err)
	}

	if err := sub.SetPendingLimits(s.pendingMsgs, s.pendingBytes); err != nil {
		_ = sub.Unsubscribe()

		return fmt.Errorf("nats pending limits %s: %w", s.subject, err)
	}

	s.logger.Info().Str("subject", s.subject).Str("queue", s.queue).Msg("nats source subscribed")

	<-ctx.Done()

	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain %s: %w", s.subject, err)
	}

	return s.awaitDrain(sub)
}

// awaitDrain blocks until a draining subscription has delivered its buffered messages.
func (s *NATSSource) awaitDrain(sub *nats.Subscription) error {
	deadline := time.NewTimer(drainTimeout)
	defer deadline.Stop()

	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()

	for sub.IsValid() {
		select {
		case <-deadline.C:
			return fmt.Errorf("nats drain %s: %w", s.subject, nats.ErrTimeout)
		case <-ticker.C:
		}
	}

	s.logger.Info().Str("subject", s.subject).Msg("nats source drained")

	return nil
}

// ReaderSource reads one JSON tweet payload per line.
type ReaderSource struct {
	r      io.Reader
	logger *zerolog.Logger
}

// NewReaderSource creates a source over r.
func NewReaderSource(r io.Reader, logger *zerolog.Logger) *ReaderSource {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &ReaderSource{r: r, logger: logger}
}

// Run delivers every non-blank line until EOF or cancellation.
func (s *ReaderSource) Run(ctx context.Context, dispatch DispatchFunc) error {
	scanner := bufio.NewScanner(s.r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		deliver(ctx, sourceReader, line, dispatch, s.logger)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read tweets: %w", err)
	}

	return nil
}
