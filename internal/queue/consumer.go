package queue

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-stomp/stomp/v3"

	"github.com/mterris/gutensearch/internal/errs"
	"github.com/mterris/gutensearch/internal/logging"
)

// indexer is the subset of *indexing.Indexer the consumer needs, kept as a
// narrow interface rather than a concrete type.
type indexer interface {
	IndexBook(ctx context.Context, id int64) error
}

// reconnectBackoff is how long the consumer sleeps before retrying after a
// broker connection is lost.
const reconnectBackoff = 10 * time.Second

// Consumer is the indexer-side long-running worker that drains queueName
// and calls ix.IndexBook for each well-formed identifier it receives.
type Consumer struct {
	brokerURL string
	queue     string
	ix        indexer
}

func NewConsumer(brokerURL, queueName string, ix indexer) *Consumer {
	return &Consumer{brokerURL: brokerURL, queue: queueName, ix: ix}
}

// Run blocks, consuming messages until ctx is canceled. On transient broker
// failures it sleeps reconnectBackoff and reconnects.
func (c *Consumer) Run(ctx context.Context) error {
	ctx = logging.WithComponent(ctx, "consumer")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := c.runSession(ctx); err != nil {
			logging.Log(ctx).Warn("queue session ended, reconnecting", "err", err, "backoff", reconnectBackoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(reconnectBackoff):
			}
		}
	}
}

func (c *Consumer) runSession(ctx context.Context) error {
	network, addr, err := parseBrokerURL(c.brokerURL)
	if err != nil {
		return err
	}

	conn, err := stomp.Dial(network, addr)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Disconnect() }()

	sub, err := conn.Subscribe(c.queue, stomp.AckClientIndividual)
	if err != nil {
		return err
	}
	defer func() { _ = sub.Unsubscribe() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.C:
			if !ok {
				return errQueueClosed
			}
			c.handle(ctx, conn, msg)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, conn *stomp.Conn, msg *stomp.Message) {
	if msg.Err != nil {
		logging.Log(ctx).Warn("queue delivered an error frame", "err", msg.Err)
		return
	}

	id, err := strconv.ParseInt(string(msg.Body), 10, 64)
	if err != nil {
		logging.Log(ctx).Warn("dropping malformed index job payload", "payload", string(msg.Body), "err", err)
		_ = conn.Ack(msg)
		return
	}

	sourceNodeIP := headerValue(msg, "sourceNodeIp")

	if err := c.ix.IndexBook(ctx, id); err != nil {
		if errors.Is(err, errs.ErrNotFound) || errors.Is(err, errs.ErrBookFormat) {
			logging.Log(ctx).Error("indexing job permanently unprocessable, dropping", "bookId", id, "sourceNodeIp", sourceNodeIP, "err", err)
			_ = conn.Ack(msg)
			return
		}
		logging.Log(ctx).Error("indexing job failed, leaving for broker redelivery", "bookId", id, "sourceNodeIp", sourceNodeIP, "err", err)
		_ = conn.Nack(msg)
		return
	}
	_ = conn.Ack(msg)
}

func headerValue(msg *stomp.Message, key string) string {
	if msg.Header == nil {
		return ""
	}
	return msg.Header.Get(key)
}

var errQueueClosed = queueClosedError{}

type queueClosedError struct{}

func (queueClosedError) Error() string { return "queue subscription channel closed" }
