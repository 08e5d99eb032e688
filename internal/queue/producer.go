// Package queue bridges the Ingestor's accepted books to the Indexer's
// consumer loop over ActiveMQ/STOMP.
package queue

import (
	"fmt"
	"strconv"

	"github.com/go-stomp/stomp/v3"

	"github.com/mterris/gutensearch/internal/errs"
)

// Producer publishes indexing jobs. One Producer is shared by all of a
// node's ingest handlers.
type Producer struct {
	conn     *stomp.Conn
	queue    string
	sourceIP string
}

// Dial opens a STOMP connection to brokerURL (e.g. "tcp://localhost:61613")
// and returns a Producer bound to queueName.
func Dial(brokerURL, queueName, sourceIP string) (*Producer, error) {
	network, addr, err := parseBrokerURL(brokerURL)
	if err != nil {
		return nil, err
	}

	conn, err := stomp.Dial(network, addr)
	if err != nil {
		return nil, fmt.Errorf("dialing broker %s: %w", brokerURL, errs.ErrQueueError)
	}

	return &Producer{conn: conn, queue: queueName, sourceIP: sourceIP}, nil
}

// PublishIndexJob publishes a persistent message carrying id's decimal
// string as both body and correlation id, with the sourceNodeIp header set
// to this node's address.
func (p *Producer) PublishIndexJob(id int64) error {
	payload := strconv.FormatInt(id, 10)

	err := p.conn.Send(
		p.queue,
		"text/plain",
		[]byte(payload),
		stomp.SendOpt.Header("persistent", "true"),
		stomp.SendOpt.Header("correlation-id", payload),
		stomp.SendOpt.Header("sourceNodeIp", p.sourceIP),
	)
	if err != nil {
		return fmt.Errorf("publishing index job for book %d: %w", id, errs.ErrQueueError)
	}
	return nil
}

// Close disconnects from the broker.
func (p *Producer) Close() error {
	return p.conn.Disconnect()
}
