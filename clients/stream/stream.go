package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"tradedash/config"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const streamPath = "/api/stream"

// ErrStreamEnded is reported when the server closes the stream cleanly.
var ErrStreamEnded = errors.New("event stream closed by server")

// Event types pushed by the backend.
const (
	EventHeartbeat      = "heartbeat"
	EventConnected      = "connected"
	EventPositionOpened = "position_opened"
	EventPositionClosed = "position_closed"
)

// Event is one server-push notification.
type Event struct {
	Type    string    `json:"type"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Data    EventData `json:"data"`
}

// EventData carries the position fields the dashboard reacts to.
type EventData struct {
	PnLUSDT     decimal.Decimal `json:"pnl_usdt"`
	CloseReason string          `json:"close_reason"`
}

// ParseEvent decodes a single data frame.
func ParseEvent(data json.RawMessage) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return &event, nil
}

type StreamStats struct {
	MessageCount  uint64
	LastMessageAt time.Time
}

// StreamClient holds a single long-lived text/event-stream connection.
// Connect may be called again after the previous connection failed or was
// closed; Messages and Errors survive reconnections.
type StreamClient struct {
	logger *zap.Logger

	client    *resty.Client
	streamURL string

	connMu sync.Mutex
	body   io.ReadCloser
	done   chan struct{}

	msgCh chan json.RawMessage
	errCh chan error

	msgCount        uint64
	lastMsgUnixNano int64
}

func NewStreamClient(logger *zap.Logger, cfg *config.Config) *StreamClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	// No client timeout: it would cut the stream off mid-read.
	client := resty.New()
	client.SetBaseURL(cfg.Backend.BaseURL)

	return &StreamClient{
		logger:    logger,
		client:    client,
		streamURL: cfg.Backend.BaseURL + streamPath,

		msgCh: make(chan json.RawMessage, 256),
		errCh: make(chan error, 16),
	}
}

// URL returns the stream endpoint.
func (c *StreamClient) URL() string {
	return c.streamURL
}

// Connect opens the stream and starts reading it in the background. It
// returns once the server has answered with a 2xx status.
func (c *StreamClient) Connect(ctx context.Context) error {
	c.connMu.Lock()
	alreadyConnected := c.body != nil
	c.connMu.Unlock()
	if alreadyConnected {
		return fmt.Errorf("already connected")
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "text/event-stream").
		SetHeader("Cache-Control", "no-cache").
		Get(streamPath)
	if err != nil {
		return fmt.Errorf("open event stream: %w", err)
	}

	body := resp.RawBody()
	if !resp.IsSuccess() {
		if body != nil {
			_ = body.Close()
		}
		return fmt.Errorf("open event stream: status=%d", resp.StatusCode())
	}

	done := make(chan struct{})

	c.connMu.Lock()
	c.body = body
	c.done = done
	c.connMu.Unlock()

	c.logger.Info("event stream connected", zap.String("url", c.streamURL))

	go c.readLoop(body, done)

	go func() {
		select {
		case <-ctx.Done():
			_ = c.closeIfCurrent(done)
		case <-done:
		}
	}()

	return nil
}

func (c *StreamClient) Messages() <-chan json.RawMessage {
	return c.msgCh
}

func (c *StreamClient) Errors() <-chan error {
	return c.errCh
}

func (c *StreamClient) Stats() StreamStats {
	n := atomic.LoadUint64(&c.msgCount)
	ns := atomic.LoadInt64(&c.lastMsgUnixNano)

	var t time.Time
	if ns > 0 {
		t = time.Unix(0, ns)
	}

	return StreamStats{
		MessageCount:  n,
		LastMessageAt: t,
	}
}

// Close tears down the current connection, if any. It is safe to call
// repeatedly.
func (c *StreamClient) Close() error {
	c.connMu.Lock()
	done := c.done
	c.connMu.Unlock()

	return c.closeIfCurrent(done)
}

func (c *StreamClient) readLoop(body io.Reader, done chan struct{}) {
	c.logger.Debug("event stream read loop started")

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var data bytes.Buffer
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			// Blank line terminates the event.
			if data.Len() > 0 {
				c.emitFrame(data.Bytes())
				data.Reset()
			}
		case strings.HasPrefix(line, ":"):
			// Comment / keep-alive.
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		default:
			// event:, id: and retry: fields are not used.
		}
	}

	err := scanner.Err()
	if err == nil {
		err = ErrStreamEnded
	}

	select {
	case <-done:
		c.logger.Debug("event stream read loop exiting: closed")
		return
	default:
	}

	c.logger.Warn("event stream read loop exiting", zap.Error(err))
	select {
	case c.errCh <- err:
	default:
	}
	_ = c.closeIfCurrent(done)
}

// closeIfCurrent closes the connection only while done still identifies it.
// A read loop that outlives its connection leaves a newer one alone.
func (c *StreamClient) closeIfCurrent(done chan struct{}) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.done != done {
		return nil
	}

	select {
	case <-c.done:
	default:
		close(c.done)
	}
	c.done = nil

	var err error
	if c.body != nil {
		err = c.body.Close()
		c.body = nil
	}
	return err
}

func (c *StreamClient) emitFrame(b []byte) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		return
	}

	atomic.AddUint64(&c.msgCount, 1)
	atomic.StoreInt64(&c.lastMsgUnixNano, time.Now().UnixNano())

	c.forward(json.RawMessage(append([]byte(nil), trimmed...)))
}

func (c *StreamClient) forward(msg json.RawMessage) {
	select {
	case c.msgCh <- msg:
	default:
		c.logger.Warn("dropping stream message: msgCh full")
	}
}
