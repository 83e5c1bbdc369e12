package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"tradedash/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	pathStats     = "/api/stats"
	pathPositions = "/api/positions"
	pathStatus    = "/api/bot/status"
	pathStart     = "/api/bot/start"
	pathStop      = "/api/bot/stop"
	pathConfig    = "/api/config"
	pathLogs      = "/api/logs"
	pathExportCSV = "/api/export/trades/csv"

	defaultExportFailure = "No trades available"
)

// ErrUnexpectedExportFormat is returned when the export endpoint answers a
// successful request with JSON instead of CSV.
var ErrUnexpectedExportFormat = errors.New("unexpected response format")

// ErrExportServer is returned when the export endpoint fails without a
// JSON explanation.
var ErrExportServer = errors.New("server error during export")

type BackendClient struct {
	logger  *zap.Logger
	client  *resty.Client
	baseURL string
}

func NewBackendClient(logger *zap.Logger, cfg *config.Config) *BackendClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := resty.New()
	client.SetBaseURL(cfg.Backend.BaseURL)
	client.SetTimeout(cfg.Backend.Timeout)

	return &BackendClient{
		logger:  logger,
		client:  client,
		baseURL: cfg.Backend.BaseURL,
	}
}

// BaseURL returns the backend root every path is resolved against.
func (c *BackendClient) BaseURL() string {
	return c.baseURL
}

func (c *BackendClient) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.getJSON(ctx, pathStats, &stats); err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &stats, nil
}

func (c *BackendClient) GetPositions(ctx context.Context) (*Positions, error) {
	var positions Positions
	if err := c.getJSON(ctx, pathPositions, &positions); err != nil {
		return nil, fmt.Errorf("get positions: %w", err)
	}
	return &positions, nil
}

func (c *BackendClient) GetBotStatus(ctx context.Context) (*BotStatus, error) {
	var status BotStatus
	if err := c.getJSON(ctx, pathStatus, &status); err != nil {
		return nil, fmt.Errorf("get bot status: %w", err)
	}
	return &status, nil
}

func (c *BackendClient) GetConfig(ctx context.Context) (*TradingConfig, error) {
	var cfg TradingConfig
	if err := c.getJSON(ctx, pathConfig, &cfg); err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}
	return &cfg, nil
}

func (c *BackendClient) GetLogs(ctx context.Context) (*Logs, error) {
	var logs Logs
	if err := c.getJSON(ctx, pathLogs, &logs); err != nil {
		return nil, fmt.Errorf("get logs: %w", err)
	}
	return &logs, nil
}

// StartBot asks the backend to start trading. A decoded result with
// Success=false is not an error; transport and decode failures are.
func (c *BackendClient) StartBot(ctx context.Context) (*ActionResult, error) {
	result, err := c.postAction(ctx, pathStart)
	if err != nil {
		return nil, fmt.Errorf("start bot: %w", err)
	}
	return result, nil
}

// StopBot asks the backend to stop trading.
func (c *BackendClient) StopBot(ctx context.Context) (*ActionResult, error) {
	result, err := c.postAction(ctx, pathStop)
	if err != nil {
		return nil, fmt.Errorf("stop bot: %w", err)
	}
	return result, nil
}

// ExportTradesCSV downloads the closed trades as CSV. The declared content
// type decides how the body is read:
//
//	JSON, non-2xx  -> *ExportError with the body's message
//	JSON, 2xx      -> ErrUnexpectedExportFormat
//	other, 2xx     -> the CSV bytes
//	other, non-2xx -> ErrExportServer
func (c *BackendClient) ExportTradesCSV(ctx context.Context) (*CSVExport, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		Get(pathExportCSV)
	if err != nil {
		return nil, fmt.Errorf("export trades: %w", err)
	}

	contentType := resp.Header().Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		if !resp.IsSuccess() {
			var body struct {
				Message string `json:"message"`
			}
			_ = json.Unmarshal(resp.Body(), &body)
			msg := body.Message
			if msg == "" {
				msg = defaultExportFailure
			}
			return nil, &ExportError{StatusCode: resp.StatusCode(), Message: msg}
		}
		return nil, ErrUnexpectedExportFormat
	}

	if !resp.IsSuccess() {
		c.logger.Warn(
			"export failed",
			zap.Int("status", resp.StatusCode()),
			zap.String("content_type", contentType),
		)
		return nil, ErrExportServer
	}

	return &CSVExport{
		ContentType: contentType,
		Data:        resp.Body(),
	}, nil
}

func (c *BackendClient) postAction(ctx context.Context, path string) (*ActionResult, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	var result ActionResult
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		if !resp.IsSuccess() {
			return nil, fmt.Errorf("status=%d body=%s", resp.StatusCode(), resp.String())
		}
		return nil, fmt.Errorf("decode json: %w", err)
	}

	if !resp.IsSuccess() && result.Message == "" {
		result.Message = http.StatusText(resp.StatusCode())
	}

	return &result, nil
}

// getJSON performs a GET request and decodes the JSON response.
func (c *BackendClient) getJSON(ctx context.Context, path string, dest any) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("status=%d body=%s", resp.StatusCode(), resp.String())
	}

	if err := json.Unmarshal(resp.Body(), dest); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}

	return nil
}
