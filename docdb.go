package docdb

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/deepnoodle-ai/docdb/config"
	"github.com/deepnoodle-ai/docdb/document"
	"github.com/deepnoodle-ai/docdb/query"
	"github.com/deepnoodle-ai/docdb/rest"
	"github.com/deepnoodle-ai/docdb/slogger"
	"github.com/deepnoodle-ai/docdb/wire"
)

// Options configures a Client
type Options struct {
	// Config holds the endpoint, retry, paging and extraction settings.
	// Zero values take the defaults of config.Default.
	Config config.ClientConfig

	Logger slogger.Logger

	// HTTPClient overrides the HTTP client. Its timeout wins over
	// Config.Timeout.
	HTTPClient *http.Client

	// Services replaces the REST transport, typically with a mock
	Services rest.Services
}

// Client bundles the document and query managers of one docdb server
type Client struct {
	services rest.Services
	logger   slogger.Logger

	binary  *document.BinaryManager
	xml     *document.Manager
	json    *document.Manager
	text    *document.Manager
	generic *document.Manager
	query   *query.Manager
}

// New returns a Client for the server described by opts
func New(opts Options) (*Client, error) {
	cfg := withDefaults(opts.Config)
	extraction, err := document.ParseMetadataExtraction(cfg.MetadataExtraction)
	if err != nil {
		return nil, err
	}
	view, err := wire.ParseView(cfg.View)
	if err != nil {
		return nil, err
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("invalid max retries %d", cfg.MaxRetries)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slogger.DefaultLogger
	}

	services := opts.Services
	if services == nil {
		httpClient := opts.HTTPClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: cfg.TimeoutDuration()}
		}
		services = rest.NewClient(
			rest.WithEndpoint(cfg.Endpoint),
			rest.WithHTTPClient(httpClient),
			rest.WithMaxRetries(cfg.MaxRetries),
			rest.WithBaseWait(cfg.BaseWaitDuration()),
			rest.WithLogger(logger),
		)
	}

	docOpts := []document.ManagerOption{
		document.WithLogger(logger),
		document.WithMetadataExtraction(extraction),
	}
	c := &Client{
		services: services,
		logger:   logger,
		binary:   document.NewBinaryManager(services, docOpts...),
		xml:      document.NewXMLManager(services, docOpts...),
		json:     document.NewJSONManager(services, docOpts...),
		text:     document.NewTextManager(services, docOpts...),
		generic:  document.NewGenericManager(services, docOpts...),
		query: query.NewManager(services,
			query.WithPageLength(cfg.PageLength),
			query.WithView(view),
			query.WithLogger(logger),
		),
	}
	logger.Debug("docdb client ready",
		"endpoint", cfg.Endpoint,
		"max_retries", cfg.MaxRetries,
		"metadata_extraction", extraction.String())
	return c, nil
}

// NewFromConfig returns a Client configured by the client and logging
// sections of cfg.
func NewFromConfig(cfg *config.Config) (*Client, error) {
	logger := slogger.NewWithOptions(slogger.Options{
		Level: slogger.LevelFromString(cfg.Logging.Level),
		JSON:  cfg.Logging.JSON,
	})
	return New(Options{Config: cfg.Client, Logger: logger})
}

func withDefaults(cfg config.ClientConfig) config.ClientConfig {
	defaults := config.Default().Client
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaults.Endpoint
	}
	if cfg.BaseWait == "" {
		cfg.BaseWait = defaults.BaseWait
	}
	if cfg.Timeout == "" {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.PageLength == 0 {
		cfg.PageLength = defaults.PageLength
	}
	return cfg
}

// Services returns the transport shared by every manager
func (c *Client) Services() rest.Services {
	return c.services
}

func (c *Client) BinaryManager() *document.BinaryManager {
	return c.binary
}

func (c *Client) XMLManager() *document.Manager {
	return c.xml
}

func (c *Client) JSONManager() *document.Manager {
	return c.json
}

func (c *Client) TextManager() *document.Manager {
	return c.text
}

// GenericManager returns the manager that accepts content of any format
func (c *Client) GenericManager() *document.Manager {
	return c.generic
}

func (c *Client) QueryManager() *query.Manager {
	return c.query
}

// SetMetadataExtraction changes the extraction policy of every document
// manager. Calls already in flight keep the previous policy.
func (c *Client) SetMetadataExtraction(e document.MetadataExtraction) {
	c.binary.SetMetadataExtraction(e)
	for _, m := range []*document.Manager{c.xml, c.json, c.text, c.generic} {
		m.SetMetadataExtraction(e)
	}
}

// OpenTransaction starts a server transaction. A zero timeLimit uses the
// server default.
func (c *Client) OpenTransaction(ctx context.Context, name string, timeLimit time.Duration) (*rest.Transaction, error) {
	tx, err := c.services.OpenTransaction(ctx, name, timeLimit)
	if err != nil {
		return nil, fmt.Errorf("open transaction: %w", err)
	}
	return tx, nil
}

// StartLogging sends every request and response to logger
func (c *Client) StartLogging(logger rest.RequestLogger) {
	c.services.StartLogging(logger)
}

func (c *Client) StopLogging() {
	c.services.StopLogging()
}
