package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/tidwall/gjson"

	"github.com/effective-security/toolgate/config"
	"github.com/effective-security/toolgate/pkg/metricskey"
	"github.com/effective-security/toolgate/schema"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolgate", "mcp")

const (
	healthCheckTimeout = 5 * time.Second

	// DefaultCallTimeout bounds a single tool invocation, distinct
	// from the health check timeout.
	DefaultCallTimeout = 30 * time.Second

	sessionHeader    = "Mcp-Session-Id"
	defaultSessionID = "default-session"

	clientName    = "toolgate"
	clientVersion = "1.0.0"
)

// Some servers return the session id in the handshake body instead of
// the response header.
var sessionRe = regexp.MustCompile(`"sessionId"\s*:\s*"([^"]+)"`)

// State tracks the per-client initialization progress. A failure at
// any stage is terminal for this client instance.
type State int

const (
	StateUninitialized State = iota
	StateHealthChecked
	StateSessionEstablished
	StateReady
	StateFailed
)

// Client owns one connection to one remote tool server: health check,
// session handshake, tool discovery, and tool invocation.
//
// The session id and tool list are written once during Initialize,
// before any concurrent reads. The access token is a whole-value
// atomic swap: an in-flight call that already read the prior token
// completes with it.
type Client struct {
	cfg         *config.Server
	httpClient  *http.Client
	callTimeout time.Duration

	accessToken atomic.Pointer[string]

	sessionID string
	state     State
	tools     []*ToolDescriptor
	byName    map[string]*ToolDescriptor
}

// NewClient creates an uninitialized client for one server.
func NewClient(cfg *config.Server, callTimeout time.Duration) *Client {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &Client{
		cfg:         cfg,
		httpClient:  http.DefaultClient,
		callTimeout: callTimeout,
	}
}

// WithHTTPClient overrides the HTTP client, mostly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) Name() string {
	return c.cfg.Name
}

func (c *Client) State() State {
	return c.state
}

// Connected reports whether initialization completed.
func (c *Client) Connected() bool {
	return c.state == StateReady
}

// RequiresAuth reports the server-level auth flag.
func (c *Client) RequiresAuth() bool {
	return c.cfg.RequiresAuth
}

// Tools returns the discovered tool descriptors.
func (c *Client) Tools() []*ToolDescriptor {
	return c.tools
}

// Tool returns the discovered descriptor by name.
func (c *Client) Tool(name string) (*ToolDescriptor, bool) {
	d, ok := c.byName[name]
	return d, ok
}

// SetAccessToken replaces the access token as a whole value.
// An empty token clears it.
func (c *Client) SetAccessToken(token string) {
	if token == "" {
		c.accessToken.Store(nil)
		return
	}
	c.accessToken.Store(&token)
}

func (c *Client) token() string {
	if p := c.accessToken.Load(); p != nil {
		return *p
	}
	return ""
}

// Initialize runs health check, session handshake and tool discovery
// in that order, short-circuiting on the first failure. A disabled
// config returns ErrServerDisabled before any network call. Every
// stage is bounded: the health check by its fixed timeout, handshake
// and discovery by the configured call timeout, so a hung server is a
// hard initialization failure rather than a stall.
func (c *Client) Initialize(ctx context.Context) error {
	if !c.cfg.IsEnabled() {
		return errors.WithMessagef(ErrServerDisabled, "server %q", c.cfg.Name)
	}

	started := time.Now()
	defer metricskey.PerfServerInit.MeasureSince(started, c.cfg.Name)

	if c.cfg.HealthURL != "" {
		if err := c.healthCheck(ctx); err != nil {
			c.state = StateFailed
			return &InitError{Server: c.cfg.Name, Stage: StageHealthCheck, Err: err}
		}
	}
	c.state = StateHealthChecked

	if err := c.handshake(ctx); err != nil {
		c.state = StateFailed
		return &InitError{Server: c.cfg.Name, Stage: StageHandshake, Err: err}
	}
	c.state = StateSessionEstablished

	if err := c.discoverTools(ctx); err != nil {
		c.state = StateFailed
		return &InitError{Server: c.cfg.Name, Stage: StageDiscovery, Err: err}
	}
	c.state = StateReady

	logger.ContextKV(ctx, xlog.INFO,
		"server", c.cfg.Name,
		"tools", len(c.tools),
	)
	return nil
}

func (c *Client) healthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.HealthURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create health check request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "health check request failed")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return errors.Newf("health check status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) handshake(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	req := NewRequest("initialize", initializeParams{
		ProtocolVersion: protocolVersion,
		Capabilities:    map[string]any{},
		ClientInfo:      clientInfo{Name: clientName, Version: clientVersion},
	})
	rr, err := c.post(ctx, req, false)
	if err != nil {
		return err
	}
	if rr.status/100 != 2 {
		return errors.Newf("initialize status %d", rr.status)
	}
	if rr.res.Error != nil {
		return errors.WithMessage(rr.res.Error, "initialize failed")
	}

	session := rr.header.Get(sessionHeader)
	if session == "" {
		if m := sessionRe.FindSubmatch(rr.body); m != nil {
			session = string(m[1])
		}
	}
	if session == "" {
		logger.ContextKV(ctx, xlog.WARNING,
			"server", c.cfg.Name,
			"reason", "no_session_id",
			"session", defaultSessionID,
		)
		session = defaultSessionID
	}
	c.sessionID = session

	// Best effort, some servers do not accept notifications.
	if _, err := c.post(ctx, NewNotification("notifications/initialized"), false); err != nil {
		logger.ContextKV(ctx, xlog.WARNING,
			"server", c.cfg.Name,
			"reason", "initialized_notification",
			"err", err.Error(),
		)
	}
	return nil
}

func (c *Client) discoverTools(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	rr, err := c.post(ctx, NewRequest("tools/list", nil), false)
	if err != nil {
		return err
	}
	if rr.status/100 != 2 {
		return errors.Newf("tools/list status %d", rr.status)
	}
	if rr.res.Error != nil {
		return errors.WithMessage(rr.res.Error, "tools/list failed")
	}

	var res toolsListResult
	if err := json.Unmarshal(rr.res.Result, &res); err != nil {
		return errors.Wrap(err, "failed to decode tools/list result")
	}

	c.tools = res.Tools
	c.byName = make(map[string]*ToolDescriptor, len(res.Tools))
	for _, d := range res.Tools {
		d.Server = c.cfg.Name
		d.typ = schema.TranslateJSON(d.InputSchema)
		c.byName[d.Name] = d
	}
	return nil
}

// CallTool invokes a remote tool. The effective auth requirement is
// the OR of the explicit per-call flag, the server config flag, and
// the discovered tool's own flag; when required and no token is set,
// the call fails before any network request.
//
// A timeout is downgraded to a soft result {"error": ...} so a hung
// server does not abort the caller's broader flow; every other
// protocol failure is returned as an error.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any, requiresAuth bool) (any, error) {
	if c.state != StateReady {
		return nil, errors.WithMessagef(ErrNotInitialized, "server %q", c.cfg.Name)
	}

	needAuth := requiresAuth || c.cfg.RequiresAuth
	if d, ok := c.byName[name]; ok {
		needAuth = needAuth || d.RequiresAuth
	}
	if needAuth && c.token() == "" {
		metricskey.StatsToolCallsFailed.IncrCounter(1, c.cfg.Name, name)
		return nil, errors.WithMessagef(ErrAuthRequired, "server %q, tool %q", c.cfg.Name, name)
	}

	started := time.Now()
	defer metricskey.PerfToolCall.MeasureSince(started, c.cfg.Name, name)

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	rr, err := c.post(ctx, NewRequest("tools/call", callParams{Name: name, Arguments: args}), needAuth)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			metricskey.StatsToolCallsTimedOut.IncrCounter(1, c.cfg.Name, name)
			logger.ContextKV(ctx, xlog.WARNING,
				"server", c.cfg.Name,
				"tool", name,
				"reason", "timeout",
				"timeout", c.callTimeout.String(),
			)
			return map[string]any{
				"error": fmt.Sprintf("tool call %q timed out after %d seconds", name, int(c.callTimeout.Seconds())),
			}, nil
		}
		metricskey.StatsToolCallsFailed.IncrCounter(1, c.cfg.Name, name)
		return nil, errors.WithMessagef(err, "tools/call %q", name)
	}
	if rr.status/100 != 2 {
		metricskey.StatsToolCallsFailed.IncrCounter(1, c.cfg.Name, name)
		return nil, errors.Newf("server %q: tools/call %q status %d", c.cfg.Name, name, rr.status)
	}
	if rr.res.Error != nil {
		metricskey.StatsToolCallsFailed.IncrCounter(1, c.cfg.Name, name)
		return nil, errors.WithMessagef(rr.res.Error, "server %q: tools/call %q", c.cfg.Name, name)
	}

	metricskey.StatsToolCallsSucceeded.IncrCounter(1, c.cfg.Name, name)
	return decodeCallResult(rr.res.Result), nil
}

// decodeCallResult unwraps a single text content block, parsing it as
// JSON when it looks like JSON, and falls back to the raw payload.
// A response without a result member decodes to nil.
func decodeCallResult(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}

	var res callResult
	if err := json.Unmarshal(raw, &res); err == nil && len(res.Content) == 1 && res.Content[0].Type == "text" {
		text := res.Content[0].Text
		if gjson.Valid(text) {
			var parsed any
			if err := json.Unmarshal([]byte(text), &parsed); err == nil {
				return parsed
			}
		}
		return text
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err == nil {
		return generic
	}
	return string(raw)
}

type rpcResult struct {
	res    *Response
	status int
	header http.Header
	body   []byte
}

func (c *Client) post(ctx context.Context, rpcReq *Request, withAuth bool) (*rpcResult, error) {
	body, err := json.Marshal(rpcReq)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/event-stream")
	if c.sessionID != "" {
		httpReq.Header.Set(sessionHeader, c.sessionID)
	}
	if withAuth {
		if tok := c.token(); tok != "" {
			httpReq.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.WithMessagef(err, "request to %q failed", c.cfg.Name)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	return &rpcResult{
		res:    DecodeResponse(raw),
		status: resp.StatusCode,
		header: resp.Header,
		body:   raw,
	}, nil
}
