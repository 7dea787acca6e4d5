package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/sync/errgroup"

	"github.com/effective-security/toolgate/config"
	"github.com/effective-security/toolgate/pkg/metricskey"
	"github.com/effective-security/toolgate/store"
)

// ServerStatus is the per-server connection summary.
type ServerStatus struct {
	Connected bool `json:"connected"`
	ToolCount int  `json:"toolCount"`
}

// Registry owns one Client per configured server and aggregates their
// discovered tools. The aggregated map is built once during
// Initialize, in configuration list order, before any concurrent
// reads; a cross-server name collision is last-write-wins with a
// recorded warning, never an error.
type Registry struct {
	cfg      *config.Config
	clients  *orderedmap.OrderedMap[string, *Client]
	tools    *orderedmap.OrderedMap[string, *ServerTool]
	warnings []string
}

// NewRegistry constructs one client per configured server.
func NewRegistry(cfg *config.Config) *Registry {
	r := &Registry{
		cfg:     cfg,
		clients: orderedmap.New[string, *Client](),
		tools:   orderedmap.New[string, *ServerTool](),
	}
	for _, srv := range cfg.Servers {
		r.clients.Set(srv.Name, NewClient(srv, cfg.CallTimeout()))
	}
	return r
}

// Client returns the client for a configured server.
func (r *Registry) Client(name string) (*Client, bool) {
	return r.clients.Get(name)
}

// Initialize fans out one client initialization per server and waits
// for every outcome. A failure in one client is captured and logged,
// never propagated to siblings or to the batch: the registry degrades
// to fewer tools instead of refusing to start.
func (r *Registry) Initialize(ctx context.Context) {
	started := time.Now()
	defer metricskey.PerfRegistryInit.MeasureSince(started)

	var g errgroup.Group
	for pair := r.clients.Oldest(); pair != nil; pair = pair.Next() {
		c := pair.Value
		g.Go(func() error {
			err := c.Initialize(ctx)
			switch {
			case err == nil:
			case errors.Is(err, ErrServerDisabled):
				logger.ContextKV(ctx, xlog.DEBUG, "server", c.Name(), "status", "disabled")
			default:
				logger.ContextKV(ctx, xlog.ERROR, "server", c.Name(), "err", err.Error())
			}
			return nil
		})
	}
	_ = g.Wait()

	connected := 0
	for pair := r.clients.Oldest(); pair != nil; pair = pair.Next() {
		c := pair.Value
		if !c.Connected() {
			continue
		}
		connected++
		for _, d := range c.Tools() {
			if prev, exists := r.tools.Get(d.Name); exists {
				w := fmt.Sprintf("tool %q from server %q overwrites the one from server %q", d.Name, c.Name(), prev.Server())
				r.warnings = append(r.warnings, w)
				logger.ContextKV(ctx, xlog.WARNING,
					"reason", "tool_collision",
					"tool", d.Name,
					"server", c.Name(),
					"shadowed", prev.Server(),
				)
			}
			r.tools.Set(d.Name, &ServerTool{desc: d, client: c})
		}
	}

	logger.ContextKV(ctx, xlog.INFO,
		"servers", r.clients.Len(),
		"connected", connected,
		"tools", r.tools.Len(),
	)
}

// Tools returns a copy of the flattened tool map in aggregation order.
func (r *Registry) Tools() *orderedmap.OrderedMap[string, *ServerTool] {
	res := orderedmap.New[string, *ServerTool]()
	for pair := r.tools.Oldest(); pair != nil; pair = pair.Next() {
		res.Set(pair.Key, pair.Value)
	}
	return res
}

// Tool looks up a tool in the flattened map.
func (r *Registry) Tool(name string) (*ServerTool, bool) {
	return r.tools.Get(name)
}

// ServerTools returns the tools of one server.
func (r *Registry) ServerTools(server string) []*ServerTool {
	c, ok := r.clients.Get(server)
	if !ok || !c.Connected() {
		return nil
	}
	res := make([]*ServerTool, 0, len(c.Tools()))
	for _, d := range c.Tools() {
		res = append(res, &ServerTool{desc: d, client: c})
	}
	return res
}

// ServerTool looks up a tool on a specific server.
func (r *Registry) ServerTool(server, name string) (*ServerTool, bool) {
	c, ok := r.clients.Get(server)
	if !ok || !c.Connected() {
		return nil, false
	}
	d, ok := c.Tool(name)
	if !ok {
		return nil, false
	}
	return &ServerTool{desc: d, client: c}, true
}

// ToolsByServer returns the tools grouped by connected server.
func (r *Registry) ToolsByServer() map[string]map[string]*ServerTool {
	res := make(map[string]map[string]*ServerTool)
	for pair := r.clients.Oldest(); pair != nil; pair = pair.Next() {
		c := pair.Value
		if !c.Connected() {
			continue
		}
		m := make(map[string]*ServerTool, len(c.Tools()))
		for _, d := range c.Tools() {
			m[d.Name] = &ServerTool{desc: d, client: c}
		}
		res[pair.Key] = m
	}
	return res
}

// ServerNames returns the connected server names in configuration order.
func (r *Registry) ServerNames() []string {
	var res []string
	for pair := r.clients.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Connected() {
			res = append(res, pair.Key)
		}
	}
	return res
}

// Status reports every configured server, including failed and
// disabled ones, in configuration order.
func (r *Registry) Status() *orderedmap.OrderedMap[string, ServerStatus] {
	res := orderedmap.New[string, ServerStatus]()
	for pair := r.clients.Oldest(); pair != nil; pair = pair.Next() {
		c := pair.Value
		st := ServerStatus{}
		if c.Connected() {
			st.Connected = true
			st.ToolCount = len(c.Tools())
		}
		res.Set(pair.Key, st)
	}
	return res
}

// Warnings returns the collision warnings recorded during aggregation.
func (r *Registry) Warnings() []string {
	return r.warnings
}

// SetAccessTokenForAll updates the token of every client whose server
// config declares requires_auth; others are left untouched.
func (r *Registry) SetAccessTokenForAll(token string) {
	for pair := r.clients.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.RequiresAuth() {
			pair.Value.SetAccessToken(token)
		}
	}
}

// SetAccessTokenForServer updates a single named client
// unconditionally, if present.
func (r *Registry) SetAccessTokenForServer(server, token string) bool {
	c, ok := r.clients.Get(server)
	if !ok {
		return false
	}
	c.SetAccessToken(token)
	return true
}

// LoadTokens applies persisted tokens to the auth-requiring clients.
// Missing tokens are not an error.
func (r *Registry) LoadTokens(ctx context.Context, ts store.TokenStore) error {
	for pair := r.clients.Oldest(); pair != nil; pair = pair.Next() {
		c := pair.Value
		if !c.RequiresAuth() {
			continue
		}
		token, err := ts.Token(ctx, c.Name())
		if err != nil {
			return errors.WithMessagef(err, "failed to load token for server %q", c.Name())
		}
		if token != "" {
			c.SetAccessToken(token)
		}
	}
	return nil
}
