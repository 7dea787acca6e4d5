package tools

import (
	"fmt"
	"sync"

	"github.com/effective-security/xlog"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/effective-security/toolgate/mcp"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolgate", "tools")

// Registry is the top-level tool facade handed to the agent-routing
// layer. It merges the remote registry's flattened tool map with the
// caller-supplied local tools; a local tool always shadows a remote
// tool of the same name.
type Registry struct {
	remote *mcp.Registry
	local  *orderedmap.OrderedMap[string, *LocalTool]

	mu       sync.Mutex
	warned   map[string]bool
	warnings []string
}

// NewRegistry wraps one remote registry and the local tool set.
// Duplicate local ids overwrite with a warning. This is a config-time
// concern: the local set is fixed at construction.
func NewRegistry(remote *mcp.Registry, locals ...*LocalTool) *Registry {
	r := &Registry{
		remote: remote,
		local:  orderedmap.New[string, *LocalTool](),
		warned: make(map[string]bool),
	}
	for _, lt := range locals {
		if _, exists := r.local.Get(lt.Name()); exists {
			r.record(fmt.Sprintf("duplicate local tool %q overwrites the earlier one", lt.Name()))
			logger.KV(xlog.WARNING, "reason", "duplicate_local_tool", "tool", lt.Name())
		}
		r.local.Set(lt.Name(), lt)
	}
	return r
}

// Tools returns the unified tool map: the remote flattened map
// overlaid by every local tool. Shadowed remote tools are reported
// once with a warning.
func (r *Registry) Tools() *orderedmap.OrderedMap[string, ITool] {
	res := orderedmap.New[string, ITool]()
	for pair := r.remote.Tools().Oldest(); pair != nil; pair = pair.Next() {
		res.Set(pair.Key, pair.Value)
	}
	for pair := r.local.Oldest(); pair != nil; pair = pair.Next() {
		if _, exists := res.Get(pair.Key); exists {
			r.recordOnce("shadow:"+pair.Key,
				fmt.Sprintf("local tool %q shadows the remote tool of the same name", pair.Key))
			logger.KV(xlog.WARNING, "reason", "local_tool_shadows_remote", "tool", pair.Key)
		}
		res.Set(pair.Key, pair.Value)
	}
	return res
}

// Tool returns a tool by name, local tools first.
func (r *Registry) Tool(name string) (ITool, bool) {
	if lt, ok := r.local.Get(name); ok {
		return lt, true
	}
	if st, ok := r.remote.Tool(name); ok {
		return st, true
	}
	return nil, false
}

// ServerTool returns a tool owned by a specific server; the synthetic
// "local" server resolves local tools directly.
func (r *Registry) ServerTool(server, name string) (ITool, bool) {
	if server == LocalServerName {
		if lt, ok := r.local.Get(name); ok {
			return lt, true
		}
		return nil, false
	}
	if st, ok := r.remote.ServerTool(server, name); ok {
		return st, true
	}
	return nil, false
}

// ServerTools returns the tools of one server, including the
// synthetic "local" server.
func (r *Registry) ServerTools(server string) []ITool {
	if server == LocalServerName {
		res := make([]ITool, 0, r.local.Len())
		for pair := r.local.Oldest(); pair != nil; pair = pair.Next() {
			res = append(res, pair.Value)
		}
		return res
	}
	sts := r.remote.ServerTools(server)
	res := make([]ITool, 0, len(sts))
	for _, st := range sts {
		res = append(res, st)
	}
	return res
}

// ToolsByServer groups tools by owning server; local tools appear
// under "local" when any are registered.
func (r *Registry) ToolsByServer() map[string]map[string]ITool {
	res := make(map[string]map[string]ITool)
	for server, m := range r.remote.ToolsByServer() {
		group := make(map[string]ITool, len(m))
		for name, st := range m {
			group[name] = st
		}
		res[server] = group
	}
	if r.local.Len() > 0 {
		group := make(map[string]ITool, r.local.Len())
		for pair := r.local.Oldest(); pair != nil; pair = pair.Next() {
			group[pair.Key] = pair.Value
		}
		res[LocalServerName] = group
	}
	return res
}

// ServerNames returns the connected remote server names, with "local"
// appended iff at least one local tool is registered.
func (r *Registry) ServerNames() []string {
	names := r.remote.ServerNames()
	if r.local.Len() > 0 {
		names = append(names, LocalServerName)
	}
	return names
}

// Status reports the remote per-server status plus a synthetic
// always-connected "local" entry when local tools exist.
func (r *Registry) Status() *orderedmap.OrderedMap[string, mcp.ServerStatus] {
	res := r.remote.Status()
	if r.local.Len() > 0 {
		res.Set(LocalServerName, mcp.ServerStatus{
			Connected: true,
			ToolCount: r.local.Len(),
		})
	}
	return res
}

// SetAccessTokenForAll updates the token of every auth-requiring
// remote client.
func (r *Registry) SetAccessTokenForAll(token string) {
	r.remote.SetAccessTokenForAll(token)
}

// SetAccessTokenForServer updates the token of one remote client.
func (r *Registry) SetAccessTokenForServer(server, token string) bool {
	return r.remote.SetAccessTokenForServer(server, token)
}

// Warnings returns the shadow and duplicate warnings recorded so far,
// plus the remote registry's collision warnings.
func (r *Registry) Warnings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := append([]string{}, r.remote.Warnings()...)
	return append(res, r.warnings...)
}

func (r *Registry) record(w string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, w)
}

func (r *Registry) recordOnce(key, w string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.warned[key] {
		return
	}
	r.warned[key] = true
	r.warnings = append(r.warnings, w)
}
