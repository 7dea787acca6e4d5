package main

import (
	"context"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/effective-security/toolgate/config"
	"github.com/effective-security/toolgate/mcp"
	"github.com/effective-security/toolgate/store"
	"github.com/effective-security/toolgate/tools"
	"github.com/effective-security/toolgate/utils"
)

func newRegistry(ctx context.Context) (*tools.Registry, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	remote := mcp.NewRegistry(cfg)
	if cfg.Redis != nil {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ts := store.NewRedisStore(client, cfg.Redis.Prefix)
		if err := remote.LoadTokens(ctx, ts); err != nil {
			return nil, err
		}
	}
	remote.Initialize(ctx)

	return tools.NewRegistry(remote), nil
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the connection status of the configured servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := newRegistry(cmd.Context())
			if err != nil {
				return err
			}

			status := reg.Status()
			if output != "table" {
				m := map[string]mcp.ServerStatus{}
				for pair := status.Oldest(); pair != nil; pair = pair.Next() {
					m[pair.Key] = pair.Value
				}
				return render(m)
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Server", "Connected", "Tools"})
			for pair := status.Oldest(); pair != nil; pair = pair.Next() {
				tw.AppendRow(table.Row{pair.Key, pair.Value.Connected, pair.Value.ToolCount})
			}
			tw.Render()
			return nil
		},
	}
}

func toolsCmd() *cobra.Command {
	var server string
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the discovered tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := newRegistry(cmd.Context())
			if err != nil {
				return err
			}

			type row struct {
				Server      string `json:"server" yaml:"server"`
				Name        string `json:"name" yaml:"name"`
				Description string `json:"description" yaml:"description"`
			}
			var rows []row
			for srv, group := range reg.ToolsByServer() {
				if server != "" && server != srv {
					continue
				}
				for name, tool := range group {
					rows = append(rows, row{Server: srv, Name: name, Description: tool.Description()})
				}
			}

			if output != "table" {
				return render(rows)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Server", "Tool", "Description"})
			for _, r := range rows {
				tw.AppendRow(table.Row{r.Server, r.Name, r.Description})
			}
			tw.SortBy([]table.SortBy{{Name: "Server"}, {Name: "Tool"}})
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "only list tools of this server")
	return cmd
}

func callCmd() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "call <server> <tool> [json-input]",
		Short: "Invoke a tool on a server",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := newRegistry(cmd.Context())
			if err != nil {
				return err
			}
			if token != "" {
				reg.SetAccessTokenForServer(args[0], token)
			}

			tool, ok := reg.ServerTool(args[0], args[1])
			if !ok {
				return errors.Newf("tool %q not found on server %q", args[1], args[0])
			}

			input := ""
			if len(args) == 3 {
				input = args[2]
			}
			res, err := tool.Call(cmd.Context(), input)
			if err != nil {
				return err
			}
			if strings.HasPrefix(strings.TrimSpace(res), "{") {
				res = utils.JSONIndent(res)
			}
			_, _ = os.Stdout.WriteString(res + "\n")
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "bearer token for the call")
	return cmd
}

func render(val any) error {
	switch output {
	case "json":
		_, _ = os.Stdout.WriteString(utils.ToJSONIndent(val) + "\n")
	case "yaml":
		_, _ = os.Stdout.WriteString(utils.ToYAML(val))
	default:
		return errors.Newf("unsupported output format: %s", output)
	}
	return nil
}
