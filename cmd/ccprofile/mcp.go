package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/zx06/ccprofile/internal/errors"
	"github.com/zx06/ccprofile/internal/log"
	mcp_pkg "github.com/zx06/ccprofile/internal/mcp"
)

// NewMCPCommand creates the MCP command group
func NewMCPCommand() *cobra.Command {
	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP (Model Context Protocol) server commands",
	}

	mcpCmd.AddCommand(newMCPServerCommand())

	return mcpCmd
}

type mcpServerFlags struct {
	transport      string
	httpAddr       string
	httpAuthToken  string
	allowPlaintext bool
}

// newMCPServerCommand creates the MCP server command
func newMCPServerCommand() *cobra.Command {
	flags := &mcpServerFlags{}
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Serve read-only profile tools for AI assistants",
		RunE: func(cmd *cobra.Command, args []string) error {
			var o mcp_pkg.Overrides
			if cmd.Flags().Changed("transport") {
				o.Transport = &flags.transport
			}
			if cmd.Flags().Changed("http-addr") {
				o.HTTPAddr = &flags.httpAddr
			}
			if cmd.Flags().Changed("http-auth-token") {
				o.AuthToken = &flags.httpAuthToken
			}
			if cmd.Flags().Changed("http-allow-plaintext-token") {
				o.AllowPlaintext = &flags.allowPlaintext
			}
			return runMCPServer(cmd.Context(), o)
		},
	}
	cmd.Flags().StringVar(&flags.transport, "transport", mcp_pkg.TransportStdio, "MCP transport: stdio|streamable_http")
	cmd.Flags().StringVar(&flags.httpAddr, "http-addr", mcp_pkg.DefaultHTTPAddr, "Streamable HTTP listen address")
	cmd.Flags().StringVar(&flags.httpAuthToken, "http-auth-token", "", "Streamable HTTP auth token (required for streamable_http)")
	cmd.Flags().BoolVar(&flags.allowPlaintext, "http-allow-plaintext-token", false, "Allow a plaintext auth token in the config file")
	return cmd
}

// runMCPServer runs the MCP server
func runMCPServer(ctx context.Context, o mcp_pkg.Overrides) error {
	if ctx == nil {
		ctx = context.Background()
	}

	opts, xe := mcp_pkg.ResolveServeOptions(o, os.Getenv, GlobalConfig.Resolved.File.MCP, nil)
	if xe != nil {
		return xe
	}

	m, xe := newManager(nil)
	if xe != nil {
		return xe
	}

	server, err := mcp_pkg.CreateServer(version, m)
	if err != nil {
		return errors.AsOrWrap(err)
	}

	if xe := mcp_pkg.Serve(ctx, server, opts, log.New(os.Stderr, GlobalConfig.Verbose)); xe != nil {
		return xe
	}
	return nil
}
