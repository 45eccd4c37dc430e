package mcp

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/zx06/ccprofile/internal/config"
	"github.com/zx06/ccprofile/internal/errors"
	"github.com/zx06/ccprofile/internal/log"
	"github.com/zx06/ccprofile/internal/output"
	"github.com/zx06/ccprofile/internal/secret"
)

const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable_http"

	// DefaultHTTPAddr listens on loopback only.
	DefaultHTTPAddr = "127.0.0.1:8787"
)

const (
	envTransport      = "CCPROFILE_MCP_TRANSPORT"
	envHTTPAddr       = "CCPROFILE_MCP_HTTP_ADDR"
	envHTTPAuthToken  = "CCPROFILE_MCP_HTTP_AUTH_TOKEN"
	envAllowPlaintext = "CCPROFILE_MCP_HTTP_ALLOW_PLAINTEXT_TOKEN"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
	authRealm    = `Bearer realm="ccprofile"`

	shutdownTimeout = 5 * time.Second
)

// ServeOptions is the resolved transport configuration for `ccprofile mcp server`.
type ServeOptions struct {
	Transport string
	HTTPAddr  string
	AuthToken string
}

// Overrides carries command-line values; nil means the flag was not given.
type Overrides struct {
	Transport      *string
	HTTPAddr       *string
	AuthToken      *string
	AllowPlaintext *bool
}

// ResolveServeOptions merges flags, environment and config file (in that order).
// The config auth token may be a keyring: reference resolved through kr.
func ResolveServeOptions(o Overrides, getenv func(string) string, cfg config.MCPConfig, kr secret.KeyringAPI) (ServeOptions, *errors.XError) {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}

	transport := firstNonEmpty(deref(o.Transport), getenv(envTransport), cfg.Transport)
	if transport == "" {
		transport = TransportStdio
	}
	if transport != TransportStdio && transport != TransportStreamableHTTP {
		return ServeOptions{}, errors.New(errors.CodeCfgInvalid, "invalid mcp transport", map[string]any{"transport": transport})
	}

	addr := firstNonEmpty(deref(o.HTTPAddr), getenv(envHTTPAddr), cfg.HTTP.Addr)
	if addr == "" {
		addr = DefaultHTTPAddr
	}

	allowPlaintext := cfg.HTTP.AllowPlaintextToken
	if v, err := strconv.ParseBool(getenv(envAllowPlaintext)); err == nil {
		allowPlaintext = v
	}
	if o.AllowPlaintext != nil {
		allowPlaintext = *o.AllowPlaintext
	}

	token := firstNonEmpty(deref(o.AuthToken), getenv(envHTTPAuthToken))
	if token == "" && cfg.HTTP.AuthToken != "" {
		v, xe := secret.Resolve(cfg.HTTP.AuthToken, secret.Options{AllowPlaintext: allowPlaintext, Keyring: kr})
		if xe != nil {
			return ServeOptions{}, xe
		}
		token = v
	}

	if transport == TransportStreamableHTTP && token == "" {
		return ServeOptions{}, errors.New(errors.CodeCfgInvalid, "streamable http transport requires auth token", nil)
	}
	return ServeOptions{Transport: transport, HTTPAddr: addr, AuthToken: token}, nil
}

// NewStreamableHTTPHandler wraps server in a streamable HTTP handler guarded by a bearer token.
func NewStreamableHTTPHandler(server *mcp.Server, authToken string) (http.Handler, *errors.XError) {
	if server == nil {
		return nil, errors.New(errors.CodeInternal, "mcp server is nil", nil)
	}
	if authToken == "" {
		return nil, errors.New(errors.CodeCfgInvalid, "mcp streamable http auth token is required", nil)
	}
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
	return requireAuth(handler, authToken), nil
}

func requireAuth(next http.Handler, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		auth := strings.TrimSpace(req.Header.Get(authHeader))
		switch {
		case auth == "":
			writeUnauthorized(w, "authorization header is required")
			return
		case !strings.HasPrefix(auth, bearerPrefix):
			writeUnauthorized(w, "authorization scheme must be Bearer")
			return
		}
		received := strings.TrimPrefix(auth, bearerPrefix)
		if subtle.ConstantTimeCompare([]byte(received), []byte(token)) != 1 {
			writeUnauthorized(w, "invalid bearer token")
			return
		}
		next.ServeHTTP(w, req)
	})
}

// writeUnauthorized answers 401 with the same failure envelope the CLI prints.
func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", authRealm)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(output.Failure(errors.New(errors.CodeMCPUnauthorized, msg, nil)))
}

// Serve runs server on the chosen transport until ctx is cancelled or the transport fails.
func Serve(ctx context.Context, server *mcp.Server, opts ServeOptions, logger *slog.Logger) *errors.XError {
	logger = log.OrDiscard(logger)
	switch opts.Transport {
	case TransportStdio, "":
		logger.Debug("mcp server listening", "transport", TransportStdio)
		if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			return errors.Wrap(errors.CodeInternal, "mcp stdio server failed", nil, err)
		}
		return nil
	case TransportStreamableHTTP:
		handler, xe := NewStreamableHTTPHandler(server, opts.AuthToken)
		if xe != nil {
			return xe
		}
		return serveHTTP(ctx, &http.Server{
			Addr:              opts.HTTPAddr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}, logger)
	default:
		return errors.New(errors.CodeCfgInvalid, "unsupported mcp transport", map[string]any{"transport": opts.Transport})
	}
}

func serveHTTP(ctx context.Context, srv *http.Server, logger *slog.Logger) *errors.XError {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("mcp server listening", "transport", TransportStreamableHTTP, "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(errors.CodeInternal, "mcp http server failed", map[string]any{"addr": srv.Addr}, err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(errors.CodeInternal, "mcp http server shutdown failed", nil, err)
		}
		logger.Debug("mcp server stopped", "addr", srv.Addr)
		return nil
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
