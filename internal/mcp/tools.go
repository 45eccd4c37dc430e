package mcp

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/zx06/ccprofile/internal/app"
	"github.com/zx06/ccprofile/internal/errors"
	"github.com/zx06/ccprofile/internal/output"
)

// ProfileShowInput represents the input for the profile_show tool
type ProfileShowInput struct {
	Name string `json:"name" jsonschema:"Profile name"`
}

// ProfileListInput represents the input for the profile_list tool
type ProfileListInput struct {
	ActiveOnly bool `json:"active_only,omitempty" jsonschema:"Only return the active profile"`
}

// ToolHandler manages MCP tools. All tools are read-only and never return unmasked tokens.
type ToolHandler struct {
	manager *app.Manager
}

// NewToolHandler creates a new tool handler
func NewToolHandler(m *app.Manager) *ToolHandler {
	return &ToolHandler{manager: m}
}

// getProfileNames returns the profile names in index order
func (h *ToolHandler) getProfileNames() []string {
	names, xe := h.manager.Registry().Names()
	if xe != nil {
		return nil
	}
	return names
}

// RegisterTools registers all tools with the MCP server
func (h *ToolHandler) RegisterTools(server *mcp.Server) {
	profileNames := h.getProfileNames()
	profileEnums := make([]any, len(profileNames))
	for i, name := range profileNames {
		profileEnums[i] = name
	}

	mcp.AddTool[ProfileListInput, any](server, &mcp.Tool{
		Name:        "profile_list",
		Description: "List saved credential profiles (tokens masked) and mark the active one",
	}, h.ProfileList)

	mcp.AddTool[struct{}, any](server, &mcp.Tool{
		Name:        "profile_current",
		Description: "Show the active provider and the matching profile",
	}, h.ProfileCurrent)

	// Profile show tool with profile enum
	nameSchema := &jsonschema.Schema{
		Type:        "string",
		Description: "Profile name",
	}
	if len(profileEnums) > 0 {
		nameSchema.Enum = profileEnums
	}
	server.AddTool(&mcp.Tool{
		Name:        "profile_show",
		Description: "Show profile details (token masked)",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Required:   []string{"name"},
			Properties: map[string]*jsonschema.Schema{"name": nameSchema},
		},
	}, h.profileShowHandler)
}

// profileShowHandler is the raw handler for profile_show tool
func (h *ToolHandler) profileShowHandler(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input ProfileShowInput
	if err := json.Unmarshal(req.Params.Arguments, &input); err != nil {
		return h.errorResult(errors.Wrap(errors.CodeCfgInvalid, "invalid input", nil, err)), nil
	}
	result, _, err := h.ProfileShow(ctx, req, input)
	return result, err
}

// ProfileList lists all profiles
func (h *ToolHandler) ProfileList(ctx context.Context, req *mcp.CallToolRequest, input ProfileListInput) (*mcp.CallToolResult, any, error) {
	list, xe := h.manager.List(ctx, app.ListOptions{ActiveOnly: input.ActiveOnly})
	if xe != nil {
		return h.errorResult(xe), nil, nil
	}
	return h.successResult(list), nil, nil
}

// ProfileShow shows profile details
func (h *ToolHandler) ProfileShow(ctx context.Context, req *mcp.CallToolRequest, input ProfileShowInput) (*mcp.CallToolResult, any, error) {
	if input.Name == "" {
		return h.errorResult(errors.New(errors.CodeCfgInvalid, "name is required", nil)), nil, nil
	}
	v, xe := h.manager.Show(ctx, input.Name, false)
	if xe != nil {
		return h.errorResult(xe), nil, nil
	}
	return h.successResult(v), nil, nil
}

// ProfileCurrent reports the active provider and profile
func (h *ToolHandler) ProfileCurrent(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	info, xe := h.manager.Current(ctx)
	if xe != nil {
		return h.errorResult(xe), nil, nil
	}
	return h.successResult(info), nil, nil
}

func (h *ToolHandler) successResult(data any) *mcp.CallToolResult {
	jsonData, err := json.MarshalIndent(output.Success(data), "", "  ")
	if err != nil {
		return h.errorResult(errors.Wrap(errors.CodeInternal, "failed to marshal result", nil, err))
	}
	// Return result directly in content per RFC
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonData)},
		},
	}
}

func (h *ToolHandler) errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: h.formatError(err)},
		},
	}
}

// formatError formats an error as a failure envelope
func (h *ToolHandler) formatError(err error) string {
	var xe *errors.XError
	if err != nil {
		xe = errors.AsOrWrap(err)
	}
	jsonData, _ := json.MarshalIndent(output.Failure(xe), "", "  ")
	return string(jsonData)
}

// CreateServer creates a new MCP server
func CreateServer(version string, m *app.Manager) (*mcp.Server, error) {
	if m == nil {
		return nil, errors.New(errors.CodeInternal, "profile manager is nil", nil)
	}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "ccprofile",
		Version: version,
	}, nil)

	handler := NewToolHandler(m)
	handler.RegisterTools(server)

	return server, nil
}
