package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/formgate/formgate/internal/slug"
)

// registerTools registers all formgate MCP tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	// ----- Form tools -----

	srv.AddTool(
		mcp.NewTool("list_marketing_forms",
			mcp.WithDescription(
				"List every live marketing form. Returns name, slug and standalone HTML "+
					"for each form. Use the slug with get_marketing_form.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithBoolean("include_html",
				mcp.Description("Include each form's HTML (default false, to keep responses small)"),
			),
		),
		s.handleListForms,
	)

	srv.AddTool(
		mcp.NewTool("get_marketing_form",
			mcp.WithDescription(
				"Get one live marketing form by its GUID or by its slug.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("id_or_slug",
				mcp.Required(),
				mcp.Description("Form GUID (e.g. 6f9619ff-8b86-d011-b42d-00c04fc964ff) or slug (e.g. spring-launch)"),
			),
		),
		s.handleGetForm,
	)

	// ----- Slug tools -----

	srv.AddTool(
		mcp.NewTool("generate_slug",
			mcp.WithDescription(
				"Convert text into a URL-safe slug the same way form slugs are built. "+
					"Optionally make it unique against a list of existing slugs.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("text",
				mcp.Required(),
				mcp.Description("Text to convert"),
			),
			mcp.WithNumber("max_length",
				mcp.Description("Maximum slug length (default 100, max 1000)"),
			),
			mcp.WithArray("existing",
				mcp.Description("Slugs already in use; a numeric suffix is added on collision"),
				mcp.WithStringItems(),
			),
		),
		s.handleGenerateSlug,
	)

	srv.AddTool(
		mcp.NewTool("deslug",
			mcp.WithDescription(
				"Turn a slug back into display text. Exact when the slug was produced by "+
					"this server, otherwise a title-cased guess.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("slug",
				mcp.Required(),
				mcp.Description("Slug to reverse"),
			),
		),
		s.handleDeslug,
	)
}

// ---------------------------------------------------------------------------
// Tool handlers
// ---------------------------------------------------------------------------

func (s *MCPServer) handleListForms(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	forms, err := s.forms.List(ctx)
	if err != nil {
		s.logger.Error("mcp list forms failed", "error", err)
		return toolError("failed to list marketing forms")
	}

	if optionalBool(request, "include_html") {
		return successJSON(forms)
	}

	type summary struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	out := make([]summary, len(forms))
	for i, f := range forms {
		out[i] = summary{Name: f.Name, Slug: f.Slug}
	}
	return successJSON(out)
}

func (s *MCPServer) handleGetForm(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	idOrSlug, err := requireString(request, "id_or_slug")
	if err != nil {
		return toolError("%v", err)
	}

	form, err := s.forms.Lookup(ctx, idOrSlug)
	if err != nil {
		return lookupError(s.logger, idOrSlug, err)
	}
	return successJSON(form)
}

func (s *MCPServer) handleGenerateSlug(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	text, err := requireString(request, "text")
	if err != nil {
		return toolError("%v", err)
	}
	maxLength := clamp(optionalInt(request, "max_length", s.slugMax), 1, 1000)

	result := s.codec.GenerateN(ctx, text, maxLength)
	if existing := optionalStringSlice(request, "existing"); len(existing) > 0 {
		if result, err = slug.EnsureUnique(result, existing, maxLength); err != nil {
			return toolError("%v", err)
		}
	}

	return successJSON(map[string]string{"slug": result})
}

func (s *MCPServer) handleDeslug(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	value, err := requireString(request, "slug")
	if err != nil {
		return toolError("%v", err)
	}
	return successJSON(map[string]string{"text": s.codec.DeSlug(ctx, value)})
}
