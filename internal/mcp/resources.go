package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	formsURI          = "formgate://forms"
	formURIPrefix     = "formgate://forms/"
	formHTMLURISuffix = "/html"
)

// registerResources adds MCP resource definitions to the server. Resources
// provide read-only data that LLM clients can load into their context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {

	// -------------------------------------------------------------------
	// formgate://forms: names and slugs of every live form
	// -------------------------------------------------------------------
	srv.AddResource(
		mcp.NewResource(
			formsURI,
			"Live Marketing Forms",
			mcp.WithResourceDescription("Names and slugs of every live marketing form."),
			mcp.WithMIMEType("application/json"),
		),
		s.handleFormsResource,
	)

	// -------------------------------------------------------------------
	// formgate://forms/{idOrSlug}/html: standalone HTML of one form
	// -------------------------------------------------------------------
	srv.AddResourceTemplate(
		mcp.NewResourceTemplate(
			formURIPrefix+"{idOrSlug}"+formHTMLURISuffix,
			"Marketing Form HTML",
			mcp.WithTemplateDescription("Standalone HTML of a live marketing form, by GUID or slug."),
			mcp.WithTemplateMIMEType("text/html"),
		),
		s.handleFormHTMLResource,
	)
}

func (s *MCPServer) handleFormsResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	forms, err := s.forms.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}

	type item struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	items := make([]item, len(forms))
	for i, f := range forms {
		items[i] = item{Name: f.Name, Slug: f.Slug}
	}

	b, err := marshalJSON(items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal forms: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formsURI,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

func (s *MCPServer) handleFormHTMLResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	uri := request.Params.URI
	idOrSlug := strings.TrimSuffix(strings.TrimPrefix(uri, formURIPrefix), formHTMLURISuffix)
	if idOrSlug == "" || idOrSlug == uri || strings.Contains(idOrSlug, "/") {
		return nil, fmt.Errorf("invalid form URI %q: expected %s{idOrSlug}%s", uri, formURIPrefix, formHTMLURISuffix)
	}

	form, err := s.forms.Lookup(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/html",
			Text:     form.HTMLContent,
		},
	}, nil
}
