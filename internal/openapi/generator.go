// Package openapi builds the OpenAPI 3.1 document describing formgate's HTTP
// API.
package openapi

import (
	"encoding/json"

	"github.com/getkin/kin-openapi/openapi3"
)

// Options controls the generated document.
type Options struct {
	Version string
	BaseURL string
}

// Generate returns the OpenAPI document for the forms API.
func Generate(opts Options) *openapi3.T {
	version := opts.Version
	if version == "" {
		version = "dev"
	}

	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "formgate API",
			Description: "Read-only access to live marketing forms and bearer token issuance.",
			Version:     version,
		},
	}
	if opts.BaseURL != "" {
		doc.Servers = openapi3.Servers{{URL: opts.BaseURL}}
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
			Description:  "Token obtained from POST /token.",
		},
	}

	doc.Components.Schemas["ErrorResponse"] = errorResponseSchema()
	doc.Components.Schemas["MarketingForm"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:     &openapi3.Types{"object"},
			Required: []string{"name", "slug", "htmlContent"},
			Properties: openapi3.Schemas{
				"name":        stringSchema("Display name of the form."),
				"slug":        stringSchema("URL-safe identifier derived from the name."),
				"htmlContent": stringSchema("Standalone HTML of the form."),
			},
		},
	}
	doc.Components.Schemas["TokenRequest"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:     &openapi3.Types{"object"},
			Required: []string{"apiKey"},
			Properties: openapi3.Schemas{
				"apiKey": stringSchema("An allow-listed or managed API key."),
			},
		},
	}
	doc.Components.Schemas["TokenResponse"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:     &openapi3.Types{"object"},
			Required: []string{"token"},
			Properties: openapi3.Schemas{
				"token": stringSchema("HS256 signed bearer token."),
			},
		},
	}
	doc.Components.Schemas["HealthResponse"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"status": stringSchema("ok or degraded."),
				"upstream": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type:                 &openapi3.Types{"object"},
						AdditionalProperties: openapi3.AdditionalProperties{Schema: stringSchema("")},
					},
				},
			},
		},
	}

	doc.Paths = openapi3.NewPaths()
	addFormPaths(doc)
	addTokenPath(doc)
	addHealthPaths(doc)

	return doc
}

// MarshalJSON renders doc as indented JSON.
func MarshalJSON(doc *openapi3.T) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// ─── Paths ──────────────────────────────────────────────────────────────────

func addFormPaths(doc *openapi3.T) {
	bearer := &openapi3.SecurityRequirements{{"bearerAuth": {}}}
	formRef := openapi3.NewSchemaRef("#/components/schemas/MarketingForm", nil)

	list := &openapi3.Operation{
		Tags:        []string{"forms"},
		Summary:     "List live marketing forms",
		OperationID: "listMarketingForms",
		Security:    bearer,
		Responses: newResponses("200", "Live forms that have HTML", &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:  &openapi3.Types{"array"},
				Items: formRef,
			},
		}, "401", "403", "500"),
	}
	doc.Paths.Set("/marketingforms", &openapi3.PathItem{Get: list})

	get := &openapi3.Operation{
		Tags:        []string{"forms"},
		Summary:     "Get a live marketing form by GUID or slug",
		OperationID: "getMarketingForm",
		Security:    bearer,
		Parameters: openapi3.Parameters{
			&openapi3.ParameterRef{Value: openapi3.NewPathParameter("idOrSlug").
				WithDescription("Form GUID, or a slug as returned by the list endpoint.").
				WithSchema(openapi3.NewStringSchema())},
		},
		Responses: newResponses("200", "The form", formRef, "401", "403", "500"),
	}
	notFound := "No live form matches"
	get.Responses.Set("404", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &notFound,
			Content: openapi3.Content{
				"text/plain": &openapi3.MediaType{Schema: openapi3.NewStringSchema().NewRef()},
			},
		},
	})
	doc.Paths.Set("/marketingforms/{idOrSlug}", &openapi3.PathItem{Get: get})
}

func addTokenPath(doc *openapi3.T) {
	op := &openapi3.Operation{
		Tags:        []string{"auth"},
		Summary:     "Exchange an API key for a bearer token",
		OperationID: "issueToken",
		Security:    &openapi3.SecurityRequirements{},
		RequestBody: &openapi3.RequestBodyRef{
			Value: &openapi3.RequestBody{
				Required: true,
				Content: openapi3.NewContentWithJSONSchemaRef(
					openapi3.NewSchemaRef("#/components/schemas/TokenRequest", nil)),
			},
		},
		Responses: newResponses("200", "Signed token",
			openapi3.NewSchemaRef("#/components/schemas/TokenResponse", nil),
			"400", "401", "429"),
	}
	doc.Paths.Set("/token", &openapi3.PathItem{Post: op})
}

func addHealthPaths(doc *openapi3.T) {
	healthRef := openapi3.NewSchemaRef("#/components/schemas/HealthResponse", nil)

	doc.Paths.Set("/healthz", &openapi3.PathItem{Get: &openapi3.Operation{
		Tags:        []string{"system"},
		Summary:     "Liveness probe",
		OperationID: "healthz",
		Responses:   newResponses("200", "Process is running", healthRef),
	}})

	ready := &openapi3.Operation{
		Tags:        []string{"system"},
		Summary:     "Readiness probe",
		Description: "Pings the upstream CRM connector.",
		OperationID: "readyz",
		Responses:   newResponses("200", "Upstream reachable", healthRef),
	}
	degraded := "Upstream unreachable"
	ready.Responses.Set("503", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &degraded,
			Content:     openapi3.NewContentWithJSONSchemaRef(healthRef),
		},
	})
	doc.Paths.Set("/readyz", &openapi3.PathItem{Get: ready})
}

// ─── Schema Helpers ─────────────────────────────────────────────────────────

var errorDescriptions = map[string]string{
	"400": "Bad request",
	"401": "Unauthorized",
	"403": "Forbidden",
	"429": "Too many requests",
	"500": "Internal server error",
}

// newResponses builds a Responses map with a success response and the listed
// error responses, all using the shared error envelope.
func newResponses(statusCode, description string, schema *openapi3.SchemaRef, errorCodes ...string) *openapi3.Responses {
	responses := openapi3.NewResponses()

	successDesc := description
	responses.Set(statusCode, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &successDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	})

	errorRef := openapi3.NewSchemaRef("#/components/schemas/ErrorResponse", nil)
	for _, code := range errorCodes {
		desc := errorDescriptions[code]
		responses.Set(code, &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &desc,
				Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
			},
		})
	}
	return responses
}

func errorResponseSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"object"},
						Properties: openapi3.Schemas{
							"code":    &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}},
							"message": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
							"context": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}},
						},
					},
				},
			},
		},
	}
}

func stringSchema(description string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:        &openapi3.Types{"string"},
			Description: description,
		},
	}
}
