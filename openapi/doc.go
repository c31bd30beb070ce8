// Package openapi projects a route table into an OpenAPI v3.1.0 document
// and serves it alongside an interactive documentation UI.
//
// A Spec carries the document metadata and builds the document from the
// registered routes:
//
//	spec := openapi.NewSpec(openapi.Info{
//		Title:   "tile service",
//		Version: "1.0.0",
//	})
//
//	doc := spec.Build(api)
//
// Route templates are rendered with {name} placeholders, typed path
// parameters become typed schema entries, and token-protected routes
// carry an apiKey security requirement on the access_token query
// parameter.
//
// Handle registers ready-made documentation endpoints on the API itself:
// the document as JSON and YAML plus an HTML page rendering it with
// Swagger UI, RapiDoc or Redoc:
//
//	spec.MustHandle(api, "/docs", nil)
//
// See: https://spec.openapis.org/oas/v3.1.0
package openapi
