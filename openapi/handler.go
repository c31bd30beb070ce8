package openapi

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/proxykit/proxykit/proxy"
)

// DocsUI selects which interactive documentation UI to serve. The UI
// renders the OpenAPI Document as interactive HTML documentation.
type DocsUI int

const (
	DocsSwaggerUI DocsUI = iota
	DocsRapiDoc
	DocsRedoc
)

// HandleConfig configures the endpoints registered by Handle. JSON and
// YAML endpoints serve the serialized OpenAPI Document.
type HandleConfig struct {
	// UI selects the interactive docs UI (default: DocsSwaggerUI).
	UI DocsUI

	// Title overrides the HTML page title (default: spec info.title).
	Title string

	// JSONFilename is the path for the JSON spec endpoint
	// (default: "openapi.json"). Set to "-" to disable.
	//
	// Relative paths are joined with the base path; absolute paths
	// (starting with "/") are used as-is.
	JSONFilename string

	// YAMLFilename is the path for the YAML spec endpoint
	// (default: "openapi.yaml"). Set to "-" to disable.
	// Follows the same absolute/relative rules as JSONFilename.
	YAMLFilename string

	// DisableDocs disables the interactive HTML docs UI endpoint.
	DisableDocs bool
}

// jsonFilename returns the configured JSON spec filename, defaulting to
// "openapi.json".
func (cfg HandleConfig) jsonFilename() string {
	if cfg.JSONFilename == "" {
		return "openapi.json"
	}
	return cfg.JSONFilename
}

// yamlFilename returns the configured YAML spec filename, defaulting to
// "openapi.yaml".
func (cfg HandleConfig) yamlFilename() string {
	if cfg.YAMLFilename == "" {
		return "openapi.yaml"
	}
	return cfg.YAMLFilename
}

// resolvePath returns the full route template for a filename. Absolute
// filenames (starting with "/") are returned as-is; relative filenames
// are joined under basePath.
func resolvePath(basePath, filename string) string {
	if strings.HasPrefix(filename, "/") {
		return filename
	}
	if basePath == "" {
		return "/" + filename
	}
	return basePath + "/" + filename
}

// Handle registers the documentation endpoints on the given API under
// basePath. Depending on config, the following routes are registered:
//
//	<basePath>             - interactive HTML docs (unless DisableDocs)
//	<JSONFilename path>    - OpenAPI spec as JSON  (unless JSONFilename is "-")
//	<YAMLFilename path>    - OpenAPI spec as YAML  (unless YAMLFilename is "-")
//
// The config parameter is optional; pass nil for defaults:
//
//	spec.Handle(api, "/docs", nil)
//
// The document is built once on first request and cached, so routes
// registered after the first documentation request do not appear. The
// registered endpoints exclude themselves from the document.
func (s *Spec) Handle(api *proxy.API, basePath string, cfg *HandleConfig) error {
	if cfg == nil {
		cfg = &HandleConfig{}
	}
	basePath = strings.TrimRight(basePath, "/")

	jsonFile := cfg.jsonFilename()
	yamlFile := cfg.yamlFilename()

	var jsonPath, yamlPath string

	if jsonFile != "-" {
		jsonPath = resolvePath(basePath, jsonFile)
		s.Exclude(jsonPath)
		if _, err := api.Register(jsonPath, s.jsonHandler(api)); err != nil {
			return err
		}
	}

	if yamlFile != "-" {
		yamlPath = resolvePath(basePath, yamlFile)
		s.Exclude(yamlPath)
		if _, err := api.Register(yamlPath, s.yamlHandler(api)); err != nil {
			return err
		}
	}

	if cfg.DisableDocs {
		return nil
	}

	// The docs UI references the JSON or YAML spec path; without either
	// there is nothing for it to render.
	specURL := jsonPath
	if specURL == "" {
		specURL = yamlPath
	}
	if specURL == "" {
		return nil
	}

	docsPath := basePath
	if docsPath == "" {
		docsPath = "/"
	}
	s.Exclude(docsPath)
	_, err := api.Register(docsPath, s.docsHandler(cfg, specURL))
	return err
}

// MustHandle is like Handle but panics on registration error.
func (s *Spec) MustHandle(api *proxy.API, basePath string, cfg *HandleConfig) {
	if err := s.Handle(api, basePath, cfg); err != nil {
		panic(err)
	}
}

// jsonHandler serves the OpenAPI Document as indented JSON.
func (s *Spec) jsonHandler(api *proxy.API) proxy.Handler {
	var (
		once sync.Once
		data []byte
		err  error
	)
	return func(_ *proxy.Request) (proxy.Response, error) {
		once.Do(func() {
			data, err = json.MarshalIndent(s.Build(api), "", "  ")
		})
		if err != nil {
			return proxy.Response{}, fmt.Errorf("openapi: serialize document as JSON: %w", err)
		}
		return proxy.Response{
			Status:      proxy.OK,
			ContentType: "application/json",
			Body:        data,
		}, nil
	}
}

// yamlHandler serves the OpenAPI Document as YAML.
func (s *Spec) yamlHandler(api *proxy.API) proxy.Handler {
	var (
		once sync.Once
		data []byte
		err  error
	)
	return func(_ *proxy.Request) (proxy.Response, error) {
		once.Do(func() {
			data, err = yaml.Marshal(s.Build(api))
		})
		if err != nil {
			return proxy.Response{}, fmt.Errorf("openapi: serialize document as YAML: %w", err)
		}
		return proxy.Response{
			Status:      proxy.OK,
			ContentType: "application/x-yaml",
			Body:        data,
		}, nil
	}
}

// docsHandler serves the interactive HTML documentation UI.
func (s *Spec) docsHandler(cfg *HandleConfig, specURL string) proxy.Handler {
	var (
		once sync.Once
		page string
	)
	return func(_ *proxy.Request) (proxy.Response, error) {
		once.Do(func() {
			title := cfg.Title
			if title == "" {
				title = s.info.Title
			}

			switch cfg.UI {
			case DocsRapiDoc:
				page = rapidocTemplate(title, specURL)
			case DocsRedoc:
				page = redocTemplate(title, specURL)
			default:
				page = swaggerUITemplate(title, specURL)
			}
		})
		return proxy.HTML(proxy.OK, page), nil
	}
}

func swaggerUITemplate(title, specPath string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
<script>
SwaggerUIBundle({url: %q, dom_id: "#swagger-ui"});
</script>
</body>
</html>`, html.EscapeString(title), specPath)
}

func rapidocTemplate(title, specPath string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
<script type="module" src="https://unpkg.com/rapidoc/dist/rapidoc-min.js"></script>
</head>
<body>
<rapi-doc spec-url=%q></rapi-doc>
</body>
</html>`, html.EscapeString(title), specPath)
}

func redocTemplate(title, specPath string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
</head>
<body>
<redoc spec-url=%q></redoc>
<script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
</body>
</html>`, html.EscapeString(title), specPath)
}
