package openapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/proxykit/proxykit/proxy"
)

// tokenScheme is the component name of the shared-secret security scheme
// applied to token-protected routes.
const tokenScheme = "access_token"

// Spec collects document metadata and projects a route table into a
// complete OpenAPI Document.
type Spec struct {
	info         Info
	servers      []Server
	tags         []Tag
	externalDocs *ExternalDocs
	exclude      map[string]bool
}

// NewSpec creates a new spec builder with the given API info.
func NewSpec(info Info) *Spec {
	return &Spec{
		info:    info,
		exclude: make(map[string]bool),
	}
}

// AddServer adds a server to the spec.
func (s *Spec) AddServer(server Server) *Spec {
	s.servers = append(s.servers, server)
	return s
}

// AddTag adds a user-defined tag with an optional description. Tags
// referenced by routes but not added here still appear in the document,
// without a description.
func (s *Spec) AddTag(tag Tag) *Spec {
	s.tags = append(s.tags, tag)
	return s
}

// SetExternalDocs sets the document-level external documentation link.
func (s *Spec) SetExternalDocs(url, description string) *Spec {
	s.externalDocs = &ExternalDocs{URL: url, Description: description}
	return s
}

// Exclude removes routes with the given templates from the document.
// Handle uses this to keep the documentation endpoints themselves out of
// the documentation.
func (s *Spec) Exclude(templates ...string) *Spec {
	for _, tpl := range templates {
		s.exclude[tpl] = true
	}
	return s
}

// Build walks the route table in registration order and assembles a
// complete OpenAPI Document.
func (s *Spec) Build(api *proxy.API) *Document {
	doc := &Document{
		OpenAPI:      "3.1.0",
		Info:         s.info,
		Servers:      s.servers,
		Paths:        make(map[string]*PathItem),
		ExternalDocs: s.externalDocs,
	}

	hasToken := false

	for _, route := range api.Routes() {
		if s.exclude[route.Template()] {
			continue
		}

		path := route.DocPath()
		pathItem, ok := doc.Paths[path]
		if !ok {
			pathItem = &PathItem{}
			doc.Paths[path] = pathItem
		}

		for _, method := range route.Methods() {
			op := buildOperation(route, method)
			if route.TokenRequired() {
				hasToken = true
			}
			assignOperation(pathItem, method, op)
		}
	}

	if hasToken {
		doc.Components = &Components{
			SecuritySchemes: map[string]*SecurityScheme{
				tokenScheme: {
					Type:        "apiKey",
					In:          "query",
					Name:        tokenScheme,
					Description: "Shared-secret access token.",
				},
			},
		}
	}

	doc.Tags = s.mergeTags(doc.Paths)

	return doc
}

// buildOperation projects one route and method into an Operation.
func buildOperation(route *proxy.RouteEntry, method string) *Operation {
	op := &Operation{
		OperationID: operationID(method, route.DocPath()),
		Summary:     route.Description(),
		Tags:        route.Tags(),
		Responses: map[string]*Response{
			"200": {Description: "Successful Response"},
		},
	}

	for _, p := range route.Params() {
		op.Parameters = append(op.Parameters, &Parameter{
			Name:     p.Name,
			In:       "path",
			Required: true,
			Schema:   paramSchema(p),
		})
	}

	if route.TokenRequired() {
		op.Security = []SecurityRequirement{{tokenScheme: {}}}
		op.Responses["500"] = &Response{Description: "Invalid access token"}
	}

	if method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch {
		op.RequestBody = &RequestBody{
			Content: map[string]*MediaType{
				"application/octet-stream": {
					Schema: &Schema{Type: "string", Format: "binary"},
				},
			},
		}
	}

	return op
}

// paramSchema maps a route parameter descriptor to its JSON Schema form.
func paramSchema(p proxy.ParamDescriptor) *Schema {
	switch p.Type {
	case proxy.ParamInt:
		return &Schema{Type: "integer"}
	case proxy.ParamFloat:
		return &Schema{Type: "number"}
	case proxy.ParamUUID:
		return &Schema{Type: "string", Format: "uuid"}
	case proxy.ParamRegex:
		return &Schema{Type: "string", Pattern: p.Pattern}
	default:
		return &Schema{Type: "string"}
	}
}

// operationID derives a stable operation identifier from the method and
// documentation path, e.g. "get_users_id" for GET /users/{id}.
func operationID(method, path string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(method))

	underscore := false
	for _, r := range path {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			underscore = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
			underscore = false
		default:
			if !underscore {
				b.WriteByte('_')
				underscore = true
			}
		}
	}

	return strings.TrimRight(b.String(), "_")
}

// assignOperation assigns an operation to the correct HTTP method field
// on the path item.
func assignOperation(pathItem *PathItem, method string, op *Operation) {
	switch method {
	case http.MethodGet:
		pathItem.Get = op
	case http.MethodPost:
		pathItem.Post = op
	case http.MethodPut:
		pathItem.Put = op
	case http.MethodDelete:
		pathItem.Delete = op
	case http.MethodPatch:
		pathItem.Patch = op
	case http.MethodHead:
		pathItem.Head = op
	case http.MethodOptions:
		pathItem.Options = op
	case http.MethodTrace:
		pathItem.Trace = op
	}
}

// mergeTags combines tags referenced by operations with user-defined tags.
// User-defined tags take precedence so their descriptions are kept; tags
// defined but never referenced are still included. The result is sorted
// alphabetically.
func (s *Spec) mergeTags(paths map[string]*PathItem) []Tag {
	userTags := make(map[string]Tag, len(s.tags))
	for _, tag := range s.tags {
		userTags[tag.Name] = tag
	}

	seen := make(map[string]bool)
	var tags []Tag

	for _, pathItem := range paths {
		for _, op := range []*Operation{
			pathItem.Get, pathItem.Post, pathItem.Put,
			pathItem.Delete, pathItem.Patch, pathItem.Head,
			pathItem.Options, pathItem.Trace,
		} {
			if op == nil {
				continue
			}
			for _, name := range op.Tags {
				if seen[name] {
					continue
				}
				seen[name] = true
				if userTag, ok := userTags[name]; ok {
					tags = append(tags, userTag)
				} else {
					tags = append(tags, Tag{Name: name})
				}
			}
		}
	}

	for _, tag := range s.tags {
		if !seen[tag.Name] {
			seen[tag.Name] = true
			tags = append(tags, tag)
		}
	}

	sort.Slice(tags, func(i, j int) bool {
		return tags[i].Name < tags[j].Name
	})

	return tags
}
