package openapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/proxykit/proxykit/proxy"
)

func okHandler(r *proxy.Request) (proxy.Response, error) {
	return proxy.PlainText(proxy.OK, "ok"), nil
}

func newTestAPI(t *testing.T) *proxy.API {
	t.Helper()
	return proxy.NewAPI("test", proxy.WithLogger(zap.NewNop()))
}

func TestBuildDocumentShape(t *testing.T) {
	api := newTestAPI(t)
	api.MustRegister("/users/<int:id>", okHandler,
		proxy.WithDescription("Fetch one user"),
		proxy.WithTags("users"),
	)

	spec := NewSpec(Info{Title: "user service", Version: "1.0.0"})
	doc := spec.Build(api)

	assert.Equal(t, "3.1.0", doc.OpenAPI)
	assert.Equal(t, "user service", doc.Info.Title)
	require.Contains(t, doc.Paths, "/users/{id}")

	op := doc.Paths["/users/{id}"].Get
	require.NotNil(t, op)
	assert.Equal(t, "get_users_id", op.OperationID)
	assert.Equal(t, "Fetch one user", op.Summary)
	assert.Equal(t, []string{"users"}, op.Tags)
	require.Contains(t, op.Responses, "200")
	assert.Equal(t, "Successful Response", op.Responses["200"].Description)

	assert.Equal(t, []Tag{{Name: "users"}}, doc.Tags)
}

func TestBuildParameterSchemas(t *testing.T) {
	api := newTestAPI(t)
	api.MustRegister("/x/<name>/<int:num>/<float:score>/<uuid:id>/<regex([0-9]{4}):year>", okHandler)

	doc := NewSpec(Info{Title: "t", Version: "1"}).Build(api)
	require.Contains(t, doc.Paths, "/x/{name}/{num}/{score}/{id}/{year}")

	op := doc.Paths["/x/{name}/{num}/{score}/{id}/{year}"].Get
	require.NotNil(t, op)
	require.Len(t, op.Parameters, 5)

	expected := []struct {
		name   string
		schema Schema
	}{
		{name: "name", schema: Schema{Type: "string"}},
		{name: "num", schema: Schema{Type: "integer"}},
		{name: "score", schema: Schema{Type: "number"}},
		{name: "id", schema: Schema{Type: "string", Format: "uuid"}},
		{name: "year", schema: Schema{Type: "string", Pattern: "[0-9]{4}"}},
	}

	for i, e := range expected {
		p := op.Parameters[i]
		assert.Equal(t, e.name, p.Name)
		assert.Equal(t, "path", p.In)
		assert.True(t, p.Required)
		assert.Equal(t, e.schema, *p.Schema)
	}
}

func TestBuildMethods(t *testing.T) {
	api := newTestAPI(t)
	api.MustRegister("/items", okHandler, proxy.WithMethods("GET", "POST", "DELETE"))

	doc := NewSpec(Info{Title: "t", Version: "1"}).Build(api)
	item := doc.Paths["/items"]
	require.NotNil(t, item)

	assert.NotNil(t, item.Get)
	assert.NotNil(t, item.Post)
	assert.NotNil(t, item.Delete)
	assert.Nil(t, item.Put)

	assert.Nil(t, item.Get.RequestBody)
	require.NotNil(t, item.Post.RequestBody)
	assert.Contains(t, item.Post.RequestBody.Content, "application/octet-stream")
}

func TestBuildTokenSecurity(t *testing.T) {
	api := newTestAPI(t)
	api.MustRegister("/secure", okHandler, proxy.WithToken())
	api.MustRegister("/open", okHandler)

	doc := NewSpec(Info{Title: "t", Version: "1"}).Build(api)

	secured := doc.Paths["/secure"].Get
	require.NotNil(t, secured)
	assert.Equal(t, []SecurityRequirement{{"access_token": {}}}, secured.Security)
	require.Contains(t, secured.Responses, "500")

	open := doc.Paths["/open"].Get
	require.NotNil(t, open)
	assert.Empty(t, open.Security)

	require.NotNil(t, doc.Components)
	scheme := doc.Components.SecuritySchemes["access_token"]
	require.NotNil(t, scheme)
	assert.Equal(t, "apiKey", scheme.Type)
	assert.Equal(t, "query", scheme.In)
	assert.Equal(t, "access_token", scheme.Name)
}

func TestBuildNoTokenRoutesNoComponents(t *testing.T) {
	api := newTestAPI(t)
	api.MustRegister("/open", okHandler)

	doc := NewSpec(Info{Title: "t", Version: "1"}).Build(api)
	assert.Nil(t, doc.Components)
}

func TestBuildExclude(t *testing.T) {
	api := newTestAPI(t)
	api.MustRegister("/visible", okHandler)
	api.MustRegister("/hidden", okHandler)

	doc := NewSpec(Info{Title: "t", Version: "1"}).Exclude("/hidden").Build(api)

	assert.Contains(t, doc.Paths, "/visible")
	assert.NotContains(t, doc.Paths, "/hidden")
}

func TestMergeTags(t *testing.T) {
	api := newTestAPI(t)
	api.MustRegister("/a", okHandler, proxy.WithTags("zeta"))
	api.MustRegister("/b", okHandler, proxy.WithTags("alpha"))

	spec := NewSpec(Info{Title: "t", Version: "1"}).
		AddTag(Tag{Name: "alpha", Description: "first letter"}).
		AddTag(Tag{Name: "extra", Description: "defined but unused"})

	doc := spec.Build(api)

	assert.Equal(t, []Tag{
		{Name: "alpha", Description: "first letter"},
		{Name: "extra", Description: "defined but unused"},
		{Name: "zeta"},
	}, doc.Tags)
}

func TestOperationID(t *testing.T) {
	tests := []struct {
		method   string
		path     string
		expected string
	}{
		{method: "GET", path: "/", expected: "get"},
		{method: "GET", path: "/users", expected: "get_users"},
		{method: "POST", path: "/users/{id}/posts", expected: "post_users_id_posts"},
		{method: "GET", path: "/openapi.json", expected: "get_openapi_json"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, operationID(tt.method, tt.path))
		})
	}
}
