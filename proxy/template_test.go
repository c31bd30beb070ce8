package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileTemplate(t *testing.T) {
	tests := []struct {
		name      string
		template  string
		matching  []string
		rejecting []string
		params    []ParamDescriptor
		expectErr bool
	}{
		{
			name:      "literal only",
			template:  "/foo/bar",
			matching:  []string{"/foo/bar"},
			rejecting: []string{"/foo/baz", "/foo/bar/", "/prefix/foo/bar"},
		},
		{
			name:      "bare placeholder",
			template:  "/test/<user>",
			matching:  []string{"/test/jdoe", "/test/user_1"},
			rejecting: []string{"/test/", "/test/a/b", "/test/a-b"},
			params:    []ParamDescriptor{{Name: "user", Type: ParamNone}},
		},
		{
			name:     "string placeholder",
			template: "/test/<string:user>",
			matching: []string{"/test/bob"},
			params:   []ParamDescriptor{{Name: "user", Type: ParamString}},
		},
		{
			name:      "int placeholder",
			template:  "/test/<int:z>",
			matching:  []string{"/test/42"},
			rejecting: []string{"/test/4.2", "/test/abc"},
			params:    []ParamDescriptor{{Name: "z", Type: ParamInt}},
		},
		{
			name:      "float placeholder",
			template:  "/value/<float:x>",
			matching:  []string{"/value/3.14", "/value/-0.5", "/value/+1.0"},
			rejecting: []string{"/value/3", "/value/.5"},
			params:    []ParamDescriptor{{Name: "x", Type: ParamFloat}},
		},
		{
			name:     "uuid placeholder",
			template: "/obj/<uuid:id>",
			matching: []string{"/obj/6b0d1f5e-4a9c-4f2e-8e52-3c2b6f9e3a11"},
			rejecting: []string{
				"/obj/6B0D1F5E-4A9C-4F2E-8E52-3C2B6F9E3A11",
				"/obj/not-a-uuid",
			},
			params: []ParamDescriptor{{Name: "id", Type: ParamUUID}},
		},
		{
			name:      "regex placeholder",
			template:  "/test/<regex([0-9]{4}):number>",
			matching:  []string{"/test/1234"},
			rejecting: []string{"/test/123", "/test/12345"},
			params:    []ParamDescriptor{{Name: "number", Type: ParamRegex, Pattern: "[0-9]{4}"}},
		},
		{
			name:     "multiple placeholders keep template order",
			template: "/test/<regex([0-9]{4}):number>/<name>",
			matching: []string{"/test/1234/abc"},
			params: []ParamDescriptor{
				{Name: "number", Type: ParamRegex, Pattern: "[0-9]{4}"},
				{Name: "name", Type: ParamNone},
			},
		},
		{
			name:      "duplicate parameter names",
			template:  "/a/<id>/b/<id>",
			expectErr: true,
		},
		{
			name:      "unknown type tag",
			template:  "/a/<bytes:id>",
			expectErr: true,
		},
		{
			name:      "unterminated placeholder",
			template:  "/a/<id",
			expectErr: true,
		},
		{
			name:      "empty name",
			template:  "/a/<int:>",
			expectErr: true,
		},
		{
			name:      "regex without name",
			template:  "/a/<regex([0-9]+)>",
			expectErr: true,
		},
		{
			name:      "invalid regex pattern",
			template:  "/a/<regex([0-9){2}):x>",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, err := compileTemplate(tt.template)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.params, ct.params)

			for _, path := range tt.matching {
				assert.True(t, ct.match(path), "should match %q", path)
			}
			for _, path := range tt.rejecting {
				assert.False(t, ct.match(path), "should not match %q", path)
			}
		})
	}
}

func TestCompileTemplateDescriptorCount(t *testing.T) {
	// One descriptor per placeholder occurrence, left to right.
	ct, err := compileTemplate("/<a>/<int:b>/<float:c>/<uuid:d>/<regex(x+):e>")
	require.NoError(t, err)
	require.Len(t, ct.params, 5)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"},
		[]string{ct.params[0].Name, ct.params[1].Name, ct.params[2].Name, ct.params[3].Name, ct.params[4].Name})
}

func TestExtractTypedArgs(t *testing.T) {
	ct, err := compileTemplate("/u/<user>/<int:num>/<float:score>")
	require.NoError(t, err)

	args, ok := ct.extract("/u/bob/42/9.5")
	require.True(t, ok)
	assert.Equal(t, "bob", args["user"])
	assert.Equal(t, 42, args["num"])
	assert.Equal(t, 9.5, args["score"])
}

func TestExtractNoMatch(t *testing.T) {
	ct, err := compileTemplate("/u/<int:num>")
	require.NoError(t, err)

	_, ok := ct.extract("/u/abc")
	assert.False(t, ok)
}

func TestExtractNestedGroupsStayAligned(t *testing.T) {
	// Capturing groups inside a user pattern must not shift the mapping
	// of later placeholders to their captures.
	ct, err := compileTemplate("/v/<regex((19|20)[0-9]{2}):year>/<name>")
	require.NoError(t, err)

	args, ok := ct.extract("/v/2024/report")
	require.True(t, ok)
	assert.Equal(t, "2024", args["year"])
	assert.Equal(t, "report", args["name"])
}

func TestExtractNamedGroupsStayAligned(t *testing.T) {
	ct, err := compileTemplate("/v/<regex((?P<century>19|20)[0-9]{2}):year>/<int:q>")
	require.NoError(t, err)

	args, ok := ct.extract("/v/1999/4")
	require.True(t, ok)
	assert.Equal(t, "1999", args["year"])
	assert.Equal(t, 4, args["q"])
}

func TestCountCaptureGroups(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		expected int
	}{
		{name: "no groups", pattern: "[0-9]{4}", expected: 0},
		{name: "plain group", pattern: "(19|20)[0-9]{2}", expected: 1},
		{name: "non-capturing group", pattern: "(?:19|20)[0-9]{2}", expected: 0},
		{name: "named group", pattern: "(?P<c>19|20)", expected: 1},
		{name: "escaped paren", pattern: `\([0-9]+\)`, expected: 0},
		{name: "paren in class", pattern: `[()][0-9]+`, expected: 0},
		{name: "nested groups", pattern: "((a)(b))", expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, countCaptureGroups(tt.pattern))
		})
	}
}

func TestDocPath(t *testing.T) {
	tests := []struct {
		name     string
		template string
		expected string
	}{
		{name: "literal", template: "/foo/bar", expected: "/foo/bar"},
		{name: "bare", template: "/test/<user>", expected: "/test/{user}"},
		{name: "typed", template: "/u/<int:id>/<float:score>", expected: "/u/{id}/{score}"},
		{name: "regex", template: "/y/<regex([0-9]{4}):year>", expected: "/y/{year}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, err := compileTemplate(tt.template)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ct.docPath())
		})
	}
}
