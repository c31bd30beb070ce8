package proxy

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// regexpCache caches compiled regular expressions by pattern string. The
// number of unique patterns is bounded by the number of registered routes,
// so the cache grows to a fixed size and stays there.
var regexpCache sync.Map

// compileRegexp returns a cached *regexp.Regexp for the given pattern,
// compiling and caching it on first use.
func compileRegexp(pattern string) (*regexp.Regexp, error) {
	if v, ok := regexpCache.Load(pattern); ok {
		return v.(*regexp.Regexp), nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	actual, _ := regexpCache.LoadOrStore(pattern, re)

	return actual.(*regexp.Regexp), nil
}

// ParamType identifies the value conversion applied to a path parameter.
type ParamType int

const (
	// ParamNone is a bare <name> placeholder; the value is passed through
	// as a string without casting.
	ParamNone ParamType = iota
	// ParamString is a <string:name> placeholder.
	ParamString
	// ParamInt is an <int:name> placeholder; the value is cast to int.
	ParamInt
	// ParamFloat is a <float:name> placeholder; the value is cast to float64.
	ParamFloat
	// ParamUUID is a <uuid:name> placeholder matching the canonical
	// 8-4-4-4-12 lowercase hex form per RFC 4122; kept as a string.
	ParamUUID
	// ParamRegex is a <regex(pattern):name> placeholder with a user
	// supplied pattern; kept as a string.
	ParamRegex
)

// String returns the type tag as written in a template.
func (t ParamType) String() string {
	switch t {
	case ParamString:
		return "string"
	case ParamInt:
		return "int"
	case ParamFloat:
		return "float"
	case ParamUUID:
		return "uuid"
	case ParamRegex:
		return "regex"
	default:
		return "none"
	}
}

// ParamDescriptor describes one placeholder of a path template, in the order
// it occurs left to right. Pattern is set only for ParamRegex.
type ParamDescriptor struct {
	Name    string
	Type    ParamType
	Pattern string
}

// Sub-patterns substituted for typed placeholders. All are inserted as a
// single capturing group each.
const (
	wordPattern  = `[a-zA-Z0-9_]+`
	intPattern   = `[0-9]+`
	floatPattern = `[+-]?[0-9]+\.[0-9]+`
	uuidPattern  = `[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`
)

// nameRegexp validates placeholder parameter names.
var nameRegexp = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// segment is one token of a parsed template: either a literal run or a
// placeholder with its descriptor.
type segment struct {
	literal string
	param   *ParamDescriptor
}

// compiledTemplate is the matching form of a path template. The regexp is
// anchored so only full-path matches are accepted. groups holds, per
// descriptor, the index of its outer capture group in the compiled regexp;
// user regex patterns may contain nested capturing groups, so descriptor
// order alone is not a safe group index.
type compiledTemplate struct {
	template string
	regexp   *regexp.Regexp
	params   []ParamDescriptor
	groups   []int
}

// compileTemplate tokenizes a path template and builds its anchored match
// pattern and ordered parameter descriptors in a single pass.
func compileTemplate(tpl string) (*compiledTemplate, error) {
	segments, err := tokenizeTemplate(tpl)
	if err != nil {
		return nil, err
	}

	var (
		pattern strings.Builder
		params  []ParamDescriptor
		groups  []int
		seen    = make(map[string]bool)
		ngroups int
	)

	pattern.WriteByte('^')

	for _, seg := range segments {
		if seg.param == nil {
			pattern.WriteString(regexp.QuoteMeta(seg.literal))
			continue
		}

		p := *seg.param
		if seen[p.Name] {
			return nil, fmt.Errorf("proxy: duplicated parameter %q in template %q", p.Name, tpl)
		}
		seen[p.Name] = true

		sub := wordPattern
		switch p.Type {
		case ParamNone, ParamString:
		case ParamInt:
			sub = intPattern
		case ParamFloat:
			sub = floatPattern
		case ParamUUID:
			sub = uuidPattern
		case ParamRegex:
			sub = p.Pattern
		}

		pattern.WriteString("(" + sub + ")")

		// Track the outer group index for each placeholder so nested
		// capturing groups inside user regex patterns cannot shift the
		// name-to-group mapping.
		ngroups++
		groups = append(groups, ngroups)
		ngroups += countCaptureGroups(sub)

		params = append(params, p)
	}

	pattern.WriteByte('$')

	re, err := compileRegexp(pattern.String())
	if err != nil {
		return nil, fmt.Errorf("proxy: invalid pattern in template %q: %w", tpl, err)
	}

	return &compiledTemplate{
		template: tpl,
		regexp:   re,
		params:   params,
		groups:   groups,
	}, nil
}

// tokenizeTemplate splits a template into literal and placeholder segments.
// Placeholders are delimited by angle brackets; parentheses inside a
// regex(...) placeholder may contain ">" and are tracked by depth.
func tokenizeTemplate(tpl string) ([]segment, error) {
	var (
		segments []segment
		start    = -1
		depth    int
		last     int
	)

	for i := 0; i < len(tpl); i++ {
		switch tpl[i] {
		case '<':
			if start >= 0 {
				// Angle brackets inside a regex(...) pattern, such as
				// named groups, are part of the pattern.
				if depth > 0 {
					continue
				}
				return nil, fmt.Errorf("proxy: unbalanced angle brackets in %q", tpl)
			}
			start = i
		case '(':
			if start >= 0 {
				depth++
			}
		case ')':
			if start >= 0 {
				if depth--; depth < 0 {
					return nil, fmt.Errorf("proxy: unbalanced parentheses in %q", tpl)
				}
			}
		case '>':
			if start < 0 || depth > 0 {
				continue
			}
			if start > last {
				segments = append(segments, segment{literal: tpl[last:start]})
			}
			param, err := parsePlaceholder(tpl[start+1:i], tpl)
			if err != nil {
				return nil, err
			}
			segments = append(segments, segment{param: param})
			start = -1
			last = i + 1
		}
	}

	if start >= 0 {
		return nil, fmt.Errorf("proxy: unbalanced angle brackets in %q", tpl)
	}

	if last < len(tpl) {
		segments = append(segments, segment{literal: tpl[last:]})
	}

	return segments, nil
}

// parsePlaceholder parses the text between angle brackets: "name",
// "type:name" or "regex(pattern):name".
func parsePlaceholder(body, tpl string) (*ParamDescriptor, error) {
	if strings.HasPrefix(body, "regex(") {
		end := strings.LastIndex(body, ")")
		if end < 0 {
			return nil, fmt.Errorf("proxy: unbalanced parentheses in %q", tpl)
		}
		pattern := body[len("regex("):end]
		rest := body[end+1:]
		if !strings.HasPrefix(rest, ":") {
			return nil, fmt.Errorf("proxy: missing name in %q from %q", body, tpl)
		}
		name := rest[1:]
		if !nameRegexp.MatchString(name) {
			return nil, fmt.Errorf("proxy: invalid parameter name %q in %q", name, tpl)
		}
		// Reject patterns that are not valid as a sub-expression before
		// they reach the full template pattern.
		if _, err := compileRegexp("(" + pattern + ")"); err != nil {
			return nil, fmt.Errorf("proxy: invalid regex pattern for %q in %q: %w", name, tpl, err)
		}
		return &ParamDescriptor{Name: name, Type: ParamRegex, Pattern: pattern}, nil
	}

	tag, name, tagged := strings.Cut(body, ":")
	if !tagged {
		name = body
		if !nameRegexp.MatchString(name) {
			return nil, fmt.Errorf("proxy: invalid parameter name %q in %q", name, tpl)
		}
		return &ParamDescriptor{Name: name, Type: ParamNone}, nil
	}

	if !nameRegexp.MatchString(name) {
		return nil, fmt.Errorf("proxy: invalid parameter name %q in %q", name, tpl)
	}

	var typ ParamType
	switch tag {
	case "string":
		typ = ParamString
	case "int":
		typ = ParamInt
	case "float":
		typ = ParamFloat
	case "uuid":
		typ = ParamUUID
	default:
		return nil, fmt.Errorf("proxy: unknown parameter type %q in %q", tag, tpl)
	}

	return &ParamDescriptor{Name: name, Type: typ}, nil
}

// countCaptureGroups counts the capturing groups of a pattern: plain "("
// groups and named "(?P<...>" groups, skipping escapes and character
// classes.
func countCaptureGroups(pattern string) int {
	var (
		n       int
		inClass bool
	)
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '\\':
			i++
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '(':
			if inClass {
				continue
			}
			if i+1 >= len(pattern) || pattern[i+1] != '?' {
				n++
			} else if strings.HasPrefix(pattern[i+1:], "?P<") {
				n++
			}
		}
	}
	return n
}

// match reports whether path fully matches the compiled pattern.
func (ct *compiledTemplate) match(path string) bool {
	return ct.regexp.MatchString(path)
}

// extract re-runs the match and converts each capture to its descriptor's
// declared type: int and float placeholders yield int and float64, all
// others strings. A conversion failure means the capture pattern and the
// converter disagree; that is an internal invariant violation and panics.
func (ct *compiledTemplate) extract(path string) (map[string]any, bool) {
	m := ct.regexp.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}

	args := make(map[string]any, len(ct.params))
	for i, p := range ct.params {
		raw := m[ct.groups[i]]
		switch p.Type {
		case ParamInt:
			v, err := strconv.Atoi(raw)
			if err != nil {
				panic(fmt.Sprintf("proxy: capture %q for int parameter %q: %v", raw, p.Name, err))
			}
			args[p.Name] = v
		case ParamFloat:
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				panic(fmt.Sprintf("proxy: capture %q for float parameter %q: %v", raw, p.Name, err))
			}
			args[p.Name] = v
		default:
			args[p.Name] = raw
		}
	}

	return args, true
}

// docPath renders the template with OpenAPI-style {name} placeholders,
// e.g. "/users/<int:id>" becomes "/users/{id}".
func (ct *compiledTemplate) docPath() string {
	segments, err := tokenizeTemplate(ct.template)
	if err != nil {
		return ct.template
	}

	var b strings.Builder
	for _, seg := range segments {
		if seg.param == nil {
			b.WriteString(seg.literal)
			continue
		}
		b.WriteString("{" + seg.param.Name + "}")
	}
	return b.String()
}
