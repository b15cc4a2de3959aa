package manifest

import (
	"bytes"
	"cmp"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const schemaURL = "manifest.schema.json"

//go:embed schema/manifest.schema.json
var schemaBytes []byte

var printer = message.NewPrinter(language.English)

var loadSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
	if err != nil {
		return nil, fmt.Errorf("decoding manifest schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("registering manifest schema: %w", err)
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compiling manifest schema: %w", err)
	}
	return s, nil
})

// ValidationResult is the outcome of checking a manifest against the schema.
type ValidationResult struct {
	Valid  bool
	Issues []ValidationIssue
}

// ValidationIssue is one schema violation.
type ValidationIssue struct {
	Path    string // JSON pointer into the manifest, e.g. "/backend/max_replica"
	Message string
	Keyword string // failing schema keyword, e.g. "minimum"
}

func (i ValidationIssue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Validate checks raw manifest bytes against the embedded schema. A non-nil
// error means the bytes are not TOML or the schema is unusable; schema
// violations are reported in the result, sorted by path.
func Validate(data []byte) (*ValidationResult, error) {
	schema, err := loadSchema()
	if err != nil {
		return nil, err
	}

	inst, err := jsonInstance(data)
	if err != nil {
		return nil, err
	}

	err = schema.Validate(inst)
	if err == nil {
		return &ValidationResult{Valid: true}, nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, fmt.Errorf("validating manifest: %w", err)
	}
	return &ValidationResult{Issues: leafIssues(ve)}, nil
}

// jsonInstance decodes TOML and re-reads it as JSON so numbers reach the
// validator as json.Number.
func jsonInstance(data []byte) (any, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing TOML: %w", describeTOMLError(err))
	}

	buf, err := json.Marshal(jsonCompatible(doc))
	if err != nil {
		return nil, fmt.Errorf("encoding manifest as JSON: %w", err)
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(buf))
}

// jsonCompatible renders TOML date and time values as strings.
func jsonCompatible(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, e := range val {
			val[k] = jsonCompatible(e)
		}
		return val
	case []any:
		for i, e := range val {
			val[i] = jsonCompatible(e)
		}
		return val
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case fmt.Stringer:
		// toml.LocalDate, toml.LocalTime and toml.LocalDateTime
		return val.String()
	default:
		return val
	}
}

// leafIssues flattens the error tree into its leaves, dropping keywords that
// only group other failures and collapsing duplicates.
func leafIssues(root *jsonschema.ValidationError) []ValidationIssue {
	seen := make(map[ValidationIssue]struct{})
	var issues []ValidationIssue

	stack := []*jsonschema.ValidationError{root}
	for len(stack) > 0 {
		ve := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if len(ve.Causes) > 0 {
			stack = append(stack, ve.Causes...)
			continue
		}

		issue, ok := issueOf(ve)
		if !ok {
			continue
		}
		if _, dup := seen[issue]; dup {
			continue
		}
		seen[issue] = struct{}{}
		issues = append(issues, issue)
	}

	if len(issues) == 0 {
		return []ValidationIssue{{Message: root.Error()}}
	}

	slices.SortFunc(issues, func(a, b ValidationIssue) int {
		return cmp.Or(cmp.Compare(a.Path, b.Path), cmp.Compare(a.Keyword, b.Keyword))
	})
	return issues
}

func issueOf(ve *jsonschema.ValidationError) (ValidationIssue, bool) {
	if ve.ErrorKind == nil {
		return ValidationIssue{}, false
	}

	kw := ve.ErrorKind.KeywordPath()
	if len(kw) == 0 {
		return ValidationIssue{}, false
	}
	switch keyword := kw[len(kw)-1]; keyword {
	case "allOf", "$ref":
		return ValidationIssue{}, false
	default:
		var path string
		if len(ve.InstanceLocation) > 0 {
			path = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		return ValidationIssue{
			Path:    path,
			Message: ve.ErrorKind.LocalizedString(printer),
			Keyword: keyword,
		}, true
	}
}
