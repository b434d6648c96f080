package todo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "tada://todos.schema.json"

// documentSchema describes the persisted list.
const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "text", "completed"],
    "additionalProperties": false,
    "properties": {
      "id":        { "type": "integer" },
      "text":      { "type": "string", "minLength": 1 },
      "completed": { "type": "boolean" }
    }
  }
}`

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, strings.NewReader(documentSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return c.Compile(schemaURL)
})

// Problem is one finding of CheckDocument. Path is a dotted location such
// as "[2].text"; empty means the whole document.
type Problem struct {
	Path    string
	Message string
}

func (p Problem) String() string {
	if p.Path == "" {
		return p.Message
	}
	return p.Path + ": " + p.Message
}

type CheckResult struct {
	Items    int
	Problems []Problem
}

func (r *CheckResult) Valid() bool { return len(r.Problems) == 0 }

// CheckDocument validates a persisted list. Hydration never calls it: the
// store trusts what it reads. It exists to diagnose a slot by hand.
func CheckDocument(data []byte) *CheckResult {
	res := &CheckResult{}

	sch, err := compiledSchema()
	if err != nil {
		res.Problems = append(res.Problems, Problem{Message: "schema: " + err.Error()})
		return res
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		res.Problems = append(res.Problems, Problem{Message: "json: " + err.Error()})
		return res
	}
	if arr, ok := doc.([]any); ok {
		res.Items = len(arr)
	}

	if err := sch.Validate(doc); err != nil {
		appendSchemaProblems(res, err)
		return res
	}

	// What the schema cannot say.
	items, err := decodeItems(data)
	if err != nil {
		res.Problems = append(res.Problems, Problem{Message: err.Error()})
		return res
	}
	seen := make(map[int64]int, len(items))
	for i, it := range items {
		if first, dup := seen[it.ID]; dup {
			res.Problems = append(res.Problems, Problem{
				Path:    fmt.Sprintf("[%d].id", i),
				Message: fmt.Sprintf("duplicate id %d (first at [%d])", it.ID, first),
			})
		} else {
			seen[it.ID] = i
		}
		if strings.TrimSpace(it.Text) == "" {
			res.Problems = append(res.Problems, Problem{
				Path:    fmt.Sprintf("[%d].text", i),
				Message: "blank text",
			})
		}
	}
	return res
}

func appendSchemaProblems(res *CheckResult, err error) {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		res.Problems = append(res.Problems, Problem{Message: err.Error()})
		return
	}
	collectSchemaProblems(res, ve)
}

func collectSchemaProblems(res *CheckResult, ve *jsonschema.ValidationError) {
	if len(ve.Causes) == 0 {
		res.Problems = append(res.Problems, Problem{
			Path:    pointerToPath(ve.InstanceLocation),
			Message: ve.Message,
		})
		return
	}
	for _, c := range ve.Causes {
		collectSchemaProblems(res, c)
	}
}

// pointerToPath turns "/2/text" into "[2].text".
func pointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}
	var b strings.Builder
	for _, part := range strings.Split(ptr, "/") {
		part = strings.NewReplacer("~1", "/", "~0", "~").Replace(part)
		if isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
