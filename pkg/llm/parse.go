package llm

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/jsonc"
)

// Result is the outcome of parsing semi-structured model output: either a
// decoded value or a parse failure carrying the raw text.
type Result[T any] struct {
	value T
	raw   string
	err   error
}

// OK reports whether parsing succeeded.
func (r Result[T]) OK() bool {
	return r.err == nil
}

// Value returns the decoded value. It is the zero value on failure.
func (r Result[T]) Value() T {
	return r.value
}

// Raw returns the unmodified model output.
func (r Result[T]) Raw() string {
	return r.raw
}

// Err returns the parse error, or nil on success.
func (r Result[T]) Err() error {
	return r.err
}

// ParseJSON decodes model output into T. Fenced code blocks are unwrapped,
// and comments and trailing commas are tolerated.
func ParseJSON[T any](raw string) Result[T] {
	res := Result[T]{raw: raw}

	body := strings.TrimSpace(StripFences(raw))
	if err := json.Unmarshal(jsonc.ToJSON([]byte(body)), &res.value); err != nil {
		var zero T
		res.value = zero
		res.err = err
	}
	return res
}

// StripFences returns the body of the first ```json fence, or failing that
// the first ``` fence. Text without fences is returned unchanged.
func StripFences(text string) string {
	for _, open := range []string{"```json", "```"} {
		_, after, found := strings.Cut(text, open)
		if !found {
			continue
		}
		body, _, _ := strings.Cut(after, "```")
		return body
	}
	return text
}
