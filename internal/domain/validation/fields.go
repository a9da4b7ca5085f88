package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// formats is only used for string formats; *validator.Validate is safe for concurrent use.
var formats = validator.New()

func isURL(s string) bool {
	return formats.Var(s, "required,url") == nil
}

func isEmail(s string) bool {
	return formats.Var(s, "required,email") == nil
}

type object map[string]json.RawMessage

// sortedKeys keeps error order stable for map-typed fields.
func (o object) sortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

const (
	kindUndefined = "undefined"
	kindNull      = "null"
	kindBoolean   = "boolean"
	kindString    = "string"
	kindNumber    = "number"
	kindArray     = "array"
	kindObject    = "object"
)

func kindOf(raw json.RawMessage) string {
	s := bytes.TrimSpace(raw)
	if len(s) == 0 {
		return kindUndefined
	}
	switch s[0] {
	case 'n':
		return kindNull
	case 't', 'f':
		return kindBoolean
	case '"':
		return kindString
	case '[':
		return kindArray
	case '{':
		return kindObject
	default:
		return kindNumber
	}
}

// present reports whether the field carries a non-null value.
func present(raw json.RawMessage) bool {
	k := kindOf(raw)
	return k != kindUndefined && k != kindNull
}

func join(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func quoteJoin(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return strings.Join(quoted, " | ")
}

// checker accumulates violations; it never stops at the first one.
type checker struct {
	errs []string
}

func (c *checker) add(path, msg string) {
	if path == "" {
		c.errs = append(c.errs, msg)
		return
	}
	c.errs = append(c.errs, path+": "+msg)
}

func (c *checker) result() Result {
	if len(c.errs) == 0 {
		return valid()
	}
	return Result{IsValid: false, Errors: c.errs}
}

func (c *checker) root(data []byte) (object, bool) {
	if !json.Valid(data) {
		c.add("", "Invalid JSON")
		return nil, false
	}
	return c.object(data, "")
}

func (c *checker) object(raw json.RawMessage, path string) (object, bool) {
	switch k := kindOf(raw); k {
	case kindUndefined:
		c.add(path, "Required")
		return nil, false
	case kindObject:
		var obj object
		if err := json.Unmarshal(raw, &obj); err != nil {
			c.add(path, "Invalid object: "+err.Error())
			return nil, false
		}
		return obj, true
	default:
		c.add(path, "Expected object, received "+k)
		return nil, false
	}
}

func (c *checker) array(raw json.RawMessage, path string) ([]json.RawMessage, bool) {
	switch k := kindOf(raw); k {
	case kindUndefined:
		c.add(path, "Required")
		return nil, false
	case kindArray:
		items := []json.RawMessage{}
		if err := json.Unmarshal(raw, &items); err != nil {
			c.add(path, "Invalid array: "+err.Error())
			return nil, false
		}
		return items, true
	default:
		c.add(path, "Expected array, received "+k)
		return nil, false
	}
}

func (c *checker) string(raw json.RawMessage, path string) (string, bool) {
	switch k := kindOf(raw); k {
	case kindUndefined:
		c.add(path, "Required")
		return "", false
	case kindString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			c.add(path, "Invalid string: "+err.Error())
			return "", false
		}
		return s, true
	default:
		c.add(path, "Expected string, received "+k)
		return "", false
	}
}

func (c *checker) nonEmptyString(raw json.RawMessage, path, msg string) (string, bool) {
	s, ok := c.string(raw, path)
	if !ok {
		return "", false
	}
	if s == "" {
		c.add(path, msg)
		return "", false
	}
	return s, true
}

// optionalString accepts an absent or null field as nil.
func (c *checker) optionalString(raw json.RawMessage, path string) (*string, bool) {
	if !present(raw) {
		return nil, true
	}
	s, ok := c.string(raw, path)
	if !ok {
		return nil, false
	}
	return &s, true
}

// enum checks membership. A non-empty msg replaces every message for the field.
func (c *checker) enum(raw json.RawMessage, path string, allowed []string, msg string) (string, bool) {
	if msg != "" {
		var s string
		if kindOf(raw) == kindString && json.Unmarshal(raw, &s) == nil && slices.Contains(allowed, s) {
			return s, true
		}
		c.add(path, msg)
		return "", false
	}

	s, ok := c.string(raw, path)
	if !ok {
		return "", false
	}
	if !slices.Contains(allowed, s) {
		c.add(path, fmt.Sprintf("Invalid enum value. Expected %s, received '%s'", quoteJoin(allowed), s))
		return "", false
	}
	return s, true
}

// nonNegativeInt checks for an integer >= 0. minMsg replaces the default
// message for negative values when set.
func (c *checker) nonNegativeInt(raw json.RawMessage, path, minMsg string) (int, bool) {
	switch k := kindOf(raw); k {
	case kindUndefined:
		c.add(path, "Required")
		return 0, false
	case kindNumber:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			c.add(path, "Invalid number")
			return 0, false
		}
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			c.add(path, "Expected integer, received float")
			return 0, false
		}
		if f < 0 {
			if minMsg == "" {
				minMsg = "Number must be greater than or equal to 0"
			}
			c.add(path, minMsg)
			return 0, false
		}
		if f > math.MaxInt32 {
			c.add(path, fmt.Sprintf("Number must be less than or equal to %d", math.MaxInt32))
			return 0, false
		}
		return int(f), true
	default:
		c.add(path, "Expected number, received "+k)
		return 0, false
	}
}

func (c *checker) stringList(raw json.RawMessage, path string) ([]string, bool) {
	items, ok := c.array(raw, path)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	allOK := true
	for i, item := range items {
		s, ok := c.string(item, join(path, fmt.Sprint(i)))
		if !ok {
			allOK = false
			continue
		}
		out = append(out, s)
	}
	return out, allOK
}

func (c *checker) indexList(raw json.RawMessage, path string) ([]int, bool) {
	items, ok := c.array(raw, path)
	if !ok {
		return nil, false
	}
	out := make([]int, 0, len(items))
	allOK := true
	for i, item := range items {
		n, ok := c.nonNegativeInt(item, join(path, fmt.Sprint(i)), "")
		if !ok {
			allOK = false
			continue
		}
		out = append(out, n)
	}
	return out, allOK
}
