package schema

import (
	"fmt"
	"net/mail"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Issue codes reported by Validator.
const (
	IssueRequired      = "REQUIRED_FIELD_MISSING"
	IssueNull          = "NULL_VALUE"
	IssueTypeMismatch  = "TYPE_MISMATCH"
	IssueEnum          = "INVALID_ENUM_VALUE"
	IssueTooShort      = "STRING_TOO_SHORT"
	IssueTooLong       = "STRING_TOO_LONG"
	IssueFormat        = "INVALID_FORMAT"
	IssueUnexpected    = "UNEXPECTED_FIELD"
	issueSeverityError = "error"
)

// typeCheck reports whether a value is acceptable for a field type. The name
// is used in mismatch messages.
type typeCheck struct {
	name  string
	check func(any) bool
}

var typeChecks = map[FieldType]typeCheck{
	FieldTypeString:   {"string", isString},
	FieldTypeEnum:     {"string", isString},
	FieldTypeNumber:   {"number", isNumber},
	FieldTypeInteger:  {"integer", isInteger},
	FieldTypeBoolean:  {"boolean", func(v any) bool { _, ok := v.(bool); return ok }},
	FieldTypeDateTime: {"datetime", func(v any) bool { _, ok := v.(time.Time); return ok }},
}

// coercions parse string input into the field type, e.g. values that arrive
// as query or form strings.
var coercions = map[FieldType]func(string) (any, bool){
	FieldTypeBoolean: func(s string) (any, bool) {
		switch strings.ToLower(s) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
		return nil, false
	},
	FieldTypeInteger: func(s string) (any, bool) {
		i, err := strconv.ParseInt(s, 10, 64)
		return i, err == nil
	},
	FieldTypeNumber: func(s string) (any, bool) {
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	},
	FieldTypeDateTime: func(s string) (any, bool) {
		t, err := time.Parse(time.RFC3339, s)
		return t, err == nil
	},
}

// Validator checks documents against one schema: required fields, types,
// enum membership, string bounds and fields the schema does not declare.
// It is not safe for concurrent use.
type Validator struct {
	schema *SchemaDefinition
	issues []Issue
}

// NewValidator creates a validator for s.
func NewValidator(s *SchemaDefinition) *Validator {
	return &Validator{schema: s}
}

// Validate reports whether data conforms to the schema. With loose set,
// missing required fields are tolerated, which partial updates rely on.
// Issues come out in field name order.
func (v *Validator) Validate(data map[string]any, loose bool) (bool, []Issue) {
	v.issues = make([]Issue, 0)

	for _, name := range v.schema.FieldNames() {
		def := v.schema.Fields[name]
		value, present := data[name]
		switch {
		case present:
			v.checkValue(name, def, value)
		case def.IsRequired() && !loose:
			v.report(name, IssueRequired, fmt.Sprintf("Required field '%s' is missing", name))
		}
	}

	extra := make([]string, 0)
	for name := range data {
		if _, ok := v.schema.Fields[name]; !ok {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	for _, name := range extra {
		v.report(name, IssueUnexpected, fmt.Sprintf("Unexpected field '%s' not defined in schema", name))
	}

	return len(v.issues) == 0, v.issues
}

func (v *Validator) checkValue(path string, def *FieldDefinition, value any) {
	if value == nil {
		if def.IsRequired() {
			v.report(path, IssueNull, "Field cannot be null")
		}
		return
	}

	if s, ok := value.(string); ok {
		if coerce, ok := coercions[def.Type]; ok {
			if coerced, ok := coerce(s); ok {
				value = coerced
			}
		}
	}

	if tc, ok := typeChecks[def.Type]; ok && !tc.check(value) {
		v.report(path, IssueTypeMismatch, fmt.Sprintf("Expected %s, got %T", tc.name, value))
		return
	}

	if def.Type == FieldTypeEnum && len(def.Values) > 0 &&
		!slices.ContainsFunc(def.Values, func(allowed any) bool { return reflect.DeepEqual(value, allowed) }) {
		v.report(path, IssueEnum, fmt.Sprintf("Value '%v' is not one of %v", value, def.Values))
	}

	if s, ok := value.(string); ok {
		v.checkString(path, def, s)
	}
}

func (v *Validator) checkString(path string, def *FieldDefinition, s string) {
	if def.MinLength != nil && len(s) < *def.MinLength {
		v.report(path, IssueTooShort, fmt.Sprintf("Must be at least %d characters", *def.MinLength))
	}
	if def.MaxLength != nil && len(s) > *def.MaxLength {
		v.report(path, IssueTooLong, fmt.Sprintf("Must be at most %d characters", *def.MaxLength))
	}
	if def.Format == "email" {
		if _, err := mail.ParseAddress(s); err != nil || strings.ContainsAny(s, "<> ") {
			v.report(path, IssueFormat, "Must be a valid email address")
		}
	}
}

func (v *Validator) report(path, code, message string) {
	v.issues = append(v.issues, Issue{
		Code:     code,
		Message:  message,
		Path:     path,
		Severity: issueSeverityError,
	})
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

func isInteger(v any) bool {
	switch n := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		return n == float64(int64(n))
	}
	return false
}
