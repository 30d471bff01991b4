package sqlstore

import (
	"fmt"
	"strings"
	"time"
)

func bindCommon(value any) any {
	if t, ok := value.(time.Time); ok {
		return t.UTC()
	}
	return value
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

// bindNamed replaces the :name references of condition with positional
// placeholders numbered after offset. Slice values expand to one placeholder
// per element, or NULL when empty. "::" casts and quoted literals are left
// alone.
func bindNamed(d Dialect, condition string, params map[string]any, offset int) (string, []any, error) {
	var sb strings.Builder
	var args []any
	inQuote := false

	for i := 0; i < len(condition); i++ {
		c := condition[i]
		if c == '\'' {
			inQuote = !inQuote
			sb.WriteByte(c)
			continue
		}
		if inQuote || c != ':' {
			sb.WriteByte(c)
			continue
		}
		if i+1 < len(condition) && condition[i+1] == ':' {
			sb.WriteString("::")
			i++
			continue
		}
		if i+1 >= len(condition) || !isNameStart(condition[i+1]) {
			sb.WriteByte(c)
			continue
		}

		j := i + 1
		for j < len(condition) && isNameChar(condition[j]) {
			j++
		}
		name := condition[i+1 : j]
		value, ok := params[name]
		if !ok {
			return "", nil, fmt.Errorf("parameter %q is not bound", name)
		}

		if list, isList := value.([]any); isList {
			if len(list) == 0 {
				sb.WriteString("NULL")
			}
			for k, v := range list {
				if k > 0 {
					sb.WriteString(", ")
				}
				args = append(args, d.BindValue(nil, v))
				sb.WriteString(d.Placeholder(offset + len(args)))
			}
		} else {
			args = append(args, d.BindValue(nil, value))
			sb.WriteString(d.Placeholder(offset + len(args)))
		}
		i = j - 1
	}
	return sb.String(), args, nil
}
