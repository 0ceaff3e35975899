package tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ThinkArcHQ/profilebase/internal/codeblock"
)

// ValidateCall checks that name is an enabled tool and args satisfy its schema.
func ValidateCall(reg *Registry, name string, args map[string]interface{}) error {
	if reg == nil {
		return errors.New("tool registry unavailable")
	}
	schema, ok := reg.Schema(name)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownTool, name)
	}
	if err := validateAgainstSchema(schema, args); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if schema.Group == GroupFiles {
		if p, ok := args["path"].(string); ok {
			if _, ok := codeblock.NormalizePath(p); !ok {
				return fmt.Errorf("%s: path %q must be relative and stay inside the project", name, p)
			}
		}
	}
	if name == "edit_file" {
		if s, _ := args["search"].(string); strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s: search must not be empty", name)
		}
	}
	return nil
}

func validateAgainstSchema(schema Schema, args map[string]interface{}) error {
	for _, field := range schema.Parameters {
		val, exists := args[field.Name]
		if field.Required && !exists {
			return fmt.Errorf("%s is required", field.Name)
		}
		if !exists {
			continue
		}
		switch field.Type {
		case "string":
			if _, ok := val.(string); !ok {
				return fmt.Errorf("%s must be string", field.Name)
			}
		case "boolean":
			if _, ok := val.(bool); !ok {
				return fmt.Errorf("%s must be boolean", field.Name)
			}
		case "array":
			if _, ok := val.([]interface{}); !ok {
				return fmt.Errorf("%s must be array", field.Name)
			}
		case "integer", "number":
			switch val.(type) {
			case float64, int, int64:
			default:
				return fmt.Errorf("%s must be %s", field.Name, field.Type)
			}
		}
		if len(field.Enum) > 0 {
			s, _ := val.(string)
			valid := false
			for _, allowed := range field.Enum {
				if s == allowed {
					valid = true
					break
				}
			}
			if !valid {
				return fmt.Errorf("%s must be one of %v", field.Name, field.Enum)
			}
		}
	}
	return nil
}
