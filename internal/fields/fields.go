package fields

import (
	"fmt"
	"strings"

	"github.com/servistore/servistore-backend/pkg/db/models"
	"github.com/servistore/servistore-backend/pkg/types"
)

// NullPayloadMessage is returned when a client sends an explicit null instead
// of an extra-data object.
const NullPayloadMessage = "Please enter the required information."

// Declaration is one input a service expects from the buyer.
type Declaration struct {
	Name     string
	Label    string
	Required bool
}

// FromServiceFields converts catalog rows into declarations.
func FromServiceFields(rows []models.ServiceField) []Declaration {
	decls := make([]Declaration, 0, len(rows))
	for _, row := range rows {
		decls = append(decls, Declaration{
			Name:     row.FieldName,
			Label:    row.Label,
			Required: row.IsRequired,
		})
	}
	return decls
}

// Clean drops every key the service does not declare. The result is never
// nil so it compares equal to an empty mapping.
func Clean(payload types.JSONMap, decls []Declaration) types.JSONMap {
	allowed := make(map[string]struct{}, len(decls))
	for _, d := range decls {
		allowed[d.Name] = struct{}{}
	}
	cleaned := types.JSONMap{}
	for k, v := range payload {
		if _, ok := allowed[k]; ok {
			cleaned[k] = v
		}
	}
	return cleaned
}

// MissingRequired returns the display names of required fields the cleaned
// payload leaves missing or blank, in declaration order.
func MissingRequired(payload types.JSONMap, decls []Declaration) []string {
	var missing []string
	for _, d := range decls {
		if !d.Required {
			continue
		}
		value, ok := payload[d.Name]
		if !ok || isBlank(value) {
			missing = append(missing, DisplayName(d))
		}
	}
	return missing
}

// MissingMessage formats the aggregated validation message for one service.
func MissingMessage(serviceName string, missing []string) string {
	return fmt.Sprintf("The required fields for the service «%s» are not filled: %s",
		serviceName, strings.Join(missing, ", "))
}

// DisplayName prefers the label; otherwise the field name is humanized
// (underscores to spaces, title case).
func DisplayName(d Declaration) string {
	if d.Label != "" {
		return d.Label
	}
	return humanize(d.Name)
}

func humanize(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// isBlank mirrors a falsy-or-whitespace check on decoded JSON values.
func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case bool:
		return !v
	case float64:
		return v == 0
	case int:
		return v == 0
	case int64:
		return v == 0
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return strings.TrimSpace(fmt.Sprint(v)) == ""
	}
}
