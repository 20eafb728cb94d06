package application

import (
	"fmt"

	"github.com/docketlabs/go-docket/internal/domain"
)

// extractionKey is the field of an upstream extraction result that carries
// the list of required documents.
const extractionKey = "DOCUMENTS_REQUIRED"

// RequirementsFromExtraction converts an upstream extraction result into
// domain requirements. The extraction's DOCUMENTS_REQUIRED entries may be
// structured objects (name, description, quantity, validation_criteria) or
// plain strings; a string entry becomes a requirement with that name,
// quantity 1, and no criteria. A missing or empty DOCUMENTS_REQUIRED field
// yields an empty slice, not an error — the engine reports the empty-input
// case itself.
func RequirementsFromExtraction(extraction map[string]any) []domain.Requirement {
	raw, ok := extraction[extractionKey].([]any)
	if !ok {
		return nil
	}

	requirements := make([]domain.Requirement, 0, len(raw))
	for i, entry := range raw {
		switch v := entry.(type) {
		case map[string]any:
			requirements = append(requirements, requirementFromMap(v, i))
		case string:
			requirements = append(requirements, domain.Requirement{
				Name:     v,
				Quantity: 1,
			})
		default:
			requirements = append(requirements, domain.Requirement{
				Name:     fmt.Sprintf("%v", v),
				Quantity: 1,
			})
		}
	}
	return requirements
}

func requirementFromMap(entry map[string]any, index int) domain.Requirement {
	req := domain.Requirement{
		Name:     stringField(entry, "name"),
		Quantity: 1,
	}
	if req.Name == "" {
		req.Name = fmt.Sprintf("Requirement_%d", index+1)
	}
	req.Description = stringField(entry, "description")

	switch q := entry["quantity"].(type) {
	case int:
		if q > 0 {
			req.Quantity = q
		}
	case float64:
		// JSON numbers decode as float64.
		if q >= 1 {
			req.Quantity = int(q)
		}
	}

	switch criteria := entry["validation_criteria"].(type) {
	case []any:
		for _, c := range criteria {
			if s, ok := c.(string); ok && s != "" {
				req.ValidationCriteria = append(req.ValidationCriteria, s)
			}
		}
	case []string:
		req.ValidationCriteria = append(req.ValidationCriteria, criteria...)
	case string:
		if criteria != "" {
			req.ValidationCriteria = []string{criteria}
		}
	}

	return req
}

func stringField(entry map[string]any, key string) string {
	if s, ok := entry[key].(string); ok {
		return s
	}
	return ""
}
