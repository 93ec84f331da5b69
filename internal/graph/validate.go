package graph

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/contract"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

// MaxIdentifierLength bounds identifiers interpolated into Cypher.
const MaxIdentifierLength = 128

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateIdentifier checks that value is safe to interpolate into a query
// template. It returns value unchanged on success.
//
// Every label, relationship type and property key that ends up inside
// Cypher text passes through here first. Property values never do: they
// are always bound as parameters.
func ValidateIdentifier(value, field string) (string, error) {
	if value == "" {
		return "", types.NewValidationError(field, value,
			fmt.Sprintf("invalid %s: must not be empty", field))
	}
	if len(value) > MaxIdentifierLength {
		return "", types.NewValidationError(field, value[:MaxIdentifierLength],
			fmt.Sprintf("invalid %s: longer than %d characters", field, MaxIdentifierLength))
	}
	if !identifierPattern.MatchString(value) {
		return "", types.NewValidationError(field, value,
			fmt.Sprintf("invalid %s: must contain only letters, digits, '_' or '-'", field))
	}
	return value, nil
}

// ValidateLabel checks that s is a known node label.
func ValidateLabel(s string) (contract.Label, error) {
	if _, err := ValidateIdentifier(s, "label"); err != nil {
		return "", err
	}
	label := contract.Label(s)
	if !label.IsValid() {
		return "", types.NewValidationError("label", s,
			fmt.Sprintf("invalid label %q: must be one of %s", s, joinLabels()))
	}
	return label, nil
}

// ValidateRelationshipType checks that s is a known relationship type.
func ValidateRelationshipType(s string) (contract.RelationshipType, error) {
	if _, err := ValidateIdentifier(s, "relationship_type"); err != nil {
		return "", err
	}
	relType := contract.RelationshipType(s)
	if !relType.IsValid() {
		return "", types.NewValidationError("relationship_type", s,
			fmt.Sprintf("invalid relationship type %q: must be one of %s", s, joinRelationshipTypes()))
	}
	return relType, nil
}

// validateProperties checks every property key. Keys are sorted so the
// reported failure is deterministic.
func validateProperties(props map[string]any) error {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := ValidateIdentifier(k, "property_key"); err != nil {
			return err
		}
	}
	return nil
}

// validateRelationship runs every check a relationship write needs before
// any session is acquired.
func validateRelationship(rel contract.Relationship) error {
	if _, err := ValidateLabel(string(rel.SourceLabel)); err != nil {
		return err
	}
	if _, err := ValidateLabel(string(rel.TargetLabel)); err != nil {
		return err
	}
	if _, err := ValidateRelationshipType(string(rel.Type)); err != nil {
		return err
	}
	if _, err := ValidateIdentifier(rel.SourceKey, "source_key"); err != nil {
		return err
	}
	if _, err := ValidateIdentifier(rel.TargetKey, "target_key"); err != nil {
		return err
	}
	if strings.TrimSpace(rel.SourceValue) == "" {
		return types.NewValidationError("source_value", "", "relationship source value must not be empty")
	}
	if strings.TrimSpace(rel.TargetValue) == "" {
		return types.NewValidationError("target_value", "", "relationship target value must not be empty")
	}
	return validateProperties(rel.Properties)
}

func validateClause(c contract.Clause) error {
	if _, err := ValidateIdentifier(c.ID, "clause_id"); err != nil {
		return err
	}
	if strings.TrimSpace(c.Text) == "" {
		return types.NewValidationError("text", "", "clause text must not be empty")
	}
	return nil
}

func validateEntity(e contract.Entity) error {
	if strings.TrimSpace(e.Name) == "" {
		return types.NewValidationError("name", "", "entity name must not be empty")
	}
	return nil
}

func validateRisk(r contract.Risk) error {
	if _, err := ValidateIdentifier(r.ID, "risk_id"); err != nil {
		return err
	}
	if !r.Severity.IsValid() {
		return types.NewValidationError("severity", string(r.Severity),
			fmt.Sprintf("invalid severity %q: must be one of low, medium, high, critical", r.Severity))
	}
	if r.ClauseID != "" {
		if _, err := ValidateIdentifier(r.ClauseID, "clause_id"); err != nil {
			return err
		}
	}
	return nil
}

func joinLabels() string {
	names := make([]string, len(contract.Labels))
	for i, l := range contract.Labels {
		names[i] = string(l)
	}
	return strings.Join(names, ", ")
}

func joinRelationshipTypes() string {
	names := make([]string, len(contract.RelationshipTypes))
	for i, t := range contract.RelationshipTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
