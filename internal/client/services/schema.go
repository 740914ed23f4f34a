package services

import (
	"fmt"
	"sort"

	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
	"github.com/dmitrijs2005/orgkeeper/internal/common"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ValidateResourceSchema checks decoded metadata against the resource part
// of its type definition. Only required fields and maxLength are enforced;
// properties the metadata does not carry are treated as empty.
func ValidateResourceSchema(schema models.ObjectSchema, md models.Metadata) error {
	fields := md.Fields()

	rules := map[string][]validation.Rule{}
	for _, name := range schema.Required {
		rules[name] = append(rules[name], validation.Required)
	}
	for name, prop := range schema.Properties {
		if prop.MaxLength > 0 {
			rules[name] = append(rules[name], validation.RuneLength(0, prop.MaxLength))
		}
	}

	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)

	errs := validation.Errors{}
	for _, name := range names {
		if err := validation.Validate(fields[name], rules[name]...); err != nil {
			errs[name] = err
		}
	}
	if err := errs.Filter(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrSchemaViolation, err)
	}
	return nil
}
