package form

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validate checks structure, field uniqueness, options, and cross-field
// references in visibility conditions. Called by ParseDefinition;
// callers constructing a Definition by hand should call it themselves.
func (d *Definition) Validate() error {
	if len(d.Fields) == 0 {
		return errors.New("form must define at least one field")
	}

	ids := make(map[string]bool, len(d.Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		if err := validation.ValidateStruct(f,
			validation.Field(&f.ID, validation.Required),
			validation.Field(&f.Type, validation.Required, validation.By(validFieldType)),
			validation.Field(&f.Prompt, validation.Required),
		); err != nil {
			return fmt.Errorf("field %q: %w", f.ID, err)
		}

		if ids[f.ID] {
			return fmt.Errorf("duplicate field ID: %q", f.ID)
		}
		ids[f.ID] = true

		// Dropdown/checkbox options come either from the definition or
		// from a tool the LLM calls at runtime.
		if (f.Type == FieldTypeDropdown || f.Type == FieldTypeCheckbox) &&
			len(f.Options) == 0 && len(d.Tools) == 0 {
			return fmt.Errorf(
				"field %q of type %q must have non-empty options or a tool to fetch them",
				f.ID, f.Type)
		}
	}

	for i := range d.Fields {
		f := &d.Fields[i]
		if f.VisibleIf == nil {
			continue
		}
		if len(f.VisibleIf.All) == 0 {
			return fmt.Errorf("field %q has an empty visible_if rule", f.ID)
		}
		for _, c := range f.VisibleIf.All {
			if !validOperator(c.Operator) {
				return fmt.Errorf("field %q has unknown operator %q", f.ID, c.Operator)
			}
			if !ids[c.Field] {
				return fmt.Errorf(
					"field %q has visible_if referencing non-existent field %q", f.ID, c.Field)
			}
			if c.ValueField != "" && !ids[c.ValueField] {
				return fmt.Errorf(
					"field %q has visible_if referencing non-existent value_field %q", f.ID, c.ValueField)
			}
			if c.Field == f.ID {
				return fmt.Errorf("field %q has visible_if referencing itself", f.ID)
			}
		}
	}

	return nil
}

func validFieldType(value interface{}) error {
	t, _ := value.(FieldType)
	if !t.IsValid() {
		return fmt.Errorf("unknown field type %q", t)
	}
	return nil
}

func validOperator(op Operator) bool {
	switch op {
	case OpExists, OpEquals, OpNotEquals, OpAfter, OpBefore, OpOnOrAfter, OpOnOrBefore:
		return true
	}
	return false
}
