package form

// Definition is a parsed form: an ordered field list plus the title and
// the free-form markdown body used as LLM context. It is immutable for
// the lifetime of a session and may be shared across sessions.
type Definition struct {
	FormID string
	Title  string
	Fields []Field
	Tools  []Tool
	Body   string
}

// DisplayTitle returns the best available human name for the form.
func (d *Definition) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	if d.FormID != "" {
		return d.FormID
	}
	return "this form"
}

// FieldByID returns the field with the given id, or nil.
func (d *Definition) FieldByID(id string) *Field {
	for i := range d.Fields {
		if d.Fields[i].ID == id {
			return &d.Fields[i]
		}
	}
	return nil
}

// HasField reports whether the form defines a field with the given id.
func (d *Definition) HasField(id string) bool {
	return d.FieldByID(id) != nil
}

// RequiredFieldIDs returns the ids of required fields in definition
// order. Conditional fields are excluded.
func (d *Definition) RequiredFieldIDs() []string {
	var ids []string
	for _, f := range d.Fields {
		if f.Required && f.ID != "" {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

// RequiredByStep groups required field ids by step number, preserving
// definition order within each step.
func (d *Definition) RequiredByStep() map[int][]string {
	byStep := make(map[int][]string)
	for _, f := range d.Fields {
		if !f.Required || f.ID == "" {
			continue
		}
		byStep[f.Step] = append(byStep[f.Step], f.ID)
	}
	return byStep
}

// MaxStep returns the highest step number among required fields,
// or 1 for a single-step form.
func (d *Definition) MaxStep() int {
	max := 1
	for _, f := range d.Fields {
		if f.Required && f.Step > max {
			max = f.Step
		}
	}
	return max
}

// TypeOf returns the type of the field with the given id, or "" if the
// field is unknown.
func (d *Definition) TypeOf(id string) FieldType {
	if f := d.FieldByID(id); f != nil {
		return f.Type
	}
	return ""
}

// PromptOf returns the human prompt label for a field id, or "".
func (d *Definition) PromptOf(id string) string {
	if f := d.FieldByID(id); f != nil {
		return f.Prompt
	}
	return ""
}

// VisibleFields returns the fields whose visibility rules pass against
// the current answers. Fields without a rule are always visible.
func (d *Definition) VisibleFields(answers map[string]interface{}) []Field {
	var visible []Field
	for _, f := range d.Fields {
		if f.VisibleIf == nil || f.VisibleIf.Visible(answers) {
			visible = append(visible, f)
		}
	}
	return visible
}
