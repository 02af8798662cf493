package form

// FieldType is the widget type of a form field. The set is closed;
// the parser lowercases whatever the definition carries.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeDate     FieldType = "date"
	FieldTypeDatetime FieldType = "datetime"
	FieldTypeLocation FieldType = "location"
	FieldTypeDropdown FieldType = "dropdown"
	FieldTypeCheckbox FieldType = "checkbox"
)

// ValidFieldTypes enumerates every type the engine understands.
var ValidFieldTypes = []FieldType{
	FieldTypeText,
	FieldTypeDate,
	FieldTypeDatetime,
	FieldTypeLocation,
	FieldTypeDropdown,
	FieldTypeCheckbox,
}

// IsValid reports whether t is one of the closed set of field types.
func (t FieldType) IsValid() bool {
	for _, v := range ValidFieldTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Field is a single input in a form definition.
//
// Required and Conditional are derived from the raw `required` value:
// bool true or string "true" makes the field required, the string
// "conditional" marks it conditional (excluded from the required set;
// its inclusion is decided at runtime, not by the engine).
type Field struct {
	ID          string
	Type        FieldType
	Required    bool
	Conditional bool
	Prompt      string
	Step        int
	Options     []string
	VisibleIf   *VisibilityRule
}

// Tool is a data-fetch tool the host application can execute on behalf
// of the LLM (e.g. to load dropdown options).
type Tool struct {
	Name    string `yaml:"name"`
	Purpose string `yaml:"purpose"`
}
