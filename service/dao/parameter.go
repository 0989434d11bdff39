package dao

// Parameter narrows a List call, matching a named record field against one
// or more values.
type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter creates a list parameter. A single value matches exactly,
// multiple values match any of them.
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}
