package dao

// Parameter is an optional List filter criterion.
type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter creates a filter parameter, a single value stays scalar.
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}
