package prompt

import (
	"fmt"
	"reflect"

	"github.com/viant/structology/conv"
	"github.com/viant/toolbox"
	"github.com/viant/x"
)

// Definition declares a single input collected when an approval proceeds.
// Value rendering is left to the web layer, the definition only carries the
// name, the declared data type and an optional default.
type Definition struct {
	Name        string      `json:"name"`
	DataType    string      `json:"dataType,omitempty"` // defaults to string
	Default     interface{} `json:"default,omitempty"`
	Description string      `json:"description,omitempty"`
}

// NewDefinition creates a parameter definition, dataType defaults to string.
func NewDefinition(name, dataType string) *Definition {
	return &Definition{Name: name, DataType: dataType}
}

// Types registers the data types a definition may declare.
type Types struct {
	x.Registry
}

// NewTypes creates a type registry pre-populated with the scalar built-ins.
func NewTypes(options ...x.RegistryOption) *Types {
	ret := &Types{Registry: *x.NewRegistry(options...)}
	ret.Register(x.NewType(reflect.TypeOf(""), x.WithName("string")))
	ret.Register(x.NewType(reflect.TypeOf(0), x.WithName("int")))
	ret.Register(x.NewType(reflect.TypeOf(0.0), x.WithName("float64")))
	ret.Register(x.NewType(reflect.TypeOf(false), x.WithName("bool")))
	ret.Register(x.NewType(reflect.TypeOf([]string{}), x.WithName("[]string")))
	return ret
}

// Converter turns raw submitted values into the declared parameter types.
type Converter struct {
	types     *Types
	converter *conv.Converter
}

// NewConverter creates a converter backed by the supplied type registry, a
// nil registry falls back to the built-ins.
func NewConverter(types *Types) *Converter {
	if types == nil {
		types = NewTypes()
	}
	options := conv.DefaultOptions()
	options.ClonePointerData = true
	options.IgnoreUnmapped = true
	return &Converter{types: types, converter: conv.NewConverter(options)}
}

// Convert coerces raw into the definition's declared type. Scalar built-ins
// use direct coercion, registered composite types go through the structural
// converter.
func (c *Converter) Convert(definition *Definition, raw interface{}) (interface{}, error) {
	if raw == nil {
		return definition.Default, nil
	}
	switch definition.DataType {
	case "", "string":
		return toolbox.AsString(raw), nil
	case "bool":
		return toolbox.AsBoolean(raw), nil
	case "int":
		return toolbox.AsInt(raw), nil
	case "float64":
		return toolbox.AsFloat(raw), nil
	}
	aType := c.types.Lookup(definition.DataType)
	if aType == nil {
		return nil, fmt.Errorf("prompt: type %v not registered for parameter %v", definition.DataType, definition.Name)
	}
	instance := reflect.New(aType.Type).Interface()
	if err := c.converter.Convert(raw, instance); err != nil {
		return nil, fmt.Errorf("prompt: failed to convert parameter %v: %w", definition.Name, err)
	}
	return reflect.ValueOf(instance).Elem().Interface(), nil
}
