package ethabi

import (
	"reflect"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

/*
Marker for a parameter or tuple component that received no value during
alignment. Encoding it fails with "ErrValidation"; absent values are never
silently defaulted.
*/
type MissingValue struct{}

// The single value of "MissingValue".
var Missing = MissingValue{}

func isMissing(value interface{}) bool {
	_, ok := value.(MissingValue)
	return ok
}

/*
Positions call arguments to match a parameter list. Positional arguments fill
the leading parameters, keyword arguments fill the parameters with matching
names, and anything left becomes "Missing".

Checks, in this order:

	ErrTooManyArguments   more positional and keyword arguments than parameters
	ErrDuplicateArgument  keyword for a parameter already filled positionally,
	                      or a keyword matching several parameters
	ErrUnknownArgument    keyword not matching any parameter

Tuple values are aligned recursively, see "AlignValue".
*/
func AlignArgs(params []AbiParam, args []interface{}, kwargs map[string]interface{}) ([]interface{}, error) {
	if len(args)+len(kwargs) > len(params) {
		return nil, errors.Wrapf(ErrTooManyArguments, `expected at most %v arguments, got %v positional and %v keyword`,
			len(params), len(args), len(kwargs))
	}

	names := sortedKeys(kwargs)

	for _, name := range names {
		indexes := paramIndexes(params, name)
		if len(indexes) > 1 {
			return nil, errors.Wrapf(ErrDuplicateArgument, `keyword %q matches %v parameters`, name, len(indexes))
		}
		if len(indexes) == 1 && indexes[0] < len(args) {
			return nil, errors.Wrapf(ErrDuplicateArgument, `%q given both positionally and by keyword`, name)
		}
	}

	for _, name := range names {
		if len(paramIndexes(params, name)) == 0 {
			return nil, errors.Wrapf(ErrUnknownArgument, `no parameter named %q`, name)
		}
	}

	out := make([]interface{}, len(params))
	for i := range out {
		out[i] = Missing
	}
	copy(out, args)
	for _, name := range names {
		out[paramIndexes(params, name)[0]] = kwargs[name]
	}

	for i, param := range params {
		val, err := AlignValue(param.AbiType, out[i])
		if err != nil {
			return nil, errors.WithMessagef(err, `in argument %v %q`, i, param.Name)
		}
		out[i] = val
	}
	return out, nil
}

/*
Aligns a single value to its type. Tuples given as maps or structs become
ordered sequences of component values, recursively, including tuples nested in
arrays. Other values are returned as-is.

	map    keys match component names; unmatched components become "Missing",
	       unknown keys fail with "ErrUnknownArgument"
	struct fields match component names by the "abi" tag or, without a tag,
	       case-insensitively by field name; other fields are ignored
	slice  must have exactly one element per component, or fails with
	       "ErrLengthMismatch"
*/
func AlignValue(atype AbiType, value interface{}) (interface{}, error) {
	if isMissing(value) || !atype.hasTuple() {
		return value, nil
	}

	switch atype.Kind {
	case AbiKindTuple:
		return alignTuple(atype, value)

	case AbiKindFixedArray, AbiKindArray:
		elems, err := toSequence(atype, value)
		if err != nil {
			return nil, err
		}
		out := make([]interface{}, len(elems))
		for i, elem := range elems {
			out[i], err = AlignValue(*atype.Elem, elem)
			if err != nil {
				return nil, errors.WithMessagef(err, `in element %v`, i)
			}
		}
		return out, nil

	default:
		return value, nil
	}
}

func alignTuple(atype AbiType, value interface{}) ([]interface{}, error) {
	val := reflect.ValueOf(value)
	for val.IsValid() && val.Kind() == reflect.Ptr && !val.IsNil() {
		val = val.Elem()
	}
	if !val.IsValid() {
		return nil, errors.Wrapf(ErrValidation, `%v expects a tuple, got %T`, atype, value)
	}

	var out []interface{}
	var err error

	switch val.Kind() {
	case reflect.Map:
		out, err = alignTupleMap(atype, val)
	case reflect.Struct:
		out = alignTupleStruct(atype, val)
	case reflect.Slice, reflect.Array:
		if val.Len() != len(atype.Components) {
			return nil, errors.Wrapf(ErrLengthMismatch, `%v has %v components, got %v values`,
				atype, len(atype.Components), val.Len())
		}
		out = make([]interface{}, val.Len())
		for i := range out {
			out[i] = val.Index(i).Interface()
		}
	default:
		return nil, errors.Wrapf(ErrValidation, `%v expects a tuple, got %T`, atype, value)
	}
	if err != nil {
		return nil, err
	}

	for i, comp := range atype.Components {
		out[i], err = AlignValue(comp.Type, out[i])
		if err != nil {
			return nil, errors.WithMessagef(err, `in component %v %q`, i, comp.Name)
		}
	}
	return out, nil
}

func alignTupleMap(atype AbiType, val reflect.Value) ([]interface{}, error) {
	if val.Type().Key().Kind() != reflect.String {
		return nil, errors.Wrapf(ErrValidation, `%v expects a map with string keys, got %v`, atype, val.Type())
	}

	out := make([]interface{}, len(atype.Components))
	for i := range out {
		out[i] = Missing
	}

	keys := make([]string, 0, val.Len())
	for _, key := range val.MapKeys() {
		keys = append(keys, key.String())
	}
	sort.Strings(keys)

	for _, key := range keys {
		indexes := componentIndexes(atype.Components, key)
		switch len(indexes) {
		case 0:
			return nil, errors.Wrapf(ErrUnknownArgument, `%v has no component named %q`, atype, key)
		case 1:
			out[indexes[0]] = val.MapIndex(reflect.ValueOf(key).Convert(val.Type().Key())).Interface()
		default:
			return nil, errors.Wrapf(ErrDuplicateArgument, `key %q matches %v components of %v`, key, len(indexes), atype)
		}
	}
	return out, nil
}

func alignTupleStruct(atype AbiType, val reflect.Value) []interface{} {
	out := make([]interface{}, len(atype.Components))
	for i, comp := range atype.Components {
		out[i] = Missing
		if index := componentField(val.Type(), comp.Name); index >= 0 {
			out[i] = val.Field(index).Interface()
		}
	}
	return out
}

/*
Index of the struct field holding the tuple component with the given name, or
-1. Fields match by the "abi" tag or, without a tag, case-insensitively by
name. Unexported fields and fields tagged "-" never match.
*/
func componentField(typ reflect.Type, name string) int {
	if name == "" {
		return -1
	}

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := strings.Split(field.Tag.Get("abi"), ",")[0]
		if tag == "-" {
			continue
		}
		if tag == name || (tag == "" && strings.EqualFold(field.Name, name)) {
			return i
		}
	}
	return -1
}

func paramIndexes(params []AbiParam, name string) []int {
	var out []int
	for i, param := range params {
		if param.Name != "" && param.Name == name {
			out = append(out, i)
		}
	}
	return out
}

func componentIndexes(comps []AbiComponent, name string) []int {
	var out []int
	for i, comp := range comps {
		if comp.Name != "" && comp.Name == name {
			out = append(out, i)
		}
	}
	return out
}

func sortedKeys(dict map[string]interface{}) []string {
	out := make([]string, 0, len(dict))
	for key := range dict {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
