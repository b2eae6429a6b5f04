package ethabi

import (
	"math/big"
	"reflect"

	"github.com/pkg/errors"
)

var (
	bigIntType    = reflect.TypeOf(big.Int{})
	bigIntPtrType = reflect.TypeOf((*big.Int)(nil))
)

/*
Same as "DecodeOutput", but stores the decoded values into the provided
outputs, one per declared output, in order. Outputs must be pointers; a nil
output skips the corresponding value. See "AssignValue" for the accepted
destination types.
*/
func (self Codec) DecodeOutputInto(fn AbiFunction, data []byte, outs ...interface{}) error {
	values, err := self.DecodeOutput(fn, data)
	if err != nil {
		return err
	}
	return errors.WithMessagef(assignParams(fn.Outputs, values, outs), `in output of %v`, fn.Signature())
}

/*
Same as "DecodeLogEntry", but stores the decoded parameters into the provided
outputs, one per event parameter, in declared order. Hashed indexed
parameters are available only as Word, and can be stored into Word, Hash or
[32]byte.
*/
func (self Codec) DecodeLogInto(event AbiEvent, entry LogEntry, outs ...interface{}) error {
	_, values, err := self.DecodeLog(event, entry.Topics, entry.Data)
	if err != nil {
		return err
	}
	return errors.WithMessagef(assignParams(event.Inputs, values, outs), `in event %v`, event.Signature())
}

func assignParams(params []AbiParam, values []interface{}, outs []interface{}) error {
	if len(outs) != len(params) {
		return errors.Wrapf(ErrLengthMismatch, `expected %v outputs, got %v`, len(params), len(outs))
	}

	for i, param := range params {
		if outs[i] == nil {
			continue
		}
		err := AssignValue(param.AbiType, values[i], outs[i])
		if err != nil {
			return errors.WithMessagef(err, `in parameter %v %q`, i, param.Name)
		}
	}
	return nil
}

/*
Stores a value decoded by "Codec.DecodeValues" into a Go destination, which
must be a non-nil pointer. Nil pointers inside the destination are allocated.

	integers  *big.Int, big.Int, HexInt, or Go integers, which fail
	          with "ErrValueOutOfRange" when the value doesn't fit
	address   Address or [20]byte
	bytesN    []byte, or a byte array of length exactly N
	bytes     []byte or HexBytes
	arrays    slices, or Go arrays of the same length
	tuples    structs, matching fields like "AlignValue", or slices

Destinations of interface type receive the value as-is. Other mismatches fail
with "ErrValidation".
*/
func AssignValue(atype AbiType, value interface{}, out interface{}) error {
	val := reflect.ValueOf(out)
	if !val.IsValid() || val.Kind() != reflect.Ptr || val.IsNil() {
		return errors.Wrapf(ErrValidation, `can't assign %v into non-pointer or nil %T`, atype, out)
	}
	return assignReflect(atype, value, val.Elem())
}

func assignReflect(atype AbiType, value interface{}, dst reflect.Value) error {
	if dst.Type() == bigIntPtrType {
		num, ok := value.(*big.Int)
		if !ok {
			return assignMismatch(atype, value, dst)
		}
		dst.Set(reflect.ValueOf(new(big.Int).Set(num)))
		return nil
	}

	if dst.Kind() == reflect.Ptr {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return assignReflect(atype, value, dst.Elem())
	}

	src := reflect.ValueOf(value)
	if !src.IsValid() {
		return assignMismatch(atype, value, dst)
	}

	if dst.Kind() == reflect.Interface && src.Type().AssignableTo(dst.Type()) {
		dst.Set(src)
		return nil
	}

	// Address, Word, and named types over them.
	if src.Kind() == reflect.Array && src.Type().ConvertibleTo(dst.Type()) {
		dst.Set(src.Convert(dst.Type()))
		return nil
	}

	switch value := value.(type) {
	case *big.Int:
		return assignInt(atype, value, dst)

	case bool:
		if dst.Kind() != reflect.Bool {
			return assignMismatch(atype, value, dst)
		}
		dst.SetBool(value)
		return nil

	case string:
		if dst.Kind() != reflect.String {
			return assignMismatch(atype, value, dst)
		}
		dst.SetString(value)
		return nil

	case []byte:
		return assignBytes(atype, value, dst)

	case []interface{}:
		return assignSequence(atype, value, dst)

	default:
		return assignMismatch(atype, value, dst)
	}
}

func assignInt(atype AbiType, num *big.Int, dst reflect.Value) error {
	switch dst.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if num.Sign() < 0 || !num.IsUint64() || dst.OverflowUint(num.Uint64()) {
			return errors.Wrapf(ErrValueOutOfRange, `%v overflows %v`, num, dst.Type())
		}
		dst.SetUint(num.Uint64())
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if !num.IsInt64() || dst.OverflowInt(num.Int64()) {
			return errors.Wrapf(ErrValueOutOfRange, `%v overflows %v`, num, dst.Type())
		}
		dst.SetInt(num.Int64())
		return nil

	case reflect.Struct:
		if bigIntType.ConvertibleTo(dst.Type()) {
			dst.Set(reflect.ValueOf(*new(big.Int).Set(num)).Convert(dst.Type()))
			return nil
		}
	}
	return assignMismatch(atype, num, dst)
}

func assignBytes(atype AbiType, buf []byte, dst reflect.Value) error {
	if (dst.Kind() != reflect.Slice && dst.Kind() != reflect.Array) || dst.Type().Elem().Kind() != reflect.Uint8 {
		return assignMismatch(atype, buf, dst)
	}

	switch dst.Kind() {
	case reflect.Slice:
		out := reflect.MakeSlice(dst.Type(), len(buf), len(buf))
		reflect.Copy(out, reflect.ValueOf(buf))
		dst.Set(out)
		return nil

	case reflect.Array:
		if dst.Len() != len(buf) {
			return errors.Wrapf(ErrLengthMismatch, `can't assign %v of length %v into %v`, atype, len(buf), dst.Type())
		}
		reflect.Copy(dst, reflect.ValueOf(buf))
		return nil

	default:
		return assignMismatch(atype, buf, dst)
	}
}

func assignSequence(atype AbiType, elems []interface{}, dst reflect.Value) error {
	elemType := func(i int) AbiType {
		if atype.Kind == AbiKindTuple {
			return atype.Components[i].Type
		}
		return *atype.Elem
	}

	switch dst.Kind() {
	case reflect.Struct:
		if atype.Kind != AbiKindTuple {
			return assignMismatch(atype, elems, dst)
		}
		for i, comp := range atype.Components {
			index := componentField(dst.Type(), comp.Name)
			if index < 0 {
				continue
			}
			err := assignReflect(comp.Type, elems[i], dst.Field(index))
			if err != nil {
				return errors.WithMessagef(err, `in component %v %q`, i, comp.Name)
			}
		}
		return nil

	case reflect.Slice:
		out := reflect.MakeSlice(dst.Type(), len(elems), len(elems))
		for i, elem := range elems {
			err := assignReflect(elemType(i), elem, out.Index(i))
			if err != nil {
				return errors.WithMessagef(err, `in element %v`, i)
			}
		}
		dst.Set(out)
		return nil

	case reflect.Array:
		if dst.Len() != len(elems) {
			return errors.Wrapf(ErrLengthMismatch, `can't assign %v of length %v into %v`, atype, len(elems), dst.Type())
		}
		for i, elem := range elems {
			err := assignReflect(elemType(i), elem, dst.Index(i))
			if err != nil {
				return errors.WithMessagef(err, `in element %v`, i)
			}
		}
		return nil

	default:
		return assignMismatch(atype, elems, dst)
	}
}

func assignMismatch(atype AbiType, value interface{}, dst reflect.Value) error {
	return errors.Wrapf(ErrValidation, `can't assign %v value of type %T into %v`, atype, value, dst.Type())
}
