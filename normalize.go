package ethabi

import (
	"context"
	"reflect"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

/*
Transform applied to each leaf by "WalkTreeContext". May block, for example on
a remote lookup; the walker waits for each leaf before moving to the next.
*/
type LeafFunc func(ctx context.Context, value interface{}) (interface{}, error)

/*
Rebuilds a value tree, replacing each leaf with the result of the function.
Sequences (slices and arrays other than byte sequences) become []interface{},
maps with string keys become map[string]interface{}, everything else is a
leaf. Leaves are visited depth-first, left to right; map entries in key order.

A sequence or map that contains itself, directly or indirectly, is replaced by
nil at the point of recursion.
*/
func WalkTree(value interface{}, fun func(interface{}) (interface{}, error)) (interface{}, error) {
	return WalkTreeContext(context.Background(), value, func(_ context.Context, value interface{}) (interface{}, error) {
		return fun(value)
	})
}

/*
Same as "WalkTree", but the leaf transform takes a context. The context is
checked before each leaf; cancellation aborts the traversal with the context's
error.
*/
func WalkTreeContext(ctx context.Context, value interface{}, fun LeafFunc) (interface{}, error) {
	walker := treeWalker{fun: fun, visiting: map[containerId]struct{}{}}
	return walker.walk(ctx, value)
}

type treeWalker struct {
	fun      LeafFunc
	visiting map[containerId]struct{}
}

// Identity of a slice or map on the current traversal path.
type containerId struct {
	kind reflect.Kind
	ptr  uintptr
	len  int
}

func (self *treeWalker) walk(ctx context.Context, value interface{}) (interface{}, error) {
	val := reflect.ValueOf(value)

	switch {
	case isTreeSeq(val):
		id, ok := self.enter(val)
		if !ok {
			return nil, nil
		}
		defer self.leave(id)

		out := make([]interface{}, val.Len())
		for i := range out {
			elem, err := self.walk(ctx, val.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil

	case isTreeMap(val):
		id, ok := self.enter(val)
		if !ok {
			return nil, nil
		}
		defer self.leave(id)

		keys := val.MapKeys()
		sort.Slice(keys, func(a, b int) bool { return keys[a].String() < keys[b].String() })

		out := make(map[string]interface{}, len(keys))
		for _, key := range keys {
			elem, err := self.walk(ctx, val.MapIndex(key).Interface())
			if err != nil {
				return nil, err
			}
			out[key.String()] = elem
		}
		return out, nil

	default:
		err := ctx.Err()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return self.fun(ctx, value)
	}
}

// Arrays are values in Go and can't contain themselves.
func (self *treeWalker) enter(val reflect.Value) (containerId, bool) {
	if val.Kind() == reflect.Array {
		return containerId{}, true
	}
	id := containerId{kind: val.Kind(), ptr: val.Pointer(), len: val.Len()}
	if id.ptr == 0 {
		return containerId{}, true
	}
	if _, ok := self.visiting[id]; ok {
		return id, false
	}
	self.visiting[id] = struct{}{}
	return id, true
}

func (self *treeWalker) leave(id containerId) {
	if id.ptr != 0 {
		delete(self.visiting, id)
	}
}

func isTreeSeq(val reflect.Value) bool {
	return val.IsValid() &&
		(val.Kind() == reflect.Slice || val.Kind() == reflect.Array) &&
		!isByteSeq(val.Type())
}

func isTreeMap(val reflect.Value) bool {
	return val.IsValid() && val.Kind() == reflect.Map && val.Type().Key().Kind() == reflect.String
}

/*
Leaf of the tree built by "MapAbiData": a value together with its ABI type.
*/
type AbiTypedValue struct {
	Type  AbiType
	Value interface{}
}

/*
Transform applied by "MapAbiData" to each value of a single-word, "bytes" or
"string" type. Normalizers that don't apply to a type return the value as-is.
*/
type AbiNormalizer func(ctx context.Context, atype AbiType, value interface{}) (interface{}, error)

/*
Applies normalizers to values according to their ABI types. Arrays and tuples
are descended into, so each normalizer sees only elementary values. Normalizers
run one after another, each over the whole tree, in the order given.

The result has the same shape as the input, with tuples as []interface{}.
*/
func MapAbiData(ctx context.Context, types []AbiType, values []interface{}, normalizers ...AbiNormalizer) ([]interface{}, error) {
	if len(types) != len(values) {
		return nil, errors.Wrapf(ErrLengthMismatch, `expected %v values, got %v`, len(types), len(values))
	}

	tree := make([]interface{}, len(types))
	for i, atype := range types {
		node, err := abiDataTree(atype, values[i])
		if err != nil {
			return nil, errors.WithMessagef(err, `in value %v`, i)
		}
		tree[i] = node
	}

	var out interface{} = tree
	for _, norm := range normalizers {
		norm := norm
		var err error
		out, err = WalkTreeContext(ctx, out, func(ctx context.Context, leaf interface{}) (interface{}, error) {
			typed := leaf.(AbiTypedValue)
			val, err := norm(ctx, typed.Type, typed.Value)
			if err != nil {
				return nil, errors.WithMessagef(err, `failed to normalize %v`, typed.Type)
			}
			return AbiTypedValue{Type: typed.Type, Value: val}, nil
		})
		if err != nil {
			return nil, err
		}
	}

	out, err := WalkTree(out, func(leaf interface{}) (interface{}, error) {
		return leaf.(AbiTypedValue).Value, nil
	})
	if err != nil {
		return nil, err
	}
	return out.([]interface{}), nil
}

func abiDataTree(atype AbiType, value interface{}) (interface{}, error) {
	var elems []interface{}
	var types []AbiType
	var err error

	switch atype.Kind {
	case AbiKindFixedArray, AbiKindArray:
		elems, err = toSequence(atype, value)
		types = repeatType(*atype.Elem, len(elems))
	case AbiKindTuple:
		elems, err = alignTuple(atype, value)
		types = atype.ComponentTypes()
	default:
		return AbiTypedValue{Type: atype, Value: value}, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]interface{}, len(elems))
	for i, elem := range elems {
		out[i], err = abiDataTree(types[i], elem)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

/*
Replaces addresses with their EIP-55 checksum strings. Typically applied to
decoded output for display.
*/
func NormalizeChecksumAddress(_ context.Context, atype AbiType, value interface{}) (interface{}, error) {
	if atype.Kind != AbiKindAddress {
		return value, nil
	}
	addr, err := toAddress(value)
	if err != nil {
		return nil, err
	}
	return addr.Checksum(), nil
}

/*
Converts "0x" hex strings given for "bytes" and "bytesN" into byte slices.
Applying this to call arguments has the same effect as lenient mode for those
types, but the hex length is not checked against N here.
*/
func NormalizeHexBytes(_ context.Context, atype AbiType, value interface{}) (interface{}, error) {
	if atype.Kind != AbiKindBytes && atype.Kind != AbiKindFixedBytes {
		return value, nil
	}
	str, ok := value.(string)
	if !ok || !has0x(stringToBytesUnsafe(str)) {
		return value, nil
	}
	out, err := HexDecode(stringToBytesUnsafe(str))
	if err != nil {
		return nil, errors.Wrapf(ErrValidation, `malformed hex %q for %v: %v`, str, atype, err)
	}
	return out, nil
}

/*
Resolves human-readable names into addresses, for example via a naming
service contract. Implementations typically perform network calls and should
honor the context.
*/
type NameResolver interface {
	ResolveName(ctx context.Context, name string) (Address, error)
}

/*
Returns a normalizer that replaces names given for "address" values, such as
"alice.eth", with resolved addresses. Hex strings and other values are left
as-is.
*/
func NameResolverNormalizer(resolver NameResolver) AbiNormalizer {
	return func(ctx context.Context, atype AbiType, value interface{}) (interface{}, error) {
		if atype.Kind != AbiKindAddress {
			return value, nil
		}
		name, ok := value.(string)
		if !ok || has0x(stringToBytesUnsafe(name)) || !strings.Contains(name, ".") {
			return value, nil
		}

		addr, err := resolver.ResolveName(ctx, name)
		if err != nil {
			return nil, errors.WithMessagef(err, `failed to resolve %q`, name)
		}
		if addr == ZeroAddress {
			return nil, errors.Wrapf(ErrValidation, `name %q doesn't resolve to an address`, name)
		}
		return addr, nil
	}
}
