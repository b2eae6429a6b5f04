package ethabi

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

/*
Identifiers of the fallback and receive functions. Passing either to
"ResolveFunction" or "EncodeCall" skips name-based filtering and selects the
entry of the corresponding type. Neither accepts arguments. No declared function
can have these names.
*/
const (
	FallbackFn = "fallback()"
	ReceiveFn  = "receive()"
)

/*
Selects the function invoked by a call with the given name and arguments.
Candidates are narrowed in stages:

	1. same name
	2. as many inputs as positional and keyword arguments combined
	3. every keyword names an input
	4. arguments encode successfully in this codec's mode

Fails with "ErrNoMatchingFunction" when nothing survives and with
"ErrAmbiguousFunction" when more than one candidate does. In lenient mode, a
tie is broken in favor of the single candidate that also encodes strictly, if
there is exactly one.
*/
func (self Codec) ResolveFunction(abi Abi, name string, args []interface{}, kwargs map[string]interface{}) (AbiFunction, error) {
	log := self.logger().With(zap.String("function", name), zap.Bool("strict", self.Strict))

	switch name {
	case FallbackFn, ReceiveFn:
		return resolveSpecialFunction(abi, name, args, kwargs)
	}

	candidates := abi.Functions(name)
	log.Debug("candidates by name", zap.Int("count", len(candidates)))

	arity := len(args) + len(kwargs)
	byArity := filterFunctions(candidates, func(fn AbiFunction) bool {
		return len(fn.Inputs) == arity
	})
	log.Debug("candidates by arity", zap.Int("arity", arity), zap.Int("count", len(byArity)))

	byNames := filterFunctions(byArity, func(fn AbiFunction) bool {
		for key := range kwargs {
			if len(paramIndexes(fn.Inputs, key)) == 0 {
				return false
			}
		}
		return true
	})
	log.Debug("candidates by keyword names", zap.Int("count", len(byNames)))

	byEncoding := filterFunctions(byNames, func(fn AbiFunction) bool {
		_, err := self.encodeArgs(nil, fn.Inputs, args, kwargs)
		if err != nil {
			log.Debug("candidate rejected", zap.String("signature", fn.Signature()), zap.Error(err))
		}
		return err == nil
	})
	log.Debug("candidates by encoding", zap.Int("count", len(byEncoding)))

	switch len(byEncoding) {
	case 0:
		return AbiFunction{}, errors.Wrapf(ErrNoMatchingFunction,
			`could not identify the intended function with name %q and arguments %v; candidates: %v`,
			name, describeArgs(args, kwargs), describeSignatures(candidates))
	case 1:
		return byEncoding[0], nil
	}

	if !self.Strict {
		strict := Codec{Strict: true, Logger: self.Logger}
		byStrictEncoding := filterFunctions(byEncoding, func(fn AbiFunction) bool {
			_, err := strict.encodeArgs(nil, fn.Inputs, args, kwargs)
			return err == nil
		})
		if len(byStrictEncoding) == 1 {
			log.Debug("tie broken by strict encoding", zap.String("signature", byStrictEncoding[0].Signature()))
			return byStrictEncoding[0], nil
		}
	}

	return AbiFunction{}, errors.Wrapf(ErrAmbiguousFunction,
		`arguments %v can be encoded for multiple functions: %v`,
		describeArgs(args, kwargs), describeSignatures(byEncoding))
}

func resolveSpecialFunction(abi Abi, name string, args []interface{}, kwargs map[string]interface{}) (AbiFunction, error) {
	var fn AbiFunction
	var ok bool
	if name == FallbackFn {
		fn, ok = abi.Fallback()
	} else {
		fn, ok = abi.Receive()
	}

	if !ok {
		return fn, errors.Wrapf(ErrNoMatchingFunction, `ABI doesn't declare a %v function`, strings.TrimSuffix(name, "()"))
	}
	if len(args)+len(kwargs) > 0 {
		return fn, errors.Wrapf(ErrTooManyArguments, `%v doesn't accept arguments`, name)
	}
	return fn, nil
}

func filterFunctions(funcs []AbiFunction, fun func(AbiFunction) bool) []AbiFunction {
	var out []AbiFunction
	for _, fn := range funcs {
		if fun(fn) {
			out = append(out, fn)
		}
	}
	return out
}

func describeSignatures(funcs []AbiFunction) string {
	if len(funcs) == 0 {
		return "none"
	}
	sigs := make([]string, len(funcs))
	for i, fn := range funcs {
		sigs[i] = fn.Signature()
	}
	return strings.Join(sigs, ", ")
}

// Describes arguments by their Go types.
func describeArgs(args []interface{}, kwargs map[string]interface{}) string {
	var parts []string
	for _, arg := range args {
		parts = append(parts, fmt.Sprintf("%T", arg))
	}
	for _, key := range sortedKeys(kwargs) {
		parts = append(parts, fmt.Sprintf("%v=%T", key, kwargs[key]))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
