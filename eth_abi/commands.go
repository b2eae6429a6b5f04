package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/purelabio/ethabi"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var selectorCmd = &cobra.Command{
	Use:   "selector <signature>",
	Short: "Print the 4-byte selector of a function signature, or the topic of an event",
	Long: `Prints the 4-byte selector of a function signature such as
"transfer(address,uint256)". With "-event", prints the 32-byte event topic.

Types in the signature are parsed and printed in canonical form, so aliases
such as "uint" are accepted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sig, err := canonicalSignature(args[0])
		if err != nil {
			return err
		}

		isEvent, _ := cmd.Flags().GetBool("event")
		if isEvent {
			fmt.Fprintf(cmd.OutOrStdout(), "%v\t%v\n", ethabi.EventTopic(sig), sig)
			return nil
		}
		selector := ethabi.FunctionSelector(sig)
		fmt.Fprintf(cmd.OutOrStdout(), "%v\t%v\n", ethabi.HexString(selector[:]), sig)
		return nil
	},
}

var encodeCmd = &cobra.Command{
	Use:   "encode <abiFile> <function> [jsonArgs]",
	Short: "Encode a contract function call",
	Long: `Encodes a call to a contract function, choosing among overloads by the
given arguments. Positional arguments are a JSON array. Keyword arguments are a
JSON object given via "-kwargs". Use "-" as the ABI file to read from stdin.

Use the names "fallback()" and "receive()" for the special functions.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		abi, err := readAbi(args[0])
		if err != nil {
			return err
		}

		var positional []interface{}
		if len(args) > 2 {
			err = decodeJsonArg(args[2], &positional)
			if err != nil {
				return errors.WithMessage(err, `failed to decode arguments`)
			}
		}

		var kwargs map[string]interface{}
		kwargsJson, _ := cmd.Flags().GetString("kwargs")
		if kwargsJson != "" {
			err = decodeJsonArg(kwargsJson, &kwargs)
			if err != nil {
				return errors.WithMessage(err, `failed to decode keyword arguments`)
			}
		}

		dataHex, _ := cmd.Flags().GetString("data")
		data, err := ethabi.ParseHexBytes(dataHex)
		if err != nil {
			return errors.WithMessage(err, `failed to decode "-data"`)
		}

		var out []byte
		if len(data) > 0 {
			out, err = codec().EncodeWithData(abi, args[1], data, positional, kwargs)
		} else {
			out, err = codec().EncodeCall(abi, args[1], positional, kwargs)
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), ethabi.HexString(out))
		return nil
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode <abiFile> <function> <hexData>",
	Short: "Decode the return data of a contract function",
	Long: `Decodes the return data of a contract function and prints it as JSON.
Since return data doesn't identify the overload, the function must have a
single overload, or its input arguments must be given via "-args" to pick one.
With "-named", outputs are keyed by name.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		abi, err := readAbi(args[0])
		if err != nil {
			return err
		}

		var inputs []interface{}
		argsJson, _ := cmd.Flags().GetString("args")
		if argsJson != "" {
			err = decodeJsonArg(argsJson, &inputs)
			if err != nil {
				return errors.WithMessage(err, `failed to decode "-args"`)
			}
		}

		data, err := ethabi.ParseHexBytes(args[2])
		if err != nil {
			return errors.WithMessage(err, `failed to decode output data`)
		}

		abiCodec := codec()

		var fn ethabi.AbiFunction
		if argsJson == "" {
			fns := abi.Functions(args[1])
			if len(fns) == 0 {
				return errors.Wrapf(ethabi.ErrNoMatchingFunction, `no function named %q`, args[1])
			}
			if len(fns) != 1 {
				return errors.Wrapf(ethabi.ErrAmbiguousFunction,
					`%q has %v overloads; use "-args" to pick one`, args[1], len(fns))
			}
			fn = fns[0]
		} else {
			fn, err = abiCodec.ResolveFunction(abi, args[1], inputs, nil)
			if err != nil {
				return err
			}
		}

		values, err := abiCodec.DecodeOutput(fn, data)
		if err != nil {
			return err
		}

		values, err = ethabi.MapAbiData(context.Background(), ethabi.AbiParamTypes(fn.Outputs), values,
			ethabi.NormalizeChecksumAddress, displayBytes)
		if err != nil {
			return err
		}

		named, _ := cmd.Flags().GetBool("named")
		if named {
			tree, err := ethabi.NamedTree(fn.Outputs, values)
			if err != nil {
				return err
			}
			return printJson(cmd, tree)
		}
		return printJson(cmd, values)
	},
}

var decodeLogCmd = &cobra.Command{
	Use:   "decode-log <abiFile> <event> [topics ...]",
	Short: "Decode an event log",
	Long: `Decodes an event log from its topics and data, and prints the arguments
as JSON keyed by name. For non-anonymous events, the first topic must be the
event topic. Indexed strings, bytes, arrays and tuples are printed as hashes.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		abi, err := readAbi(args[0])
		if err != nil {
			return err
		}

		event, ok := abi.MaybeEvent(args[1])
		if !ok {
			return errors.Errorf(`event %q is missing from the ABI`, args[1])
		}

		topics := make([]ethabi.Word, 0, len(args)-2)
		for _, str := range args[2:] {
			topic, err := ethabi.ParseWord(str)
			if err != nil {
				return errors.WithMessagef(err, `failed to decode topic %q`, str)
			}
			topics = append(topics, topic)
		}

		dataHex, _ := cmd.Flags().GetString("data")
		data, err := ethabi.ParseHexBytes(dataHex)
		if err != nil {
			return errors.WithMessage(err, `failed to decode "-data"`)
		}

		named, _, err := codec().DecodeLog(event, topics, data)
		if err != nil {
			return err
		}

		out, err := ethabi.WalkTree(named, func(value interface{}) (interface{}, error) {
			if buf, ok := value.([]byte); ok {
				return ethabi.HexBytes(buf), nil
			}
			return value, nil
		})
		if err != nil {
			return err
		}
		return printJson(cmd, out)
	},
}

func init() {
	selectorCmd.Flags().Bool("event", false, "print the event topic rather than the function selector")

	encodeCmd.Flags().String("kwargs", "", "keyword arguments as a JSON object")
	encodeCmd.Flags().String("data", "", "hex data to prepend instead of the selector")

	decodeCmd.Flags().String("args", "", "input arguments as a JSON array, to pick among overloads")
	decodeCmd.Flags().Bool("named", false, "key outputs by name")

	decodeLogCmd.Flags().String("data", "", "hex-encoded log data")
}

/*
Accepts "name(type,...)" with any valid types, and prints it with canonical
types. Whitespace around types is ignored.
*/
func canonicalSignature(sig string) (string, error) {
	open := strings.IndexByte(sig, '(')
	if open <= 0 || !strings.HasSuffix(sig, ")") {
		return "", errors.Wrapf(ethabi.ErrGrammar, `expected a signature like "name(type,...)", got %q`, sig)
	}

	tuple, err := ethabi.ParseAbiType(sig[open:])
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(sig[:open]) + tuple.String(), nil
}

func readAbi(path string) (ethabi.Abi, error) {
	var input []byte
	var err error
	if path == "-" {
		input, err = ioutil.ReadAll(os.Stdin)
	} else {
		input, err = ioutil.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, `failed to read ABI from %q`, path)
	}

	var abi ethabi.Abi
	err = json.Unmarshal(input, &abi)
	if err != nil {
		return nil, errors.WithMessagef(err, `failed to decode ABI from %q`, path)
	}

	logger.Debug("loaded ABI", zap.String("path", path), zap.Int("entries", len(abi)))
	return abi, nil
}

// Numbers are kept as "json.Number" to preserve precision.
func decodeJsonArg(input string, out interface{}) error {
	decoder := json.NewDecoder(strings.NewReader(input))
	decoder.UseNumber()
	return errors.WithStack(decoder.Decode(out))
}

func displayBytes(_ context.Context, atype ethabi.AbiType, value interface{}) (interface{}, error) {
	if buf, ok := value.([]byte); ok {
		return ethabi.HexBytes(buf), nil
	}
	return value, nil
}

func printJson(cmd *cobra.Command, value interface{}) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	err := encoder.Encode(value)
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = cmd.OutOrStdout().Write(buf.Bytes())
	return errors.WithStack(err)
}
