package ethabi

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

/*
Decoded event log. "Args" is keyed by parameter names (see "NamedTree"),
"Values" holds the same values in declared order. The remaining fields are
copied from the log entry as-is.
*/
type EventData struct {
	Event            string
	Args             map[string]interface{}
	Values           []interface{}
	Address          Address
	BlockHash        Hash
	BlockNumber      HexUint64
	TransactionHash  Hash
	TransactionIndex HexUint64
	LogIndex         HexUint64
}

/*
Decodes the parameters of an event from the topics and data of a log.

For non-anonymous events, topic 0 must match the event topic, or this fails
with "ErrTopicMismatch". The remaining topics hold the indexed parameters, one
each, in declared order. Indexed "string", "bytes", arrays and tuples are
stored in topics only as hashes, and decode as the opaque Word. The data holds
the non-indexed parameters, encoded as one sequence.

Returns the values keyed by name and in declared order.
*/
func (self Codec) DecodeLog(event AbiEvent, topics []Word, data []byte) (map[string]interface{}, []interface{}, error) {
	if !event.Anonymous {
		if len(topics) == 0 {
			return nil, nil, errors.Wrapf(ErrTopicMismatch, `log has no topics, expected event %v`, event.Signature())
		}
		if topics[0] != event.Topic {
			return nil, nil, errors.Wrapf(ErrTopicMismatch, `log topic %v doesn't match event %v with topic %v`,
				topics[0], event.Signature(), event.Topic)
		}
		topics = topics[1:]
	}

	err := validateEventNames(event)
	if err != nil {
		return nil, nil, err
	}

	indexed := event.IndexedInputs()
	if len(topics) != len(indexed) {
		return nil, nil, errors.Wrapf(ErrDecoding, `event %v has %v indexed parameters, log has %v topics for them`,
			event.Signature(), len(indexed), len(topics))
	}

	nonIndexed, err := self.DecodeValues(AbiParamTypes(event.NonIndexedInputs()), data)
	if err != nil {
		return nil, nil, errors.WithMessagef(err, `failed to decode data of event %v`, event.Signature())
	}

	values := make([]interface{}, len(event.Inputs))
	var topicIndex, dataIndex int

	for i, param := range event.Inputs {
		if !param.Indexed {
			values[i] = nonIndexed[dataIndex]
			dataIndex++
			continue
		}

		topic := topics[topicIndex]
		topicIndex++

		if isHashedInTopic(param.AbiType) {
			values[i] = topic
			continue
		}

		values[i], err = self.DecodeWord(param.AbiType, topic[:])
		if err != nil {
			return nil, nil, errors.WithMessagef(err, `failed to decode indexed parameter %v of event %v`,
				i, event.Signature())
		}
	}

	args, err := NamedTree(event.Inputs, values)
	if err != nil {
		return nil, nil, err
	}
	return args, values, nil
}

/*
Same as "DecodeLog", but takes a whole log entry, typically obtained via
"eth_getLogs" or a transaction receipt, and keeps its metadata.
*/
func (self Codec) DecodeLogEntry(event AbiEvent, entry LogEntry) (EventData, error) {
	args, values, err := self.DecodeLog(event, entry.Topics, entry.Data)
	if err != nil {
		return EventData{}, err
	}

	return EventData{
		Event:            event.Name,
		Args:             args,
		Values:           values,
		Address:          entry.Address,
		BlockHash:        entry.BlockHash,
		BlockNumber:      entry.BlockNumber,
		TransactionHash:  entry.TransactionHash,
		TransactionIndex: entry.TransactionIndex,
		LogIndex:         entry.LogIndex,
	}, nil
}

/*
Decodes every entry emitted by the given event, such as the logs of a
transaction receipt. Entries of other events, detected by topic 0, are skipped.
Any other failure aborts decoding.
*/
func (self Codec) DecodeLogs(event AbiEvent, entries []LogEntry) ([]EventData, error) {
	var out []EventData
	for i, entry := range entries {
		data, err := self.DecodeLogEntry(event, entry)
		if errors.Is(err, ErrTopicMismatch) {
			self.logger().Debug("skipping log of another event",
				zap.String("event", event.Name),
				zap.Int("index", i))
			continue
		}
		if err != nil {
			return nil, errors.WithMessagef(err, `failed to decode log %v`, i)
		}
		out = append(out, data)
	}
	return out, nil
}

/*
Alternatives for one indexed parameter in "EventTopics". A log matches if the
parameter equals any of them.
*/
type AnyOf []interface{}

/*
Builds log filter topics for an event. Filters correspond to the indexed
parameters in declared order: nil matches anything, "AnyOf" matches any of the
listed values, other values must match exactly. Missing trailing filters match
anything.

For non-anonymous events, the first position is the event topic. Trailing
wildcards are trimmed.
*/
func (self Codec) EventTopics(event AbiEvent, filters ...interface{}) ([][]Word, error) {
	indexed := event.IndexedInputs()
	if len(filters) > len(indexed) {
		return nil, errors.Wrapf(ErrTooManyArguments, `event %v has %v indexed parameters, got %v filters`,
			event.Signature(), len(indexed), len(filters))
	}

	var out [][]Word
	if !event.Anonymous {
		out = append(out, []Word{event.Topic})
	}

	for i, filter := range filters {
		param := indexed[i]

		if filter == nil {
			out = append(out, nil)
			continue
		}

		alternatives, ok := filter.(AnyOf)
		if !ok {
			alternatives = AnyOf{filter}
		}

		topics := make([]Word, len(alternatives))
		for j, value := range alternatives {
			topic, err := self.EncodeTopic(param.AbiType, value)
			if err != nil {
				return nil, errors.WithMessagef(err, `in filter for parameter %q of event %v`, param.Name, event.Signature())
			}
			topics[j] = topic
		}
		out = append(out, topics)
	}

	for len(out) > 0 && out[len(out)-1] == nil {
		out = out[:len(out)-1]
	}
	return out, nil
}

// Builds an "eth_getLogs" filter for the event emitted by the given contracts.
// See "EventTopics" for filters.
func (self Codec) EventLogFilter(event AbiEvent, addresses []Address, filters ...interface{}) (LogFilter, error) {
	topics, err := self.EventTopics(event, filters...)
	if err != nil {
		return LogFilter{}, err
	}
	return LogFilter{Address: addresses, Topics: topics}, nil
}

/*
Encodes a value as it appears in a log topic when the parameter is indexed.
Single-word types are ABI-encoded. "string" and "bytes" are hashed as raw
content. Arrays and tuples are hashed over the concatenation of their members,
each padded to 32 bytes, without lengths or offsets.
*/
func (self Codec) EncodeTopic(atype AbiType, value interface{}) (Word, error) {
	value, err := AlignValue(atype, value)
	if err != nil {
		return Word{}, err
	}

	switch atype.Kind {
	case AbiKindBytes:
		buf, _, err := self.toBytes(atype, value)
		if err != nil {
			return Word{}, err
		}
		return Word(Keccak256(buf)), nil

	case AbiKindString:
		buf, err := toText(atype, value)
		if err != nil {
			return Word{}, err
		}
		return Word(Keccak256(buf)), nil

	case AbiKindFixedArray, AbiKindArray, AbiKindTuple:
		buf, err := self.appendInPlace(nil, atype, value)
		if err != nil {
			return Word{}, err
		}
		return Word(Keccak256(buf)), nil

	default:
		return self.EncodeWord(atype, value)
	}
}

func (self Codec) appendInPlace(out []byte, atype AbiType, value interface{}) ([]byte, error) {
	if isMissing(value) {
		return nil, errors.Wrapf(ErrValidation, `missing value for %v`, atype)
	}

	switch atype.Kind {
	case AbiKindBytes:
		buf, _, err := self.toBytes(atype, value)
		if err != nil {
			return nil, err
		}
		return appendRightPadded(out, buf), nil

	case AbiKindString:
		buf, err := toText(atype, value)
		if err != nil {
			return nil, err
		}
		return appendRightPadded(out, buf), nil

	case AbiKindFixedArray, AbiKindArray, AbiKindTuple:
		var elems []interface{}
		var err error
		if atype.Kind == AbiKindTuple {
			elems, err = alignTuple(atype, value)
		} else {
			elems, err = toSequence(atype, value)
		}
		if err != nil {
			return nil, err
		}
		if atype.Kind == AbiKindFixedArray && len(elems) != atype.Size {
			return nil, errors.Wrapf(ErrLengthMismatch, `%v expects %v elements, got %v`, atype, atype.Size, len(elems))
		}

		for i, elem := range elems {
			elemType := atype.Elem
			if atype.Kind == AbiKindTuple {
				elemType = &atype.Components[i].Type
			}
			out, err = self.appendInPlace(out, *elemType, elem)
			if err != nil {
				return nil, err
			}
		}
		return out, nil

	default:
		word, err := self.EncodeWord(atype, value)
		if err != nil {
			return nil, err
		}
		return append(out, word[:]...), nil
	}
}

// Reference types are stored in topics as hashes.
func isHashedInTopic(atype AbiType) bool {
	switch atype.Kind {
	case AbiKindBytes, AbiKindString, AbiKindFixedArray, AbiKindArray, AbiKindTuple:
		return true
	default:
		return false
	}
}

func validateEventNames(event AbiEvent) error {
	seen := map[string]bool{}
	for _, param := range event.Inputs {
		if param.Name == "" {
			continue
		}
		if seen[param.Name] {
			return errors.Wrapf(ErrValidation, `event %v has duplicate parameter name %q`, event.Signature(), param.Name)
		}
		seen[param.Name] = true
	}
	return nil
}
