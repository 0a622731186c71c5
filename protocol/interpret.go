package protocol

import (
	"strconv"
	"strings"

	"github.com/pior/mpd/response"
)

// Kind tags the shape an Interpreter produces from a reply.
type Kind uint8

const (
	KindRaw     Kind = iota // Reply text, unparsed
	KindPairs               // Ordered key/value pairs
	KindObjects             // Pairs grouped into objects by delimiter keys
	KindValues              // Values of a single key
)

func (k Kind) String() string {
	switch k {
	case KindRaw:
		return "raw"
	case KindPairs:
		return "pairs"
	case KindObjects:
		return "objects"
	case KindValues:
		return "values"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Interpreter turns the text of one reply into a typed value.
type Interpreter[T any] interface {
	Kind() Kind
	Interpret(segment string) (T, error)
}

// Pair is one "key: value" reply line.
type Pair struct {
	Key   string
	Value string
}

// Object is a group of pairs, such as one song of a playlist listing.
type Object []Pair

// Get returns the value of the first pair with the given key.
func (o Object) Get(key string) (string, bool) {
	for _, p := range o {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Decode interprets every segment of b.
func Decode[T any](b *response.Batch, in Interpreter[T]) ([]T, error) {
	values := make([]T, 0, min(b.CountHint(), len(b.Payload())+1))
	for i, segment := range b.All() {
		v, err := in.Interpret(segment)
		if err != nil {
			return nil, &ParseError{Message: "segment " + strconv.Itoa(i) + " as " + in.Kind().String(), Err: err}
		}
		values = append(values, v)
	}
	return values, nil
}

// DecodeAt interprets the i-th segment of b. A missing segment is
// interpreted as an empty reply.
func DecodeAt[T any](b *response.Batch, i int, in Interpreter[T]) (T, error) {
	segment, _ := b.Segment(i)
	return in.Interpret(segment)
}

// Raw returns the segment text unchanged.
func Raw() Interpreter[string] {
	return rawInterpreter{}
}

type rawInterpreter struct{}

func (rawInterpreter) Kind() Kind { return KindRaw }

func (rawInterpreter) Interpret(segment string) (string, error) {
	return segment, nil
}

// Pairs parses every line of a segment as a "key: value" pair.
func Pairs() Interpreter[[]Pair] {
	return pairsInterpreter{}
}

type pairsInterpreter struct{}

func (pairsInterpreter) Kind() Kind { return KindPairs }

func (pairsInterpreter) Interpret(segment string) ([]Pair, error) {
	return parsePairs(segment)
}

// Objects groups the pairs of a segment into objects. A new object starts on
// every pair whose key is one of delimiters (for example "file", "directory"
// and "playlist" in a listing).
func Objects(delimiters ...string) Interpreter[[]Object] {
	return objectsInterpreter{delimiters: delimiters}
}

type objectsInterpreter struct {
	delimiters []string
}

func (objectsInterpreter) Kind() Kind { return KindObjects }

func (o objectsInterpreter) Interpret(segment string) ([]Object, error) {
	pairs, err := parsePairs(segment)
	if err != nil {
		return nil, err
	}

	var objects []Object
	for _, p := range pairs {
		if len(objects) == 0 || o.isDelimiter(p.Key) {
			objects = append(objects, Object{})
		}
		last := len(objects) - 1
		objects[last] = append(objects[last], p)
	}
	return objects, nil
}

func (o objectsInterpreter) isDelimiter(key string) bool {
	for _, d := range o.delimiters {
		if strings.EqualFold(d, key) {
			return true
		}
	}
	return false
}

// Values returns the values of every pair with the given key, in order.
// Pairs with other keys are skipped.
func Values(key string) Interpreter[[]string] {
	return valuesInterpreter{key: key}
}

type valuesInterpreter struct {
	key string
}

func (valuesInterpreter) Kind() Kind { return KindValues }

func (v valuesInterpreter) Interpret(segment string) ([]string, error) {
	pairs, err := parsePairs(segment)
	if err != nil {
		return nil, err
	}

	var values []string
	for _, p := range pairs {
		if strings.EqualFold(p.Key, v.key) {
			values = append(values, p.Value)
		}
	}
	return values, nil
}

func parsePairs(segment string) ([]Pair, error) {
	if segment == "" {
		return nil, nil
	}

	pairs := make([]Pair, 0, strings.Count(segment, Newline)+1)
	for line := range strings.SplitSeq(segment, Newline) {
		key, value, ok := strings.Cut(line, ": ")
		if !ok || key == "" {
			return nil, &ParseError{Message: "invalid pair line: " + strconv.Quote(line)}
		}
		pairs = append(pairs, Pair{Key: key, Value: value})
	}
	return pairs, nil
}
