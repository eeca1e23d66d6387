package json

type EncoderInterface interface {
	Encode(any) error
}

type DecoderInterface interface {
	Decode(any) error
}

// Parser turns JSON text into a Value.
type Parser interface {
	Parse(text string) (Value, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(text string) (Value, error)

func (f ParserFunc) Parse(text string) (Value, error) {
	return f(text)
}

// DefaultParser is the jsoniter backed parser used by importers.
var DefaultParser Parser = ParserFunc(Parse)
