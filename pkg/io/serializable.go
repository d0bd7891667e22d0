package io

// Serializable defines the binary encoding/decoding interface. Errors are
// returned in the BinReader/BinWriter Err field. These functions must have
// safe behavior when the passed BinReader/BinWriter with Err is already set.
type Serializable interface {
	DecodeBinary(*BinReader)
	EncodeBinary(*BinWriter)
}

type decodable interface {
	DecodeBinary(*BinReader)
}

type encodable interface {
	EncodeBinary(*BinWriter)
}
