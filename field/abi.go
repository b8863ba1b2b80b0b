package field

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Tag identifies how a single value packs into abi_encode_packed's output.
type Tag int

const (
	// TagAddress packs a 20-byte address verbatim.
	TagAddress Tag = iota
	// TagUint64 packs a uint64 as 8 bytes, big-endian.
	TagUint64
	// TagBytes32 packs a 32-byte value verbatim.
	TagBytes32
	// TagString packs the raw UTF-8 bytes of a string, with no length
	// prefix.
	TagString
)

// EncodePacked implements Solidity's abi.encodePacked layout for the fixed
// set of types this module needs: address = 20 bytes, uintN = N/8 bytes
// big-endian, bytes32 = 32 bytes verbatim, string = raw UTF-8 bytes with no
// length prefix. It is used only inside hashing, never to talk to a
// contract ABI directly — that uses the non-packed encoder in
// withdrawal/context.go instead.
func EncodePacked(tags []Tag, values []interface{}) ([]byte, error) {
	if len(tags) != len(values) {
		return nil, fmt.Errorf("field: EncodePacked: %d tags but %d values", len(tags), len(values))
	}
	out := make([]byte, 0, 32*len(tags))
	for i, tag := range tags {
		switch tag {
		case TagAddress:
			addr, ok := values[i].(common.Address)
			if !ok {
				return nil, fmt.Errorf("field: EncodePacked: value %d must be common.Address", i)
			}
			out = append(out, addr.Bytes()...)
		case TagUint64:
			v, ok := values[i].(uint64)
			if !ok {
				return nil, fmt.Errorf("field: EncodePacked: value %d must be uint64", i)
			}
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], v)
			out = append(out, b[:]...)
		case TagBytes32:
			b, ok := values[i].([]byte)
			if !ok || len(b) != 32 {
				return nil, fmt.Errorf("field: EncodePacked: value %d must be 32 bytes", i)
			}
			out = append(out, b...)
		case TagString:
			s, ok := values[i].(string)
			if !ok {
				return nil, fmt.Errorf("field: EncodePacked: value %d must be string", i)
			}
			out = append(out, []byte(s)...)
		default:
			return nil, fmt.Errorf("field: EncodePacked: unknown tag %d", tag)
		}
	}
	return out, nil
}
