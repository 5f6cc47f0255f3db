package convert

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Encoding is the text encoding wrapped around a payload on stdin and stdout
type Encoding string

const (
	EncodingRaw    Encoding = "raw"
	EncodingHex    Encoding = "hex"
	EncodingBase64 Encoding = "base64"
)

// ParseEncoding converts a flag value to an Encoding
func ParseEncoding(s string) (Encoding, error) {
	switch e := Encoding(s); e {
	case EncodingRaw, EncodingHex, EncodingBase64:
		return e, nil
	default:
		return "", fmt.Errorf("invalid encoding %s. must be one of raw, hex, base64", s)
	}
}

// Decode strips the text encoding from input. Surrounding whitespace is
// ignored for hex and base64.
func (e Encoding) Decode(input []byte) ([]byte, error) {
	switch e {
	case EncodingHex:
		out, err := hex.DecodeString(string(bytes.TrimSpace(input)))
		if err != nil {
			return nil, fmt.Errorf("invalid hex input: %w", err)
		}
		return out, nil
	case EncodingBase64:
		out, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(input)))
		if err != nil {
			return nil, fmt.Errorf("invalid base64 input: %w", err)
		}
		return out, nil
	default:
		return input, nil
	}
}

// Encode applies the text encoding to data. Hex and base64 output ends with a newline.
func (e Encoding) Encode(data []byte) []byte {
	switch e {
	case EncodingHex:
		return []byte(hex.EncodeToString(data) + "\n")
	case EncodingBase64:
		return []byte(base64.StdEncoding.EncodeToString(data) + "\n")
	default:
		return data
	}
}
