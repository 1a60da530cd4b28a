package wire

import "github.com/fxamacker/cbor/v2"

// encMode is the canonical CBOR encoding mode: sorted map keys, shortest-
// form integers, no indefinite-length items. This is what makes the wire
// encoding deterministic: two encodes of equal values produce identical
// bytes.
var encMode = func() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

func cborMarshal(v interface{}) ([]byte, error) {
	return encMode.Marshal(v)
}

func cborUnmarshal(data []byte, v interface{}) error {
	return cbor.Unmarshal(data, v)
}
