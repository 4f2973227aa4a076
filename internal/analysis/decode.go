package analysis

import (
	"bytes"
	"encoding/json"
)

func jsonUnmarshalStrict(s string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
