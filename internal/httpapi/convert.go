package httpapi

import (
	"bytes"
	"encoding/json"

	"google.golang.org/protobuf/types/known/structpb"
)

// The API types carry JSON tags only; the protobuf encoding reuses them by
// going through the JSON object model, so both encodings share field names.

func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

// fromStruct decodes msg into v.  Numbers arrive as doubles; whole values
// re-encode without a fraction so integer fields decode cleanly.
func fromStruct(msg *structpb.Struct, v any) error {
	raw, err := json.Marshal(msg.AsMap())
	if err != nil {
		return err
	}
	return decodeStrictJSON(bytes.NewReader(raw), v)
}
