package syncproto

import (
	"encoding/json"

	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Encode JSON-marshals v into a wrapperspb.BytesValue, the real protobuf
// message every method on this service sends and receives on the wire.
func Encode(v any) (*wrapperspb.BytesValue, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return wrapperspb.Bytes(body), nil
}

// Decode JSON-unmarshals env's payload into v.
func Decode(env *wrapperspb.BytesValue, v any) error {
	return json.Unmarshal(env.GetValue(), v)
}
