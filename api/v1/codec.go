// Package apiv1 is the daemon's RPC surface: plain Go messages carried over
// gRPC with a JSON codec.
package apiv1

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content subtype of every call ("application/grpc+json").
const CodecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return CodecName }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrapf(err, "marshal %T", v)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "unmarshal %T", v)
	}
	return nil
}
