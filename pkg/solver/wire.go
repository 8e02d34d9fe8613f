package solver

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang/snappy"

	"github.com/TomaszSorobka/CSRP-graphs/pkg/instance"
)

// ErrBadFrame is returned for frames that cannot be decompressed or decoded.
var ErrBadFrame = errors.New("malformed optimizer frame")

type solveRequest struct {
	Instance *instance.WireDocument `json:"instance"`
}

type solveResponse struct {
	Solved   bool      `json:"solved"`
	Solution *Solution `json:"solution,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// encodeFrame marshals v to JSON and compresses it with snappy.
func encodeFrame(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return snappy.Encode(nil, data), nil
}

func decodeFrame(frame []byte, v any) error {
	data, err := snappy.Decode(nil, frame)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	return nil
}
