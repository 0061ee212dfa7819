package api

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrEmptyBody is returned when a response that should carry a resource has
// no body.
var ErrEmptyBody = errors.New("empty response body")

// Decode unmarshals body into out. The backend answers with either the bare
// resource or the resource wrapped as {"data": ...}; both decode the same.
// An object is treated as an envelope only when it has a "data" key.
func Decode(body []byte, out any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ErrEmptyBody
	}

	if trimmed[0] == '{' {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return err
		}
		if data, ok := envelope["data"]; ok {
			if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
				return nil
			}
			return json.Unmarshal(data, out)
		}
	}

	return json.Unmarshal(trimmed, out)
}
