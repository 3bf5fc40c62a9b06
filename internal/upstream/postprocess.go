package upstream

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Postprocess validates the buffered upstream body and, when marker is
// non-empty, prefixes the first choice's message content with it. The
// rewrite goes through sjson so every field the proxy does not understand
// survives byte-for-byte.
func Postprocess(body []byte, marker string) ([]byte, error) {
	choices := gjson.GetBytes(body, "choices")
	if !choices.IsArray() || len(choices.Array()) == 0 {
		return nil, ErrInvalidResponse
	}
	if marker == "" {
		return body, nil
	}
	content := gjson.GetBytes(body, "choices.0.message.content")
	out, err := sjson.SetBytes(body, "choices.0.message.content", marker+content.String())
	if err != nil {
		return nil, ErrInvalidResponse
	}
	return out, nil
}
