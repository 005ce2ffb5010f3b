package session

import (
	"encoding/json"
)

// tokenExtractor looks for a token at one envelope path.
type tokenExtractor struct {
	path string
	fn   func(envelope map[string]interface{}) (string, bool)
}

// tokenExtractors are tried in order; the first non-empty token wins.
// Older releases persisted the login response in several shapes, so all of
// them stay readable.
var tokenExtractors = []tokenExtractor{
	{path: "token", fn: topLevelToken},
	{path: "data.token", fn: nestedToken("data")},
	{path: "user.token", fn: nestedToken("user")},
	{path: "result.token", fn: nestedToken("result")},
}

func topLevelToken(envelope map[string]interface{}) (string, bool) {
	return stringValue(envelope["token"])
}

func nestedToken(parent string) func(map[string]interface{}) (string, bool) {
	return func(envelope map[string]interface{}) (string, bool) {
		inner, ok := envelope[parent].(map[string]interface{})
		if !ok {
			return "", false
		}
		return stringValue(inner["token"])
	}
}

// stringValue accepts any non-empty string. Tokens are opaque, so
// whitespace is not trimmed.
func stringValue(v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// decodeEnvelope parses raw storage contents. Anything that is not a JSON
// object yields nil.
func decodeEnvelope(raw []byte) map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}
	var envelope map[string]interface{}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil
	}
	return envelope
}

// ExtractToken returns the first token found in the envelope and the path
// it was found at.
func ExtractToken(raw []byte) (token string, path string, ok bool) {
	envelope := decodeEnvelope(raw)
	if envelope == nil {
		return "", "", false
	}
	for _, ex := range tokenExtractors {
		if token, ok := ex.fn(envelope); ok {
			return token, ex.path, true
		}
	}
	return "", "", false
}

// extractUser returns the user record from "user" or "data.user".
func extractUser(raw []byte) map[string]interface{} {
	envelope := decodeEnvelope(raw)
	if envelope == nil {
		return nil
	}
	if user, ok := envelope["user"].(map[string]interface{}); ok {
		return user
	}
	if data, ok := envelope["data"].(map[string]interface{}); ok {
		if user, ok := data["user"].(map[string]interface{}); ok {
			return user
		}
	}
	return nil
}
