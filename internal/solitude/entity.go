package solitude

import (
	"fmt"
	"strconv"
)

// EtagKey is the reserved entity key carrying the version token.
const EtagKey = "etag"

// Entity is the canonical decoded form of a solitude resource,
// regardless of which response envelope the backend used.
type Entity map[string]any

// ID returns the entity's resource identifier as a string.
func (e Entity) ID() string {
	return e.String("id")
}

// Etag returns the version token attached during normalization, or "".
func (e Entity) Etag() string {
	return e.String(EtagKey)
}

// HasErrors reports whether the entity is an error pass-through.
func (e Entity) HasErrors() bool {
	_, ok := e["errors"]
	return ok
}

// String returns the named field rendered as a string. Numeric values
// are formatted without a fractional part when integral, since backend
// identifiers arrive as JSON numbers.
func (e Entity) String(key string) string {
	switch v := e[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Bool returns the named field as a bool, false when absent or not a bool.
func (e Entity) Bool(key string) bool {
	v, _ := e[key].(bool)
	return v
}

// Normalize converts the two response envelopes the backend uses
// (collection-style "objects" list and singleton object) into one Entity
// shape, aliasing the resource identifier under "id". Error responses
// pass through untouched. The etag argument is the response's version
// token; when present it is attached under EtagKey, absence is
// tolerated. Callers never branch on envelope shape.
func Normalize(body map[string]any, etag string) Entity {
	if body == nil {
		return nil
	}
	if _, ok := body["errors"]; ok {
		return Entity(body)
	}

	var obj map[string]any
	if objects, ok := body["objects"].([]any); ok && len(objects) > 0 {
		if first, ok := objects[0].(map[string]any); ok {
			obj = first
			obj["id"] = first["resource_pk"]
		}
	} else if pk, ok := body["resource_pk"]; ok {
		obj = body
		obj["id"] = pk
	}

	if len(obj) == 0 {
		return Entity{}
	}
	if etag != "" {
		obj[EtagKey] = etag
	}
	return Entity(obj)
}
