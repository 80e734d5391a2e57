package cache

import (
	"context"
	"encoding/json"
)

// Store is the external key-value store backing the conditional cache.
// Eviction policy belongs to the store; no TTLs are enforced here.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Conditional caches one entity kind under two independent relations:
// identifier -> version token, and version token -> serialized body.
// A body is only ever stored under the token that produced it, so a
// stale token lookup naturally misses.
type Conditional struct {
	store Store
	kind  string
}

func NewConditional(store Store, kind string) *Conditional {
	return &Conditional{store: store, kind: kind}
}

// Token returns the version token last seen for the identifier, or ""
// when unknown. Store errors degrade to a miss.
func (c *Conditional) Token(ctx context.Context, id string) string {
	val, ok, err := c.store.Get(ctx, c.tokenKey(id))
	if err != nil || !ok {
		return ""
	}
	return string(val)
}

// Body returns the entity body cached under the given version token.
func (c *Conditional) Body(ctx context.Context, token string) (map[string]any, bool) {
	if token == "" {
		return nil, false
	}
	val, ok, err := c.store.Get(ctx, c.bodyKey(token))
	if err != nil || !ok {
		return nil, false
	}
	var body map[string]any
	if err := json.Unmarshal(val, &body); err != nil {
		return nil, false
	}
	return body, true
}

// Put writes both cache relations. An empty token means the entity is
// not cacheable; the write is silently skipped.
func (c *Conditional) Put(ctx context.Context, id, token string, body map[string]any) {
	if token == "" {
		return
	}
	val, err := json.Marshal(body)
	if err != nil {
		return
	}
	_ = c.store.Set(ctx, c.tokenKey(id), []byte(token))
	_ = c.store.Set(ctx, c.bodyKey(token), val)
}

func (c *Conditional) tokenKey(id string) string {
	return "etag:" + c.kind + ":" + id
}

func (c *Conditional) bodyKey(token string) string {
	return c.kind + ":" + token
}
