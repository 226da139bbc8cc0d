package redis

// Document storage on the store's JSON module. Restaurant detail documents
// are nested (hours, menus, contact) so they live here rather than in the
// record hash. Marshalling happens at this boundary; the application never
// sees raw JSON strings.

import (
	"context"
	"encoding/json"
	"fmt"
)

const rootPath = "$"

// NewJSONResource constructs a new instance of JSONResource, given the configuration.
//   - name: name of the resource
//   - cfg: the store configuration to use
//   - client: shared client
func NewJSONResource(cfg RedisConfig, client Client, name string) *JSONResource {
	return &JSONResource{
		ClientContext: ClientContext{cfg: cfg, name: name},
		client:        client,
		keyPrefix:     prefix(cfg, name),
	}
}

// JSONResource is a store resource holding one document per id
type JSONResource struct {
	ClientContext
	client    Client
	keyPrefix string
}

// Key gets the full document key
func (r *JSONResource) Key(id string) string {
	return r.keyPrefix + namespaceSeparator + id
}

// Set takes a JSON-serializable value, marshals it, and stores it for the given id
func (r *JSONResource) Set(ctx context.Context, id string, value any) error {
	log := r.Log().FromContext(ctx)
	defer log.Close()

	span, ctx := startSpan(ctx, "json", "Set")
	defer span.Finish()

	jsonBytes, err := json.Marshal(value)
	if err != nil {
		return err
	}

	key := r.Key(id)
	_, err = r.client.Do(ctx, "JSON.SET", key, rootPath, string(jsonBytes)).Result()
	if err != nil {
		return DoError(err, key)
	}

	log.Debugf("Set: document '%s' %d bytes", key, len(jsonBytes))
	return nil
}

// Get reads the document for the given id, and unmarshals it into target
// (which must be a pointer to a suitable empty struct.)
func (r *JSONResource) Get(ctx context.Context, id string, target any) error {
	span, ctx := startSpan(ctx, "json", "Get")
	defer span.Finish()

	key := r.Key(id)
	result, err := r.client.Do(ctx, "JSON.GET", key, rootPath).Result()
	if err != nil {
		return AsNotFound(err, key)
	}

	resultStr, ok := result.(string)
	if !ok {
		return BadReplyError(key, fmt.Sprintf("%T is not string", result))
	}

	// The module wraps a $ path reply in a one element array.
	var elements []json.RawMessage
	if err = json.Unmarshal([]byte(resultStr), &elements); err != nil {
		return err
	}
	if len(elements) == 0 {
		return AsNotFound(ErrNotFound, key)
	}

	return json.Unmarshal(elements[0], target)
}

// Delete removes the document. Deleting an absent document is not an error.
func (r *JSONResource) Delete(ctx context.Context, id string) error {
	span, ctx := startSpan(ctx, "json", "Del")
	defer span.Finish()

	key := r.Key(id)
	// JSON.DEL replies 0 for an absent document, it does not error.
	_, err := r.client.Do(ctx, "JSON.DEL", key, rootPath).Result()
	if err != nil {
		return DoError(err, key)
	}
	return nil
}
