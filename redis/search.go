package redis

// Full-text retrieval on the store's search module. The index shadows the
// restaurant record hashes by key prefix; the application never feeds it
// documents directly. As with the filter and document resources the commands
// go through the generic Do.

import (
	"context"
	"fmt"
	"strings"
)

// SearchHit is one indexed record returned by Search. Key is the full record
// key in the store; Fields are the indexed hash fields as returned.
type SearchHit struct {
	Key    string
	Fields map[string]string
}

// SearchResult carries one page of hits plus the store's total match count.
type SearchResult struct {
	Total int64
	Hits  []SearchHit
}

// FieldSchema describes one indexed field: Name plus the module's type word
// (TEXT, TAG, NUMERIC) and optional trailing attributes such as SORTABLE.
type FieldSchema struct {
	Name       string
	Type       string
	Attributes []string
}

type SearchIndex struct {
	ClientContext
	client     Client
	indexName  string
	hashPrefix string
	schema     []FieldSchema
}

// NewSearchIndex binds an index name to the hash key prefix it shadows.
// hashPrefix must include the trailing separator so only whole key families
// match.
func NewSearchIndex(cfg RedisConfig, client Client, name string, hashPrefix string, schema []FieldSchema) *SearchIndex {
	return &SearchIndex{
		ClientContext: ClientContext{cfg: cfg, name: name},
		client:        client,
		indexName:     prefix(cfg, "idx") + namespaceSeparator + name,
		hashPrefix:    hashPrefix,
		schema:        schema,
	}
}

func (r *SearchIndex) IndexName() string {
	return r.indexName
}

// Ensure creates the index. Safe to call on every boot: an already existing
// index is not an error.
func (r *SearchIndex) Ensure(ctx context.Context) error {
	log := r.Log().FromContext(ctx)
	defer log.Close()

	span, ctx := startSpan(ctx, "search", "Create")
	defer span.Finish()

	args := []any{"FT.CREATE", r.indexName, "ON", "HASH", "PREFIX", "1", r.hashPrefix, "SCHEMA"}
	for _, field := range r.schema {
		args = append(args, field.Name, field.Type)
		for _, attribute := range field.Attributes {
			args = append(args, attribute)
		}
	}

	_, err := r.client.Do(ctx, args...).Result()
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			log.Debugf("Ensure: index %s already exists", r.indexName)
			return nil
		}
		return DoError(err, r.indexName)
	}
	log.Debugf("Ensure: created index %s over '%s'", r.indexName, r.hashPrefix)
	return nil
}

// Drop removes the index definition. The indexed hashes are untouched.
func (r *SearchIndex) Drop(ctx context.Context) error {
	span, ctx := startSpan(ctx, "search", "Drop")
	defer span.Finish()

	_, err := r.client.Do(ctx, "FT.DROPINDEX", r.indexName).Result()
	if err != nil {
		return DoError(err, r.indexName)
	}
	return nil
}

// Search runs the query and reshapes the module's flat array reply
// [total, key, [field, value, ...], key, ...] into a SearchResult page.
func (r *SearchIndex) Search(ctx context.Context, query string, offset, count int64) (*SearchResult, error) {
	log := r.Log().FromContext(ctx)
	defer log.Close()

	span, ctx := startSpan(ctx, "search", "Search")
	defer span.Finish()

	reply, err := r.client.Do(ctx,
		"FT.SEARCH", r.indexName, query, "LIMIT", offset, count).Result()
	if err != nil {
		return nil, DoError(err, r.indexName)
	}

	elements, ok := reply.([]any)
	if !ok {
		return nil, BadReplyError(r.indexName, fmt.Sprintf("%T is not an array", reply))
	}
	if len(elements) == 0 {
		return nil, BadReplyError(r.indexName, "empty reply")
	}

	total, ok := elements[0].(int64)
	if !ok {
		return nil, BadReplyError(r.indexName, "total is not an integer")
	}

	result := &SearchResult{Total: total}
	// remaining elements alternate: record key, then the field/value array
	for i := 1; i+1 < len(elements); i += 2 {
		key, ok := elements[i].(string)
		if !ok {
			return nil, BadReplyError(r.indexName, "record key is not a string")
		}
		rawFields, ok := elements[i+1].([]any)
		if !ok {
			return nil, BadReplyError(r.indexName, "record fields are not an array")
		}
		fields := make(map[string]string, len(rawFields)/2)
		for j := 0; j+1 < len(rawFields); j += 2 {
			name, nameOK := rawFields[j].(string)
			value, valueOK := rawFields[j+1].(string)
			if !nameOK || !valueOK {
				return nil, BadReplyError(r.indexName, "field pair is not strings")
			}
			fields[name] = value
		}
		result.Hits = append(result.Hits, SearchHit{Key: key, Fields: fields})
	}

	log.Debugf("Search: '%s' %d of %d hits", query, len(result.Hits), total)
	return result, nil
}
