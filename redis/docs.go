package redis

// This package is the only place that talks to the external data-structure
// store. It exposes one resource type per structure the directory uses:
//
//	1. HashResource      - restaurant and review records
//	2. SetResource       - cuisine membership, catalogue and favourites
//	3. SortedSetResource - the rating ranking
//	4. ListResource      - per-restaurant review timelines
//	5. BloomFilter       - duplicate-registration screening (module command)
//	6. JSONResource      - restaurant detail documents (module command)
//	7. SearchIndex       - full-text retrieval over records (module command)
//	8. SessionStore      - gorilla sessions for the favourites endpoints
//
// Every resource scopes its keys under the configured namespace with ':'
// separators and never interprets record contents. Compositions that must
// keep several structures consistent (creating a restaurant touches a hash,
// a ranking, sets and the filter) are built by the directory package with
// the shared client's transactional pipeline; the resources expose Key()
// so those pipelines can address them.
//
// The filter, document and search structures have no typed bindings in the
// client library and are issued through the generic Do command.
