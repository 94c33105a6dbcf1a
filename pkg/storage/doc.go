// Package storage provides the opaque durable key-value store the security
// stores persist through.
//
// # Overview
//
// The evaluator's state is a handful of small JSON records (bounding mask,
// per-command masks, targeted rule lists, membership lists), each read and
// written whole under its own key. The Store interface captures exactly
// that: Get/Set/Delete of JSON round-trippable values, with synchronous
// durability on Set.
//
// # Backends
//
//	filesystem  one JSON file per key, atomic rename on write
//	sqlite      single kv table; ":memory:" works for tests
//	redis       go-redis client; tested against miniredis
//
// Select a backend through Config and Open:
//
//	store, err := storage.Open(storage.Config{Type: "sqlite", SQLitePath: path})
//
// All backends satisfy the same contract test in contract_test.go.
package storage
