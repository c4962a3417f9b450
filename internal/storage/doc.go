// Package storage implements the document persistence boundary: one
// serialized JSON document per feature area, whole-document reads and
// overwrites. Two backends share the contract: a local file store and a
// Postgres store keeping one row per area.
package storage
