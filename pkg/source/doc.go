// Package source provides ready-made record sources for vigil.
//
// Memory is a reactive in-memory source: types are declared with a
// column schema, collections and record fields live in signals, so
// watchers pick up membership and field changes automatically. It
// implements vigil.RecordSource, vigil.TypeCatalog and vigil.Strategy
// in one value, which makes it the shortest path to a working bridge
// in tests, demos and hosts without their own model layer.
//
// Dir layers a filesystem loader on top of Memory: every <type>.json
// file in a directory becomes a record type, and fsnotify keeps the
// collections in step with edits to those files. Each reload runs as
// one batch followed by a scheduler pulse, so observers see one net
// diff per save.
package source
