// Package regmap holds the regulatory map: the in-memory graph over
// frameworks, controls, articles and provisions that backs the interactive
// framework graph and the layered map.
//
// The package is pure. Callers hand it the entity list and the edge list
// once, build an Index, and then compute the visible subset for any number of
// expanded sets. Nothing here performs I/O or keeps state between calls; the
// expanded set always travels with the request.
//
// Visibility follows a bounded breadth-first reveal: every framework is
// visible, and a node's edge targets become visible only when the node itself
// is expanded. Each id is enqueued at most once, so cyclic edge sets
// terminate.
package regmap
