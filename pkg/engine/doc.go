// Package engine filters, sorts and paginates the permission collection.
//
// Everything here is synchronous and free of I/O. State is an explicit value:
// each operation takes the previous State and returns the next one, so any
// number of independent views can share one Engine.
package engine
