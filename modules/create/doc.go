// Package create holds the steps that add containers, attribute sets and
// arrays to the collection.
package create
