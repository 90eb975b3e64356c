/*
Package datapath provides a structured representation of the slash-separated
addresses used to locate objects in a collection.

A path has up to three segments:

	container/attributeset/array

A single segment names a container, two segments name an attribute set and
three name an array. A trailing slash is accepted and ignored, so "DC/Cell/"
and "DC/Cell" address the same attribute set. Names may contain spaces but
never a slash or a control character.
*/
package datapath
