/*
Package datacontainer implements the three-level hierarchy that holds every
array a pipeline works on:

	Collection -> Container -> AttributeSet -> Array

A Collection is the single root handed to every step. Containers group
attribute sets and may carry a geometry descriptor. An AttributeSet fixes a
tuple shape, and every array stored in it has exactly that many tuples.

Objects are addressed with datapath.Path values ("container/set/array"), and
lookups fail fast at the first missing level with the matching error kind.

# Placeholders

Objects created while a pipeline is validated (Mode.Allocate false) are
placeholders: metadata only, no buffers. Each placeholder records the
Mode.Owner that declared it. Declaring it again with identical settings and
the same owner is a no-op, so a step's validation can run any number of
times, while a second step claiming the same name still fails. When a
placeholder is declared again in commit mode it is materialized in place.
Declaring an object that already exists as real data is a DuplicateName
error unless Mode.Replace is set.
*/
package datacontainer
