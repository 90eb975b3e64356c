/*
Package dataarray implements the typed arrays stored in a collection and the
run-time dispatch over their element type.

A DataArray[T] is a contiguous buffer of tuples, each tuple holding the same
number of components. Component shape is kept as a list of dimensions (a 3x3
tensor per tuple has dims [3 3] and nine components). An array can exist in
two forms:

  - metadata only, as produced while a pipeline is being validated. Name, type,
    tuple count and component dims are set, the buffer is nil.
  - allocated, with a buffer of NumTuples()*NumComponents() elements.

Array is the type-erased handle used wherever the element type is only known at
run time. It is sealed: the only implementations are the DataArray
instantiations listed in the dispatch table, which keeps the set of element
types closed. Code that needs the concrete type recovers it with As[T], which
fails with a TypeMismatch error instead of panicking.
*/
package dataarray
