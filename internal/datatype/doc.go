/*
Package datatype defines the closed set of element types an array may hold.

Every array in a collection carries one Type tag. The tag is what the
dispatcher switches on when it has to create, copy, convert or serialize an
array whose element type is only known at run time. The set is closed: adding
a type means adding a constant here, a case in Element, and an entry in the
dispatch table of package dataarray (a test there fails when one is missing).
*/
package datatype
