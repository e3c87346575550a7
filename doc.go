/*
Package schema is a library for building a resolved reflection tree out of
parsed Protocol Buffers schema descriptors.

It is not a ".proto" text parser: it consumes descriptor records already
produced by a parser (or decoded from JSON) and, across two passes, turns
them into a tree of Namespace, Message, Field, OneOf, Enum, Service and
Extension nodes with every symbolic type reference bound to a concrete
node.

API

Clients drive a Builder through its public operations:

	b := schema.NewBuilder()
	b.Define("some.package")
	b.Create(descriptors)
	b.Import(importedJSON, "other.proto")
	ns, err := b.Build("")

Create and Import may be called any number of times before Build; Build
triggers name resolution exactly once and caches its result.

Design Considerations

This library logs nothing by default — callers that want visibility into
import composition pass schema.WithLogger(...) to NewBuilder. All hard
failures are returned as errors from the call that discovered them.

The Builder is not safe for concurrent use. It keeps a single mutable
insertion pointer; concurrent calls to Create, Import, Define, ResolveAll
or Build on the same instance are undefined.
*/
package schema
