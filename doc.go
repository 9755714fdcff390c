// Package blobbind defines an API for binding declarative storage references to
// concrete handles: streams, item handles, containers, directories, or collections
// of items.
//
// A Reference names a logical path ("container/item") and an optional access mode.
// The bind package matches a requested Shape against an ordered set of rules and
// converts the reference into a handle, using a storage Client obtained from a
// ClientProvider.  Storage access is provided by one or more drivers (in-memory,
// filesystem, Azure blob storage, S3).  See individual driver documentation under
// drivers/ for more information.
package blobbind
