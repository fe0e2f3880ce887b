// Package catalog builds the ordered mapping from destination files to the
// extracted sources that produce them.
//
// Destination keys are unique. When two different source files claim the same
// destination, their content digests decide: identical content is a duplicate
// and is dropped, differing content is admitted under the first free numbered
// variant of the name (Theme_1.ogg, Theme_2.ogg, ...). Archives are processed
// in the order given, so the first archive keeps the plain name.
package catalog
