// Package blobpath parses logical storage paths of the form "container/item".
//
// The first solidus separates the container name from the item name; any further
// solidi belong to the item name, which storage services treat as a flat key.
// Container names follow the blob storage naming grammar: 3 to 63 characters of
// lowercase letters, digits and single hyphens, beginning and ending with a letter
// or digit.
package blobpath
