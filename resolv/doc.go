// Package resolv resolves binding references into storage targets.  It expands
// %name% placeholders in the path, parses and validates the result, obtains a
// client for the reference's account, and obtains the container, creating it
// when the binding is writable.
package resolv
