// Package memory provides an in-memory storage driver.
//
// Containers and items live in process memory and vanish with it.  The driver
// is primarily a test collaborator: listings can be forced to paginate, hooks
// observe list calls, and client acquisition can be made to fail.
package memory
