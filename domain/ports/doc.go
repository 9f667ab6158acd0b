// Package ports defines the interfaces plugin modules and infrastructure adapters
// implement. The host depends only on these abstractions.
package ports
