// Package entities provides the core domain types of the plugin boundary.
// These types serve dual purpose: domain entities AND JSON wire format DTOs,
// so every field that crosses the boundary carries a json tag.
package entities
