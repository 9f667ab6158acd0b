// Package plugins groups the reference plugins shipped with the SDK.
//
// Each subpackage exposes New, which returns a *plugin.Definition ready to be
// loaded into a host:
//
//	h := host.New()
//	_, err := h.Load(ctx, auth.New())
package plugins
