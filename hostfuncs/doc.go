// Package hostfuncs holds the host-supplied functions a plugin instance can call
// back into. Each instance owns one Channel with at most one active callback;
// registering again replaces it. Firing is synchronous and best-effort: callback
// failures are recovered and logged, never returned to the firing instance.
package hostfuncs
