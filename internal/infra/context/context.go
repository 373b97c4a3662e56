// Package context carries request scoped values shared across transports.
package context

type contextKey string
