// Package extension provides the run-time registry that maps host URL
// schemes to session factories, so applications can plug custom transports
// in next to the built-in local and ssh runners.
//
// The registry is normally seeded through the public APIs under the root
// sesh package, therefore most applications do not need to import this
// package directly.
package extension
