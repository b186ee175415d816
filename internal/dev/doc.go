// Package dev implements the Cotton development server.
//
// The dev server compiles the project, runs the resulting binary on a
// private port, and reverse-proxies browser traffic to it. A file
// watcher triggers rebuilds; connected browsers are told to reload
// over a WebSocket at /_cotton/reload.
//
// The pieces:
//   - Watcher: fsnotify-based file watcher with debouncing and ignore
//     patterns
//   - Compiler: go build wrapper plus child process management
//   - ReloadServer: WebSocket broadcast to connected browsers
//   - Controller: the reload state machine tying the three together
//   - Server: the outward HTTP server (proxy + reload endpoint)
package dev
