// Package config persists what survives between sessions: saved
// data-source definitions and command history.
//
// Data sources live in datasources.yaml under the user config
// directory. History lives in history.json, manipulated as a JSON
// document so partial writes append without rewriting the file's
// shape. The core treats both as opaque load/save boundaries at
// startup and shutdown.
package config
