// Package model contains the domain entities shared across services:
// jobs, presets, playlists, videos and duplicate relationships.
package model
