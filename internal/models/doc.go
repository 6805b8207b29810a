// Package models defines domain entities and persistence interfaces for the Familliar offline library.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs representing library proxy data
//   - [Collection] : Basic playlist, album, or liked-songs metadata
//   - [CollectionExport] : Collection with complete track listing
//   - [Track] : Song metadata keyed by the proxy's track id
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [PersistedTrack] : Cached track metadata, keyed by proxy track id
//   - [LocalFile] : Downloaded audio files; their presence marks a track as cached
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
