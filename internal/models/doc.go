// Package models defines domain entities and persistence interfaces for the Intersect service.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs for external service data
//   - [Song] : A liked song as returned by the source platform
//   - [PlaylistMeta] : Metadata for a playlist to be created
//   - [Preview] : An ephemeral intersection result awaiting confirmation
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [User] : Accounts with linked OAuth credentials and liked-song sync state
//   - [Group] : Member sets with materialized-playlist fields guarded by a version counter
//
// Persistent entities implement the [Model] interface providing ID generation,
// timestamps, validation, and soft delete support. The [Repository] interface
// defines standard CRUD operations for database access.
package models
