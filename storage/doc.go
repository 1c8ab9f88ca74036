// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package storage provides the storage abstraction for the local state QAP
// vector store.
//
// The query layer treats state QAP similarity search as an external service.
// This package defines the repository interface that a local implementation of
// that service is built on, so the BadgerDB backend in storage/badger can be
// swapped for another store without touching the vector adapter.
//
// # Constructor Return Type Pattern
//
// Public constructors return the repository interface:
//
//	repo, err := badger.NewStateChunkRepository(backend)  // storage.StateChunkRepository
//
// Internal helpers may return concrete types since they're only used within
// the implementation package.
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	repo, backend, err := badger.NewMemoryRepository()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	defer repo.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Usage
//
// All repository methods accept context.Context. Similarity search checks the
// context between records so a caller's deadline bounds a long scan.
package storage
