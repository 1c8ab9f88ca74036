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


package core

import (
	"fmt"
	"strings"
	"unicode"
)

// ValidateStateChunk validates a StateChunk before it is stored.
//
// Validation rules:
//   - Content must not be empty
//   - StateCode must be a two-letter code
//
// NOT validated:
//   - Vector (can be empty until the chunk is embedded)
//   - ID (derived from content when empty)
func ValidateStateChunk(chunk *StateChunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidStateChunk)
	}

	if strings.TrimSpace(chunk.Content) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidStateChunk, ErrEmptyContent)
	}

	if err := ValidateStateCode(chunk.StateCode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidStateChunk, err)
	}

	return nil
}

// ValidateStateCode checks that code is a two-letter alphabetic state code.
func ValidateStateCode(code string) error {
	if len(code) != 2 {
		return fmt.Errorf("%w: %q", ErrInvalidStateCode, code)
	}
	for _, r := range code {
		if !unicode.IsLetter(r) {
			return fmt.Errorf("%w: %q", ErrInvalidStateCode, code)
		}
	}
	return nil
}

// NormalizeStateCodes upper-cases and de-duplicates state codes, dropping blanks.
// Order of first appearance is kept.
func NormalizeStateCodes(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
