package badger

import "strings"

const (
	stateChunkPrefix = "qaprec"
	stateIndexPrefix = "qapst"
)

// makeStateChunkKey generates a key for a state chunk by ID.
func makeStateChunkKey(id string) []byte {
	return []byte(stateChunkPrefix + ":" + id)
}

// makeStateIndexKey generates a composite key for the state index.
// Format: prefix:STATE:id
func makeStateIndexKey(stateCode, id string) []byte {
	return []byte(stateIndexPrefix + ":" + strings.ToUpper(stateCode) + ":" + id)
}

// makePartialStateIndexKey generates the prefix for all chunks of a state.
// Format: prefix:STATE:
func makePartialStateIndexKey(stateCode string) []byte {
	return []byte(stateIndexPrefix + ":" + strings.ToUpper(stateCode) + ":")
}

// parseStateIndexKey splits a state index key into state code and chunk ID.
func parseStateIndexKey(key []byte) (stateCode, id string, ok bool) {
	rest, found := strings.CutPrefix(string(key), stateIndexPrefix+":")
	if !found {
		return "", "", false
	}
	stateCode, id, ok = strings.Cut(rest, ":")
	return stateCode, id, ok
}
