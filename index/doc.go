// Package index loads the pre-built JSON indexes of the LIHTC corpus and
// exposes read-only lookups over them.
//
// Every index file is optional. Open parses the files it finds concurrently
// and keeps whatever parsed cleanly; a missing or malformed file is logged and
// reported through Availability, never returned as an error. After Open
// returns, a Store is immutable and safe for concurrent use.
package index
