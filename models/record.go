// Package models defines the phonebook's core data types: subscriber
// records and the error taxonomy surfaced across storage and transport.
package models

import "fmt"

// Record is a single subscriber entry: a last/first/patronymic name
// triple. Its activity flag is not stored in the struct; it is given by
// which shard array (active or inactive) holds the Record.
//
// Record has no identity of its own — the phone number under which a
// Record is stored lives in the shard key, not in the struct.
type Record struct {
	Last       string
	First      string
	Patronymic string
}

// NewRecord constructs a Record from its three name fields.
func NewRecord(last, first, patronymic string) Record {
	return Record{Last: last, First: first, Patronymic: patronymic}
}

// Bytes returns the record's byte footprint: the combined length of all
// three name fields. This is the quantity tracked by Database's running
// byte counter and the insert/delete counter-table arithmetic (§4.3.2).
//
// Unlike the original implementation's record::size(), this sums all
// three fields rather than omitting First and double-counting
// Patronymic — the original behavior is not reproduced.
func (r Record) Bytes() int {
	return len(r.Last) + len(r.First) + len(r.Patronymic)
}

// String renders the record as "Last, First, Patronymic, " matching the
// original get_name() format used by Save/Print.
func (r Record) String() string {
	return fmt.Sprintf("%s, %s, %s, ", r.Last, r.First, r.Patronymic)
}

// Equal reports whether two records hold identical name fields.
func (r Record) Equal(other Record) bool {
	return r.Last == other.Last && r.First == other.First && r.Patronymic == other.Patronymic
}
