// Package event provides the canonical campus event record and helpers for
// normalizing source date/time text into a single timestamp.
//
// Every extractor converts whatever its source produces (DOM fragments, API
// records, iCalendar components) into *Event values. Events are created once
// and never modified; display formatting happens in separate row types.
// The Collector accumulates events from all sources for one run.
package event
