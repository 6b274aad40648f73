// Package scraper fetches campus event sources and extracts food events.
//
// Each source class has its own Extractor: departmental calendars, time.ly
// widget calendars, seminar tables, news listings with time ranges, the
// Google Calendar API, and iCalendar feeds. Extractors share an Env holding the
// time Normalizer and the food rule; items that lack a required field or
// whose time text cannot be parsed are skipped one by one.
//
// The Runner executes all extractors concurrently, each under its own timeout,
// and merges their results in job order once every source has finished. A
// source that fails contributes no events and does not affect the others.
package scraper
