// Package gcal provides the authenticated Google Calendar client used by
// calendar API sources.
//
// Credentials are provisioned once, before any source runs: the OAuth2
// client secrets are read from a JSON file and the user token is cached
// next to it. Interactive consent is only needed when no usable token is
// cached.
package gcal
