// Package config loads the omg-food YAML configuration.
//
// A configuration lists the sources to scrape (kind, URL, affiliation) and the
// knobs of the food rule (keywords, window, lunch hours). Values from a file
// are layered over Default(), which carries the built-in Carnegie Mellon
// source list, so an empty or partial file still yields a runnable config.
package config
