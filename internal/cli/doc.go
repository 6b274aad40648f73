// Package cli implements the command-line interface for omg-food.
//
// The cli package provides the Cobra-based CLI: the root command runs every
// configured source once and prints the food report, "sources" lists the
// configured sources, "auth" provisions Calendar API credentials and "watch"
// re-runs the report on a cron schedule. It coordinates the config, scraper,
// gcal, calendar, metrics and storage packages.
package cli
