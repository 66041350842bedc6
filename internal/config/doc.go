// Package config provides configuration structures and utilities for
// redwiki. It defines the connection settings for the Redmine server,
// crawl politeness settings, and the YAML configuration file loader.
package config
