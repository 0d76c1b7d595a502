// Package model contains the domain models of the discussion board:
// topics, topic types, comments, users, favorite bookmarks and the
// transient events pushed to real-time observers.
package model

// tablePrefix is prepended to every table name used by the models.
const tablePrefix = "board_"

// Maximum length of every bounded text column.
const maxTextLength = 255

// TablePrefix returns the default table prefix shared by all models.
func TablePrefix() string {
	return tablePrefix
}
