// Package constants holds shared event names, report headers, and sentinel
// error codes used across the payments engine packages.
package constant
