// Package fileutil provides directory scanning for documentation
// sources: recursive traversal with extension filtering, hidden and
// vendored directory exclusion, and error-tolerant walking that collects
// non-fatal problems instead of aborting.
package fileutil
