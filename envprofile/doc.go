// Package envprofile selects the development, test or production profile
// (backend base URL and application title) from an explicit signal or the
// serving hostname.
package envprofile
