// Package profile normalizes the divergent identity records returned by the
// Feishu SDK-code and API-code exchanges into a single UserProfile.
//
// Normalization is total: any input, including nil, yields a profile. A
// profile whose DisplayName is UnknownUser is never treated as a login.
package profile
