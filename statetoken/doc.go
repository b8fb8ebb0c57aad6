// Package statetoken generates and checks the anti-forgery state parameter
// carried through the Feishu OAuth redirect.
//
// A token is single use: [Guard.Consume] deletes the stored value before
// comparing, so a replayed callback always fails.
package statetoken
