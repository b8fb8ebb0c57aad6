// Package backend is the HTTP client for the application backend
// (get_appid, getUserInfoBySdkCode, getUserInfoByApiCode) and the Feishu open
// platform token and user_info endpoints.
//
// Responses are decoded into profile.Payload without interpretation; the
// engine decides what an empty or degraded record means.
package backend
