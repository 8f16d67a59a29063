// Package cpdax implements the Exchange interface for the CPDAX spot exchange REST API.
//
// Private calls are signed with HMAC-SHA256 over
//
//	api_key + timestamp + METHOD + "/v1/" + path + body
//
// and carry the CP-ACCESS-KEY, CP-ACCESS-TIMESTAMP and CP-ACCESS-DIGEST headers.
// The body only takes part in the signature for POST requests.
package cpdax
