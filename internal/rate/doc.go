// Package rate throttles failed logins on the mock server with Redis
// fixed-window counters.
//
// Keys are {prefix}rl:acct:{account} and, when enabled, {prefix}rl:ip:{ip}.
// The first failure in a window sets the expiry; later failures only
// increment.
package rate
