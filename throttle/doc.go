// Package throttle provides per-key rate limiting for action execution.
//
// Every routing key runs its actions in order on one worker. A [Config]
// caps how quickly that worker may start actions:
//
//	throttle.Config{
//	    Key:       "email",
//	    RateLimit: 10, // at most 10 actions/s start on the "email" key
//	    RateBurst: 20, // allow bursts up to 20
//	}
//
// Pass configs when building the engine:
//
//	engine.New(
//	    engine.WithKeyRateLimit(
//	        throttle.Config{Key: "email", RateLimit: 10, RateBurst: 20},
//	        throttle.Config{Key: "bulk", RateLimit: 1},
//	    ),
//	)
//
// # Manager
//
// [Manager] holds one token-bucket limiter (golang.org/x/time/rate) per
// configured key. The engine calls [Manager.Wait] before each action's first
// attempt; retries are not throttled again.
//
// Keys without a [Config] are never throttled.
package throttle
