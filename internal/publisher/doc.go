// Package publisher is the publishing scheduler and rate-limit engine.
//
// It decides which recipient receives which message next, how long to wait
// around each send, and how to react to provider throttling and failures
// without aborting the run. Sends are deliberately serialized: aggregate
// send velocity is the quantity being rate-limited, and Telegram penalizes
// burstiness more than volume.
package publisher
