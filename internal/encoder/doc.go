// Package encoder defines the narrow codec contract the registry engine
// consumes and its two implementations: CLI, which shells out to an external
// audio transcoder, and Cached, which fronts any codec with the
// content-addressed transcode cache.
//
// Both implementations write through a temporary sibling file and rename, so
// a failure never leaves a partial file at the destination.
package encoder
