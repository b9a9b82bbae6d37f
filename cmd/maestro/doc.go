// Package main hosts the maestro CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration once per invocation and
// surfaces the registration pass, persisted song state, the transcode cache,
// and configuration scaffolding as subcommands. Keep this package lean: add
// new functionality to the internal packages first, then expose it here.
package main
