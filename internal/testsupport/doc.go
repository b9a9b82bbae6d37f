// Package testsupport provides shared fixtures for maestro tests: temp-dir
// seeded configs, mod directory builders, and an in-process stub codec.
package testsupport
