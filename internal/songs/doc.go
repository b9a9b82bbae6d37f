// Package songs holds the Song data model and the persisted registry state.
//
// The state is two files per context under its build directory: music.json,
// an indented JSON array of Song records that round-trips exactly, and
// version.txt, a plain-integer schema marker. Writes go through an atomic
// temp-and-rename so a crash never leaves a half-written state; the registry
// engine writes state only as the final step of a successful pass.
package songs
