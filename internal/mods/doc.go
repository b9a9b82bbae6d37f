// Package mods discovers enabled mod packages and their music sources.
//
// Discovery is deliberately forgiving: a mod without a readable manifest or
// without a music folder is skipped, never fatal. Ordering is load-bearing —
// packages keep the caller's enable order and files within a package come
// back in lexical walk order, because slot IDs are assigned positionally.
package mods
