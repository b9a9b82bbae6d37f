// Package gamectx maps target game contexts to their build layout and base
// slot ID configuration keys via a single descriptor table.
package gamectx
