// Package common contains plain value types and matrix/vector math shared by
// the render core: flat column-major 4x4 matrices, frustum plane extraction
// and intersection tests, and axis-aligned bounds. These are not
// interface-wrapped structs, just commonly used data types.
package common
