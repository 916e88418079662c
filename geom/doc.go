// Package geom provides the axis-aligned rectangle and point types used to
// describe frames throughout the filter pipeline.
//
// Rect is a value type: copying a Rect clones it. All operations return a new
// rectangle and never modify the receiver, so frames can be shared freely
// between scopes, passes and textures.
package geom
