// Package depth holds the depth frame buffer and the per-sample transforms
// that run before silhouette extraction.
//
// A Frame is an owned, row-major grid of 16-bit distance samples in
// millimetres. All accessors are bounds-checked; transforms such as
// RangeFilter and Background.Suppress never modify their input and return a
// fresh Frame instead, so callers can keep the raw frame for other uses.
//
// # Coordinate System
//
// Coordinates follow the image convention used throughout this module:
//   - (0, 0) is the top-left sample
//   - X increases rightward, Y increases downward
//
// # Invalid Samples
//
// Samples that should not take part in silhouette detection are replaced with
// Sentinel, the largest representable distance. Sentinel samples scale to the
// bright end of the 8-bit intensity image and end up as background after
// inversion and thresholding.
//
// # Frame Files
//
// Recorded depth frames are stored as 16-bit greyscale PNG files. FrameCache
// decodes them once and keeps them in memory, mirroring how the image cache of
// an image-analysis server avoids repeated disk reads.
package depth
