// Package silhouette turns a filtered depth frame into simplified outer
// contours of the foreground blobs.
//
// # Algorithm Overview
//
// Extract runs a fixed pipeline over one frame:
//
//  1. Intensity: scale each depth sample by Scale (0.1) and saturate to 8 bits,
//     so Sentinel background lands on 255
//  2. Smoothing (optional): box blur of the intensity image with BlurRadius
//  3. Inversion: 255 - v, making near objects bright and background black
//  4. Threshold: v >= Threshold becomes MaxVal, everything else 0
//  5. Contours: 8-connected components of the mask are traced along their
//     outer boundary; holes and components nested inside holes are dropped
//  6. Simplification: each closed contour is reduced with Douglas-Peucker
//     using a maximum deviation of Epsilon pixels
//
// With the default threshold of 75 the mask keeps samples nearer than
// 1800 mm. Foreground always ends up as the non-zero region of the mask.
//
// # Ordering
//
// Contours are returned in the order their components are discovered by a
// top-to-bottom, left-to-right scan. Each contour starts at the top-left
// pixel of its component and runs clockwise in image coordinates. Identical
// input always produces identical output.
//
// The intermediate images are returned alongside the contours so a caller
// can display them. Tracking only consumes the contours.
package silhouette
