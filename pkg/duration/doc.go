// Package duration parses the free-text time arguments accepted by grant
// commands ("3d", "45m") and formats second counts back into human-readable
// strings. Zero is the "forever" sentinel in both directions.
package duration
