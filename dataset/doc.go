// Package dataset loads benchmark corpora and ground-truth neighbor sets.
//
// Vectors use the TEXMEX layout (.fvecs / .ivecs): every record is a little-endian
// int32 dimension followed by that many float32 (fvecs) or int32 (ivecs) values.
// Files ending in .zst are decompressed transparently.
package dataset
