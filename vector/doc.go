// Package vector holds the low-level embedding helpers shared by the chunk
// store and the vec virtual table:
//   - Embedding encoding (little-endian float32 BLOB)
//   - Distance metrics (cosine, L2) and dimension checks
package vector
