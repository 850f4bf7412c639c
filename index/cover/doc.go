// Package cover provides a cover-tree backed index for larger shadow tables.
package cover
