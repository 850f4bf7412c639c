// Package vecsync generates the trigger DDL that keeps a vec shadow table in
// lockstep with the primary table owning the embeddings. Every insert, delete
// and embedding update on the primary table is mirrored into the shadow inside
// the same transaction, so the vector index never diverges from the records.
package vecsync
