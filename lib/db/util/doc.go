// Package util holds small helpers shared by the database engines: seeded FNV-1a hashing
// for shard selection and wall-clock millisecond conversion.
package util
