// Package checkpoint reads and writes optimizer state files.
//
// A file is a single protobuf-encoded message:
//
//	message File {
//	  bytes  magic   = 1; // "DSCT"
//	  uint64 version = 2;
//	  string kind    = 3; // optimizer kind, e.g. "adam"
//	  repeated Tensor tensors = 4;
//	  bytes  sha256  = 5; // over the encoded tensors, in file order
//	}
//
//	message Tensor {
//	  string name  = 1;
//	  uint64 dtype = 2;
//	  repeated uint64 shape = 3 [packed = true];
//	  bytes  data  = 4; // little-endian elements
//	}
//
// Tensors are written in name order so identical state produces identical
// bytes. Unknown fields are skipped on read; a missing or wrong
// checksum fails the read.
package checkpoint
