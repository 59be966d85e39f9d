// Package resp implements the RESP wire format used by rKV: simple strings, errors,
// integers, bulk strings and (nested) arrays.
//
// Encoding is total: every Value has exactly one wire representation.
//
// Decoding operates on an in-memory buffer and consumes exactly the bytes of one value.
// It distinguishes two kinds of failure:
//
//   - ErrIncomplete: the buffer ends before the value is framed. This is not an error from
//     the client's point of view; the caller reads more bytes and retries.
//   - ErrProtocol (and the errors wrapping it): the bytes can never form a valid value.
//     A stream has no resynchronization point after such an error, so connections that
//     hit one should be closed.
//
// Bulk strings are read by their declared byte length and never scanned for CRLF, which
// keeps them binary safe. Lines (simple strings, errors, integers and length headers) must
// not contain CR or LF.
//
// Three layers are provided:
//
//	// pure function over a buffer
//	v, n, err := resp.Decode(buf, resp.Limits{})
//
//	// stateful cursor for chunked input
//	dec := resp.NewDecoder(resp.Limits{})
//	dec.Feed(chunk)
//	v, err := dec.Next()
//
//	// blocking stream reader
//	r := resp.NewReader(conn, resp.Limits{})
//	v, err := r.ReadValue()
package resp
