// Package response holds the raw result of an exchange with a music daemon
// and splits it into per-command replies.
//
// A single command produces one reply. A command list sends N commands at
// once; the server answers with N replies in one payload. The payload is
// newline-delimited and every newline is a candidate boundary between two
// replies. Newlines listed as exclusions are not boundaries: the lines on both
// sides belong to the same reply.
//
//	b := response.New("OK MPD 0.23.5", "volume: 50\nrepeat: 0\nfile: a.flac", []int{1})
//	for segment := range b.Segments() {
//		// "volume: 50\nrepeat: 0", then "file: a.flac"
//	}
//
// Decoding a reply into typed values is done by the interpreters of the
// protocol package. Moving a Batch across a process boundary is done by the
// transfer package.
package response
