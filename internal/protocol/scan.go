// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package protocol

import "bytes"

// MaxLineLength bounds a single host line.
const MaxLineLength = 64 * 1024

// ScanLines is a bufio.SplitFunc for host streams. A line ends at '\n' or NUL;
// a trailing '\r' is dropped and empty lines are skipped.
func ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for {
		if atEOF && len(data) == 0 {
			return advance, nil, nil
		}
		i := bytes.IndexAny(data, "\n\x00")
		if i < 0 {
			if atEOF {
				line := bytes.TrimRight(data, "\r")
				if len(line) == 0 {
					return advance + len(data), nil, nil
				}
				return advance + len(data), line, nil
			}
			return advance, nil, nil
		}
		line := bytes.TrimRight(data[:i], "\r")
		if len(line) > 0 {
			return advance + i + 1, line, nil
		}
		advance += i + 1
		data = data[i+1:]
	}
}
