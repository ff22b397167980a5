package service

import "strings"

// Pathname returns the request path as browsers and edge runtimes present it
// (the WHATWG URL pathname): escapedPath keeps its percent-encoding, and only
// "." and ".." segments, including their %2e spellings, are resolved.
// Repeated and trailing slashes are preserved.
//
// escapedPath must be the escaped form (url.URL.EscapedPath), not the decoded
// url.URL.Path, so that "/install%2Eps1" stays distinct from "/install.ps1".
func Pathname(escapedPath string) string {
	if !strings.HasPrefix(escapedPath, "/") {
		escapedPath = "/" + escapedPath
	}

	segments := strings.Split(escapedPath[1:], "/")
	out := make([]string, 0, len(segments))
	for i, seg := range segments {
		last := i == len(segments)-1
		switch {
		case isDoubleDotSegment(seg):
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
			if last {
				out = append(out, "")
			}
		case isSingleDotSegment(seg):
			if last {
				out = append(out, "")
			}
		default:
			out = append(out, seg)
		}
	}
	return "/" + strings.Join(out, "/")
}

func isSingleDotSegment(seg string) bool {
	return seg == "." || strings.EqualFold(seg, "%2e")
}

func isDoubleDotSegment(seg string) bool {
	switch strings.ToLower(seg) {
	case "..", ".%2e", "%2e.", "%2e%2e":
		return true
	}
	return false
}
