package bucket

import "bytes"

// jpegSOI is the JPEG start-of-image marker.
var jpegSOI = []byte{0xFF, 0xD8, 0xFF}

// SniffContentType determines the content type of image bytes from their
// magic prefix. The transcoder may fall back from PNG to JPEG during its
// size search, so the uploaded content type is always derived from the
// actual bytes rather than the nominal output format.
func SniffContentType(data []byte) string {
	if bytes.HasPrefix(data, jpegSOI) {
		return "image/jpeg"
	}
	return "image/png"
}
