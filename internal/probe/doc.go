// Package probe extracts technical audio metadata from media files.
//
// The head unit cares about a narrow slice of information: bitrate, sample
// rate, constant vs variable encoding, ID3 tag version, embedded artwork
// size, and DRM markers. Each supported container family (MP3, WMA/ASF, and
// the MP4 family covering AAC/M4A/M4B) has its own reader; File selects the
// reader from the file extension. The variant set is closed on purpose so
// the audit rule table stays exhaustive.
//
// Tag and artwork reading is delegated to github.com/dhowden/tag. Frame-level
// properties are parsed directly from the container because no tag library
// exposes them: MPEG frame headers and Xing blocks for MP3, the file/stream
// properties objects for ASF, and the movie header atoms for MP4.
//
// Probe failures are data to the caller: a file that cannot be parsed
// produces an error the auditor converts into a read-error finding, never a
// panic or an aborted scan.
package probe
