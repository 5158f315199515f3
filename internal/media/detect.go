package media

import (
	"sort"
	"strings"
)

var audioExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
	".aac":  true,
	".m4a":  true,
	".m4b":  true,
}

var playlistExts = map[string]bool{
	".m3u":  true,
	".m3u8": true,
	".pls":  true,
}

// IsSupportedExt returns true if the extension is a decodable audio format.
func IsSupportedExt(ext string) bool {
	return audioExts[strings.ToLower(ext)]
}

// IsPlaylistExt returns true if the extension is a supported playlist format.
func IsPlaylistExt(ext string) bool {
	return playlistExts[strings.ToLower(ext)]
}

// SupportedExtsList returns a human-readable list of supported audio formats.
func SupportedExtsList() string {
	exts := make([]string, 0, len(audioExts))
	for ext := range audioExts {
		exts = append(exts, ext)
	}
	sort.Slice(exts, func(i, j int) bool {
		return extOrder(exts[i]) < extOrder(exts[j])
	})
	return strings.Join(exts, ", ")
}

// extOrder lists native decoders before ffmpeg-backed ones.
func extOrder(ext string) string {
	if needsTranscode(ext) {
		return "1" + ext
	}
	return "0" + ext
}
