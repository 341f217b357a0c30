package formats

import (
	"fmt"
	"sort"
)

// Spec describes one supported output format: the ffmpeg codec used to
// encode it, the file extension, and the bitrates it accepts.
type Spec struct {
	ID             string
	Name           string
	Description    string
	Codec          string
	Ext            string
	DefaultBitrate string   // empty for lossless formats
	Bitrates       []string // empty for lossless formats
}

// Lossless reports whether the format takes no bitrate parameter.
func (s Spec) Lossless() bool {
	return s.DefaultBitrate == ""
}

// AllowsBitrate reports whether the given bitrate is one of the format's
// accepted values. Lossless formats accept none.
func (s Spec) AllowsBitrate(bitrate string) bool {
	for _, b := range s.Bitrates {
		if b == bitrate {
			return true
		}
	}
	return false
}

type UnsupportedFormatError struct {
	ID string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format: %s", e.ID)
}

var catalog = map[string]Spec{
	"mp3": {
		ID: "mp3", Name: "MP3", Description: "Most compatible format",
		Codec: "libmp3lame", Ext: "mp3", DefaultBitrate: "192k",
		Bitrates: []string{"96k", "128k", "192k", "256k", "320k"},
	},
	"ogg": {
		ID: "ogg", Name: "OGG Vorbis", Description: "Open format, perfect for game modding",
		Codec: "libvorbis", Ext: "ogg", DefaultBitrate: "128k",
		Bitrates: []string{"64k", "96k", "128k", "192k", "256k"},
	},
	"wav": {
		ID: "wav", Name: "WAV", Description: "Uncompressed, highest quality",
		Codec: "pcm_s16le", Ext: "wav",
	},
	"flac": {
		ID: "flac", Name: "FLAC", Description: "Lossless compression",
		Codec: "flac", Ext: "flac",
	},
	"aac": {
		ID: "aac", Name: "AAC", Description: "Advanced audio coding",
		Codec: "aac", Ext: "aac", DefaultBitrate: "192k",
		Bitrates: []string{"96k", "128k", "192k", "256k", "320k"},
	},
	"m4a": {
		ID: "m4a", Name: "M4A", Description: "Apple audio format",
		Codec: "aac", Ext: "m4a", DefaultBitrate: "192k",
		Bitrates: []string{"96k", "128k", "192k", "256k", "320k"},
	},
	"opus": {
		ID: "opus", Name: "Opus", Description: "Modern, efficient codec",
		Codec: "libopus", Ext: "opus", DefaultBitrate: "128k",
		Bitrates: []string{"64k", "96k", "128k", "192k", "256k"},
	},
	"wma": {
		ID: "wma", Name: "WMA", Description: "Windows Media Audio",
		Codec: "wmav2", Ext: "wma", DefaultBitrate: "128k",
		Bitrates: []string{"64k", "96k", "128k", "192k", "256k"},
	},
}

// Resolve looks up a format by id. Callers must resolve before spawning any
// encoder work so bad ids fail before any I/O happens.
func Resolve(id string) (Spec, error) {
	spec, ok := catalog[id]
	if !ok {
		return Spec{}, &UnsupportedFormatError{ID: id}
	}
	return spec, nil
}

// IDs returns the supported format ids in sorted order.
func IDs() []string {
	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All returns every format spec, sorted by id.
func All() []Spec {
	specs := make([]Spec, 0, len(catalog))
	for _, id := range IDs() {
		specs = append(specs, catalog[id])
	}
	return specs
}
