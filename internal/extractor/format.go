package extractor

import (
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/constants"
)

// sniffLen is how much of the file header the container matchers need.
const sniffLen = 8192

// AudioInfo is the technical description of one audio file.
type AudioInfo struct {
	Format          string
	DurationSeconds int
	Bitrate         int
	SampleRate      int
	Channels        int
}

// DetectFormat identifies the container from its magic bytes, falling back
// to the file extension when the header is not recognised.
func DetectFormat(filename string, data []byte) string {
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		if isKnownFormat(kind.Extension) {
			return kind.Extension
		}
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return constants.FormatMP3
	}
	return ext
}

func isKnownFormat(format string) bool {
	if _, ok := constants.ByteRates[format]; ok {
		return true
	}
	return format == constants.FormatOGG
}

// IsLossless reports whether format carries uncompressed or losslessly
// compressed audio.
func IsLossless(format string) bool {
	return format == constants.FormatWAV || format == constants.FormatFLAC
}

// EstimateAudio derives duration and bitrate from the file size using the
// nominal byte rate of the format. Both values are clamped to plausible
// ranges since the byte rate is only an approximation.
func EstimateAudio(format string, size int64) AudioInfo {
	rate, ok := constants.ByteRates[format]
	if !ok {
		rate = constants.ByteRates[constants.FormatMP3]
	}

	duration := clamp(int(size/rate), constants.MinEstimatedDuration, constants.MaxEstimatedDuration)
	bitrate := clamp(int(size*8/int64(duration)/1000), constants.MinEstimatedBitrate, constants.MaxEstimatedBitrate)

	sampleRate := constants.StandardSampleRate
	if !IsLossless(format) && bitrate < constants.LowSampleRateBitrate {
		sampleRate = constants.ReducedSampleRate
	}

	return AudioInfo{
		Format:          format,
		DurationSeconds: duration,
		Bitrate:         bitrate,
		SampleRate:      sampleRate,
		Channels:        constants.DefaultChannels,
	}
}

// applyStream overrides the estimate with values read from the stream
// header. Real durations are kept as they are.
func applyStream(info AudioInfo, stream *streamInfo, size int64) AudioInfo {
	if stream == nil {
		return info
	}
	if stream.SampleRate > 0 {
		info.SampleRate = stream.SampleRate
	}
	if stream.Channels > 0 {
		info.Channels = stream.Channels
	}
	if stream.DurationSeconds > 0 {
		info.DurationSeconds = stream.DurationSeconds
		info.Bitrate = clamp(int(size*8/int64(stream.DurationSeconds)/1000), constants.MinEstimatedBitrate, constants.MaxEstimatedBitrate)
	}
	// Lossless streams are rated by their decoded PCM rate.
	if stream.BitDepth > 0 && info.SampleRate > 0 && info.Channels > 0 {
		pcm := info.SampleRate * stream.BitDepth * info.Channels / 1000
		info.Bitrate = clamp(pcm, constants.MinEstimatedBitrate, constants.MaxEstimatedBitrate)
	}
	return info
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
