package extractor

import (
	"bytes"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/constants"
)

// tagInfo is what the embedded tags of a file tell us. Every field is
// optional; untagged uploads are common.
type tagInfo struct {
	Title      string
	Artist     string
	Genre      string
	HasArtwork bool
	Stream     *streamInfo
}

// streamInfo holds exact stream properties when the container exposes them.
type streamInfo struct {
	SampleRate      int
	Channels        int
	BitDepth        int
	DurationSeconds int
}

// readTags never fails: unreadable tags leave the upload to be classified
// from its filename alone.
func readTags(format string, data []byte) tagInfo {
	switch format {
	case constants.FormatFLAC:
		return readFLAC(data)
	case constants.FormatMP3:
		return readID3(data)
	default:
		return readGeneric(data)
	}
}

func readFLAC(data []byte) tagInfo {
	var info tagInfo

	f, err := flac.ParseMetadata(bytes.NewReader(data))
	if err != nil || len(f.Meta) == 0 {
		return info
	}

	if si, err := f.GetStreamInfo(); err == nil {
		stream := &streamInfo{
			SampleRate: si.SampleRate,
			Channels:   si.ChannelCount,
			BitDepth:   si.BitDepth,
		}
		if si.SampleRate > 0 && si.SampleCount > 0 {
			stream.DurationSeconds = int(si.SampleCount / int64(si.SampleRate))
		}
		info.Stream = stream
	}

	for _, block := range f.Meta {
		switch block.Type {
		case flac.VorbisComment:
			cmts, err := flacvorbis.ParseFromMetaDataBlock(*block)
			if err != nil {
				continue
			}
			info.Title = firstComment(cmts, flacvorbis.FIELD_TITLE)
			info.Artist = firstComment(cmts, flacvorbis.FIELD_ARTIST)
			info.Genre = firstComment(cmts, flacvorbis.FIELD_GENRE)
		case flac.Picture:
			pic, err := flacpicture.ParseFromMetaDataBlock(*block)
			if err == nil && len(pic.ImageData) > 0 {
				info.HasArtwork = true
			}
		}
	}

	return info
}

func firstComment(cmts *flacvorbis.MetaDataBlockVorbisComment, field string) string {
	values, err := cmts.Get(field)
	if err != nil || len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

func readID3(data []byte) tagInfo {
	t, err := id3v2.ParseReader(bytes.NewReader(data), id3v2.Options{Parse: true})
	if err != nil {
		return readGeneric(data)
	}
	defer t.Close()

	info := tagInfo{
		Title:  strings.TrimSpace(t.Title()),
		Artist: strings.TrimSpace(t.Artist()),
		Genre:  strings.TrimSpace(t.Genre()),
	}
	info.HasArtwork = len(t.GetFrames(t.CommonID("Attached picture"))) > 0
	return info
}

func readGeneric(data []byte) tagInfo {
	m, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return tagInfo{}
	}

	info := tagInfo{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
		Genre:  strings.TrimSpace(m.Genre()),
	}
	if pic := m.Picture(); pic != nil && len(pic.Data) > 0 {
		info.HasArtwork = true
	}
	return info
}
