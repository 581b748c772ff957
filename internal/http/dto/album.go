package dto

import (
	"strconv"
	"strings"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
)

type CreateAlbumRequest struct {
	ArtistID int64  `json:"artist_id"`
	Title    string `json:"title"`
}

func (r *CreateAlbumRequest) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateArtistID(r.ArtistID)...)
	errs = append(errs, validateTitle(r.Title)...)
	return errs
}

// UploadFile references a file already written to the blob store.
type UploadFile struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

type AddUploadsRequest struct {
	Files []UploadFile `json:"files"`
}

func (r *AddUploadsRequest) Validate() []ValidationError {
	if len(r.Files) == 0 {
		return []ValidationError{{Field: "files", Message: "at least one file is required"}}
	}
	var errs []ValidationError
	for i, f := range r.Files {
		prefix := "files[" + strconv.Itoa(i) + "]."
		errs = append(errs, validateFilename(prefix+"filename", strings.TrimSpace(f.Filename))...)
		errs = append(errs, validateBlobPath(prefix+"path", f.Path)...)
	}
	return errs
}

type AlbumResponse struct {
	*domain.Album
	Songs []*domain.Song `json:"songs"`
}

func NewAlbumResponse(a *domain.Album, songs []*domain.Song) AlbumResponse {
	if songs == nil {
		songs = []*domain.Song{}
	}
	return AlbumResponse{Album: a, Songs: songs}
}

type UploadsResponse struct {
	Uploads []*domain.Upload `json:"uploads"`
}
