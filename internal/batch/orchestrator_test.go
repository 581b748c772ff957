package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/config"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/identifiers"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/logger"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/store"
)

var fixedNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

var testIdentity = Identity{ISRCCountry: "UG", ISRCRegistrant: "TES", UPCPrefix: "800"}

func setupOrchestrator(t *testing.T) (*Orchestrator, *store.DB) {
	t.Helper()
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	db.Now = func() time.Time { return fixedNow }

	return New(db, config.DefaultPolicy(), testIdentity, logger.Discard()), db
}

func createAlbum(t *testing.T, db *store.DB, artistID int64) *domain.Album {
	t.Helper()
	album := &domain.Album{ArtistID: artistID, Title: "Ebyafaayo", BatchID: domain.NewBatchID()}
	if err := db.CreateAlbum(context.Background(), album); err != nil {
		t.Fatalf("CreateAlbum failed: %v", err)
	}
	return album
}

func addUpload(t *testing.T, db *store.DB, album *domain.Album, filename string) *domain.Upload {
	t.Helper()
	u := &domain.Upload{
		BatchID:          album.BatchID,
		ArtistID:         album.ArtistID,
		AlbumID:          album.ID,
		OriginalFilename: filename,
		FilePath:         "uploads/" + filename,
		FileSize:         4_000_000,
	}
	if err := db.CreateUpload(context.Background(), u); err != nil {
		t.Fatalf("CreateUpload failed: %v", err)
	}
	return u
}

func extraction(title string, score int, languages ...string) domain.Extraction {
	if len(languages) == 0 {
		languages = []string{"English"}
	}
	return domain.Extraction{
		DurationSeconds:          200,
		Bitrate:                  320,
		SampleRate:               44100,
		Channels:                 2,
		Format:                   "mp3",
		RawQualityScore:          score,
		QualityScore:             score,
		Issues:                   domain.StringSlice{},
		DetectedTitle:            title,
		DetectedLanguages:        languages,
		VocalPercentage:          80,
		ClassificationConfidence: 0.9,
		ReadyForDistribution:     score >= 70,
	}
}

func process(t *testing.T, db *store.DB, u *domain.Upload, ext domain.Extraction) {
	t.Helper()
	if err := db.SaveExtraction(context.Background(), u.ID, ext); err != nil {
		t.Fatalf("SaveExtraction failed: %v", err)
	}
}

func TestOrchestrator_WaitsThenPromotes(t *testing.T) {
	o, db := setupOrchestrator(t)
	ctx := context.Background()

	album := createAlbum(t, db, 42)
	u1 := addUpload(t, db, album, "one.mp3")
	u2 := addUpload(t, db, album, "two.mp3")
	u3 := addUpload(t, db, album, "three.mp3")
	process(t, db, u1, extraction("Webale", 100, "Luganda"))
	process(t, db, u2, extraction("Nakupenda", 90, "Swahili"))

	res, err := o.Run(ctx, album.BatchID, album.ID)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Outcome != OutcomeAwaitingSiblings {
		t.Fatalf("Expected to wait for siblings, got %s", res.Outcome)
	}
	if res.Progress.Pending != 1 || res.Progress.Processed != 2 {
		t.Errorf("Unexpected progress %+v", res.Progress)
	}
	songs, _ := db.ListSongsByAlbum(ctx, album.ID)
	if len(songs) != 0 {
		t.Fatalf("Expected no songs while waiting, got %d", len(songs))
	}
	waiting, _ := db.GetAlbum(ctx, album.ID)
	if waiting.BatchUploadStatus != domain.BatchStatusProcessing || waiting.TracksProcessed != 2 {
		t.Errorf("Expected processing with 2 processed, got %s/%d", waiting.BatchUploadStatus, waiting.TracksProcessed)
	}

	process(t, db, u3, extraction("Hello", 80))

	res, err = o.Run(ctx, album.BatchID, album.ID)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Outcome != OutcomePromoted || res.Songs != 3 {
		t.Fatalf("Expected 3 promoted songs, got %s/%d", res.Outcome, res.Songs)
	}

	songs, err = db.ListSongsByAlbum(ctx, album.ID)
	if err != nil {
		t.Fatalf("ListSongsByAlbum failed: %v", err)
	}
	if len(songs) != 3 {
		t.Fatalf("Expected 3 songs, got %d", len(songs))
	}
	for i, s := range songs {
		if s.TrackNumber != i+1 {
			t.Errorf("Expected track %d, got %d", i+1, s.TrackNumber)
		}
		if s.ISRCCode == nil {
			t.Fatalf("Song %d has no ISRC", s.ID)
		}
		want := fmt.Sprintf("UGTES26%05d", i+1)
		if *s.ISRCCode != want {
			t.Errorf("Expected ISRC %s, got %s", want, *s.ISRCCode)
		}
		if !identifiers.ValidISRC(*s.ISRCCode) {
			t.Errorf("Invalid ISRC %s", *s.ISRCCode)
		}
	}
	if songs[0].Title != "Webale" || songs[0].PrimaryLanguage != "Luganda" || !songs[0].ContainsLocalContent {
		t.Errorf("Unexpected first song %+v", songs[0])
	}

	tasks, err := db.ListTasksByStatus(ctx, domain.TaskStatusQueued, 10)
	if err != nil {
		t.Fatalf("ListTasksByStatus failed: %v", err)
	}
	registrations := 0
	for _, task := range tasks {
		if task.Type == domain.TaskTypeRegisterISRC {
			registrations++
		}
	}
	if registrations != 3 {
		t.Errorf("Expected 3 registration tasks, got %d", registrations)
	}

	promoted, _ := db.GetAlbum(ctx, album.ID)
	if promoted.BatchUploadStatus != domain.BatchStatusCompleted {
		t.Errorf("Expected completed, got %s", promoted.BatchUploadStatus)
	}
	if promoted.DistributionStatus != domain.DistributionPendingReview {
		t.Errorf("Expected pending_review, got %s", promoted.DistributionStatus)
	}
	if promoted.UPCCode == nil || !identifiers.ValidUPC(*promoted.UPCCode) || *promoted.UPCCode != res.UPC {
		t.Errorf("Expected a valid UPC, got %v", promoted.UPCCode)
	}
	if promoted.TotalTracks != 3 || promoted.TotalDuration != 600 {
		t.Errorf("Expected counters 3/600, got %d/%d", promoted.TotalTracks, promoted.TotalDuration)
	}
	if promoted.PrimaryLanguage != "Luganda" || promoted.CulturalTheme != "Afro-Fusion" {
		t.Errorf("Unexpected aggregates %q %q", promoted.PrimaryLanguage, promoted.CulturalTheme)
	}

	review, err := db.GetReviewByAlbum(ctx, album.ID)
	if err != nil {
		t.Fatalf("GetReviewByAlbum failed: %v", err)
	}
	if review.Priority != domain.ReviewPriorityMedium || !review.CulturalSensitivity {
		t.Errorf("Unexpected review %+v", review)
	}

	res, err = o.Run(ctx, album.BatchID, album.ID)
	if err != nil {
		t.Fatalf("rerun failed: %v", err)
	}
	if res.Outcome != OutcomeAlreadyCompleted || res.UPC != *promoted.UPCCode {
		t.Errorf("Expected already completed with same UPC, got %+v", res)
	}
	songs, _ = db.ListSongsByAlbum(ctx, album.ID)
	if len(songs) != 3 {
		t.Errorf("Rerun must not create songs, got %d", len(songs))
	}
}

func TestOrchestrator_AllOrNothing(t *testing.T) {
	o, db := setupOrchestrator(t)
	ctx := context.Background()

	album := createAlbum(t, db, 42)
	for i := 1; i <= 3; i++ {
		u := addUpload(t, db, album, fmt.Sprintf("track%d.mp3", i))
		process(t, db, u, extraction(fmt.Sprintf("Track %d", i), 90))
	}

	// Occupy the designation the second song would receive.
	blocker := &domain.ISRCCode{
		Code:            "UGTES2600002",
		CountryCode:     "UG",
		RegistrantCode:  "TES",
		YearCode:        "26",
		DesignationCode: 2,
		SongID:          9999,
	}
	if err := db.CreateISRC(ctx, blocker); err != nil {
		t.Fatalf("CreateISRC failed: %v", err)
	}

	_, err := o.Run(ctx, album.BatchID, album.ID)
	if !errors.Is(err, domain.ErrAllOrNothing) {
		t.Fatalf("Expected ErrAllOrNothing, got %v", err)
	}
	if !domain.Retryable(err) {
		t.Error("A rolled back promotion should be retryable")
	}

	songs, _ := db.ListSongsByAlbum(ctx, album.ID)
	if len(songs) != 0 {
		t.Fatalf("Expected rollback to leave no songs, got %d", len(songs))
	}
	uploads, _ := db.ListUploadsByBatch(ctx, album.BatchID, album.ArtistID)
	for _, u := range uploads {
		if u.SongID != nil {
			t.Errorf("Upload %d still linked to song %d", u.ID, *u.SongID)
		}
	}
	failed, _ := db.GetAlbum(ctx, album.ID)
	if failed.BatchUploadStatus != domain.BatchStatusFailed || failed.BatchError == nil {
		t.Errorf("Expected failed album with reason, got %s", failed.BatchUploadStatus)
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM isrc_codes WHERE id = ?`, blocker.ID); err != nil {
		t.Fatalf("delete blocker: %v", err)
	}

	res, err := o.Run(ctx, album.BatchID, album.ID)
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if res.Songs != 3 {
		t.Errorf("Expected 3 songs after retry, got %d", res.Songs)
	}
}

func TestOrchestrator_EmptyBatch(t *testing.T) {
	o, db := setupOrchestrator(t)
	album := createAlbum(t, db, 42)

	_, err := o.Run(context.Background(), album.BatchID, album.ID)
	if !errors.Is(err, domain.ErrEmptyBatch) {
		t.Fatalf("Expected ErrEmptyBatch, got %v", err)
	}
	if domain.Retryable(err) {
		t.Error("Empty batch must not be retried")
	}
}

func TestOrchestrator_RejectsForeignBatch(t *testing.T) {
	o, db := setupOrchestrator(t)
	album := createAlbum(t, db, 42)

	_, err := o.Run(context.Background(), domain.NewBatchID(), album.ID)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Expected ErrValidation, got %v", err)
	}
	_, err = o.Run(context.Background(), " ", album.ID)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Expected ErrValidation for blank batch, got %v", err)
	}
}

func TestOrchestrator_NoValidUploads(t *testing.T) {
	o, db := setupOrchestrator(t)
	ctx := context.Background()

	album := createAlbum(t, db, 42)
	u1 := addUpload(t, db, album, "bad.mp3")
	u2 := addUpload(t, db, album, "gone.mp3")
	process(t, db, u1, extraction("Bad", 40))
	if err := db.MarkUploadFailed(ctx, u2.ID, "blob missing"); err != nil {
		t.Fatalf("MarkUploadFailed failed: %v", err)
	}

	_, err := o.Run(ctx, album.BatchID, album.ID)
	if !errors.Is(err, domain.ErrNoValidUploads) {
		t.Fatalf("Expected ErrNoValidUploads, got %v", err)
	}

	got, _ := db.GetAlbum(ctx, album.ID)
	if got.BatchUploadStatus != domain.BatchStatusFailed {
		t.Errorf("Expected failed album, got %s", got.BatchUploadStatus)
	}
	if got.UPCCode != nil {
		t.Error("Failed batch must not get a UPC")
	}
}

func TestOrchestrator_SkipsBlockedAndFailedUploads(t *testing.T) {
	o, db := setupOrchestrator(t)
	ctx := context.Background()

	album := createAlbum(t, db, 42)
	good := addUpload(t, db, album, "good.mp3")
	clipped := addUpload(t, db, album, "clipped.mp3")
	broken := addUpload(t, db, album, "broken.mp3")
	another := addUpload(t, db, album, "another.mp3")

	process(t, db, good, extraction("Good", 95))
	ext := extraction("Clipped", 85)
	ext.Issues = domain.StringSlice{"clipping"}
	process(t, db, clipped, ext)
	if err := db.MarkUploadFailed(ctx, broken.ID, "decode error"); err != nil {
		t.Fatalf("MarkUploadFailed failed: %v", err)
	}
	process(t, db, another, extraction("Another", 75))

	res, err := o.Run(ctx, album.BatchID, album.ID)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Songs != 2 {
		t.Fatalf("Expected 2 songs, got %d", res.Songs)
	}

	songs, _ := db.ListSongsByAlbum(ctx, album.ID)
	if len(songs) != 2 || songs[0].UploadID != good.ID || songs[1].UploadID != another.ID {
		t.Fatalf("Unexpected songs %+v", songs)
	}
	if songs[1].TrackNumber != 2 {
		t.Errorf("Track numbers must be contiguous over valid uploads, got %d", songs[1].TrackNumber)
	}

	skipped, _ := db.GetUpload(ctx, clipped.ID)
	if skipped.SongID != nil {
		t.Error("Blocked upload must not be linked to a song")
	}
}

func TestOrchestrator_RepromotionAppendsTracks(t *testing.T) {
	o, db := setupOrchestrator(t)
	ctx := context.Background()

	album := createAlbum(t, db, 42)
	u1 := addUpload(t, db, album, "one.mp3")
	u2 := addUpload(t, db, album, "two.mp3")
	u3 := addUpload(t, db, album, "three.mp3")
	process(t, db, u1, extraction("One", 95))
	if err := db.MarkUploadFailed(ctx, u2.ID, "decode error"); err != nil {
		t.Fatalf("MarkUploadFailed failed: %v", err)
	}
	process(t, db, u3, extraction("Three", 90))

	if _, err := o.Run(ctx, album.BatchID, album.ID); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}

	// A later step failed after the songs were committed, and the failed
	// sibling then extracted cleanly on retry.
	if err := db.FailAlbumBatch(ctx, album.ID, "review insert failed"); err != nil {
		t.Fatalf("FailAlbumBatch failed: %v", err)
	}
	process(t, db, u2, extraction("Two", 85))

	res, err := o.Run(ctx, album.BatchID, album.ID)
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if res.Outcome != OutcomePromoted || res.Songs != 1 {
		t.Fatalf("Expected one new song, got %+v", res)
	}

	songs, _ := db.ListSongsByAlbum(ctx, album.ID)
	want := map[int64]int{u1.ID: 1, u3.ID: 2, u2.ID: 3}
	if len(songs) != len(want) {
		t.Fatalf("Expected %d songs, got %d", len(want), len(songs))
	}
	for _, s := range songs {
		if want[s.UploadID] != s.TrackNumber {
			t.Errorf("Upload %d got track %d, want %d", s.UploadID, s.TrackNumber, want[s.UploadID])
		}
	}

	got, _ := db.GetAlbum(ctx, album.ID)
	if got.BatchUploadStatus != domain.BatchStatusCompleted {
		t.Errorf("Expected completed batch, got %s", got.BatchUploadStatus)
	}
	codes, _ := db.ListISRCsByAlbum(ctx, album.ID)
	if len(codes) != 3 {
		t.Errorf("Expected 3 ISRCs, got %d", len(codes))
	}
}

func TestOrchestrator_KeepsExistingUPC(t *testing.T) {
	o, db := setupOrchestrator(t)
	ctx := context.Background()

	album := createAlbum(t, db, 42)
	u := addUpload(t, db, album, "one.mp3")
	process(t, db, u, extraction("One", 90))

	if _, err := db.SetAlbumUPC(ctx, album.ID, "800000700128"); err != nil {
		t.Fatalf("SetAlbumUPC failed: %v", err)
	}

	res, err := o.Run(ctx, album.BatchID, album.ID)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.UPC != "800000700128" {
		t.Errorf("Expected stored UPC to be kept, got %s", res.UPC)
	}
}

func TestOrchestrator_ConcurrentAlbumsGetDistinctDesignations(t *testing.T) {
	o, db := setupOrchestrator(t)
	ctx := context.Background()

	var albums []*domain.Album
	for a := 0; a < 4; a++ {
		album := createAlbum(t, db, int64(10+a))
		for i := 0; i < 3; i++ {
			u := addUpload(t, db, album, fmt.Sprintf("a%d-t%d.mp3", a, i))
			process(t, db, u, extraction(fmt.Sprintf("Song %d", i), 90))
		}
		albums = append(albums, album)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(albums))
	for _, album := range albums {
		wg.Add(1)
		go func(a *domain.Album) {
			defer wg.Done()
			if _, err := o.Run(ctx, a.BatchID, a.ID); err != nil {
				errs <- err
			}
		}(album)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Run failed: %v", err)
	}

	seen := make(map[int]bool)
	for _, album := range albums {
		codes, err := db.ListISRCsByAlbum(ctx, album.ID)
		if err != nil {
			t.Fatalf("ListISRCsByAlbum failed: %v", err)
		}
		for _, c := range codes {
			if seen[c.DesignationCode] {
				t.Errorf("Designation %d allocated twice", c.DesignationCode)
			}
			seen[c.DesignationCode] = true
		}
	}
	for d := 1; d <= 12; d++ {
		if !seen[d] {
			t.Errorf("Expected gapless designations, %d missing", d)
		}
	}
}
