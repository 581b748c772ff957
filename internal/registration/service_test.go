package registration

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/logger"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/store"
)

// fakeClient returns scripted responses and records what it was sent.
type fakeClient struct {
	resp     Response
	err      error
	intlResp Response
	requests []Request
	intl     []InternationalRequest
}

func (f *fakeClient) Register(_ context.Context, req Request) (Response, error) {
	f.requests = append(f.requests, req)
	return f.resp, f.err
}

func (f *fakeClient) RegisterInternational(_ context.Context, req InternationalRequest) (Response, error) {
	f.intl = append(f.intl, req)
	if f.intlResp.Success || f.intlResp.ErrorCode != "" {
		return f.intlResp, nil
	}
	return Response{Success: true, Reference: req.Reference, Territories: req.Territories}, nil
}

func setupService(t *testing.T, client Client) (*Service, *store.DB) {
	t.Helper()
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewService(db, client, "UG", logger.Discard()), db
}

func createISRC(t *testing.T, db *store.DB, code string, territories ...string) *domain.ISRCCode {
	t.Helper()
	ctx := context.Background()

	album := &domain.Album{ArtistID: 5, Title: "Omukwano", BatchID: domain.NewBatchID()}
	if err := db.CreateAlbum(ctx, album); err != nil {
		t.Fatalf("CreateAlbum failed: %v", err)
	}
	upload := &domain.Upload{
		BatchID:          album.BatchID,
		ArtistID:         album.ArtistID,
		AlbumID:          album.ID,
		OriginalFilename: "song.mp3",
		FilePath:         "uploads/song.mp3",
	}
	if err := db.CreateUpload(ctx, upload); err != nil {
		t.Fatalf("CreateUpload failed: %v", err)
	}
	song := &domain.Song{
		AlbumID:                 album.ID,
		ArtistID:                album.ArtistID,
		UploadID:                upload.ID,
		Title:                   "Webale",
		TrackNumber:             1,
		DurationSeconds:         210,
		PrimaryLanguage:         "Luganda",
		Languages:               domain.StringSlice{"Luganda"},
		DistributionTerritories: territories,
	}
	if err := db.CreateSong(ctx, song); err != nil {
		t.Fatalf("CreateSong failed: %v", err)
	}
	c := &domain.ISRCCode{
		Code:            code,
		CountryCode:     "UG",
		RegistrantCode:  "TES",
		YearCode:        "26",
		DesignationCode: 1,
		SongID:          song.ID,
	}
	if err := db.CreateISRC(ctx, c); err != nil {
		t.Fatalf("CreateISRC failed: %v", err)
	}
	return c
}

func TestRegister_SuccessEnqueuesInternational(t *testing.T) {
	client := &fakeClient{resp: Response{Success: true, Reference: "REF-77", Authority: "URSB"}}
	svc, db := setupService(t, client)
	ctx := context.Background()

	code := createISRC(t, db, "UGTES2600001", "UG", "KE", "Global")

	if err := svc.Register(ctx, code.ID); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, _ := db.GetISRC(ctx, code.ID)
	if got.Status != domain.ISRCStatusRegistered {
		t.Fatalf("Expected registered, got %s", got.Status)
	}
	if got.RegistrationReference == nil || *got.RegistrationReference != "REF-77" {
		t.Errorf("Expected reference REF-77, got %v", got.RegistrationReference)
	}
	if len(client.requests) != 1 || client.requests[0].Album != "Omukwano" || client.requests[0].Language != "Luganda" {
		t.Errorf("Unexpected request %+v", client.requests)
	}

	task, err := db.GetActiveTask(ctx, domain.TaskTypeRegisterInternational, domain.InternationalDedupeKey(code.Code))
	if err != nil || task == nil {
		t.Fatalf("Expected international task, got %v %v", task, err)
	}
	var payload domain.InternationalPayload
	if err := task.Decode(&payload); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !reflect.DeepEqual(payload.Territories, []string{"KE", "Global"}) {
		t.Errorf("Expected foreign territories only, got %v", payload.Territories)
	}

	// A redelivered task must not resubmit or enqueue again.
	if err := svc.Register(ctx, code.ID); err != nil {
		t.Fatalf("second Register failed: %v", err)
	}
	if len(client.requests) != 1 {
		t.Errorf("Expected no resubmission, got %d requests", len(client.requests))
	}
}

func TestRegister_DomesticOnlySkipsInternational(t *testing.T) {
	svc, db := setupService(t, &fakeClient{resp: Response{Success: true, Reference: "R", Authority: "A"}})
	ctx := context.Background()

	code := createISRC(t, db, "UGTES2600001", "UG")
	if err := svc.Register(ctx, code.ID); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	task, err := db.GetActiveTask(ctx, domain.TaskTypeRegisterInternational, domain.InternationalDedupeKey(code.Code))
	if err != nil {
		t.Fatalf("GetActiveTask failed: %v", err)
	}
	if task != nil {
		t.Errorf("Expected no international task, got %+v", task)
	}
}

func TestRegister_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		resp      Response
		status    domain.ISRCStatus
		wantErr   bool
		retryable bool
	}{
		{
			name:   "duplicate is disputed",
			resp:   Response{ErrorCode: "DUPLICATE_ISRC", Message: "already assigned"},
			status: domain.ISRCStatusDisputed,
		},
		{
			name:      "validation stays pending and retries",
			resp:      Response{ErrorCode: "VALIDATION_ERROR", Message: "title missing"},
			status:    domain.ISRCStatusPending,
			wantErr:   true,
			retryable: true,
		},
		{
			name:   "unknown code is disputed",
			resp:   Response{ErrorCode: "RIGHTS_CONFLICT"},
			status: domain.ISRCStatusDisputed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, db := setupService(t, &fakeClient{resp: tt.resp})
			ctx := context.Background()
			code := createISRC(t, db, "UGTES2600001", "UG")

			err := svc.Register(ctx, code.ID)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Register error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && domain.Retryable(err) != tt.retryable {
				t.Errorf("Retryable(%v) = %v", err, domain.Retryable(err))
			}

			got, _ := db.GetISRC(ctx, code.ID)
			if got.Status != tt.status {
				t.Errorf("Expected %s, got %s", tt.status, got.Status)
			}
			if got.Notes == nil || *got.Notes == "" {
				t.Error("Expected notes to be recorded")
			}
		})
	}
}

func TestRegister_TransportErrorThenExhaustion(t *testing.T) {
	svc, db := setupService(t, &fakeClient{err: errors.New("connection reset")})
	ctx := context.Background()
	code := createISRC(t, db, "UGTES2600001", "UG")

	err := svc.Register(ctx, code.ID)
	if !errors.Is(err, domain.ErrTransientDependency) || !domain.Retryable(err) {
		t.Fatalf("Expected retryable transient error, got %v", err)
	}
	got, _ := db.GetISRC(ctx, code.ID)
	if got.Status != domain.ISRCStatusPending || got.Notes == nil {
		t.Fatalf("Expected pending with notes, got %s", got.Status)
	}

	if err := svc.MarkDisputed(ctx, code.ID, "connection reset"); err != nil {
		t.Fatalf("MarkDisputed failed: %v", err)
	}
	got, _ = db.GetISRC(ctx, code.ID)
	if got.Status != domain.ISRCStatusDisputed {
		t.Errorf("Expected disputed after exhaustion, got %s", got.Status)
	}
}

func TestRegister_InvalidFormat(t *testing.T) {
	client := &fakeClient{resp: Response{Success: true}}
	svc, db := setupService(t, client)
	ctx := context.Background()
	code := createISRC(t, db, "UG-TES-26-1", "UG")

	err := svc.Register(ctx, code.ID)
	if !errors.Is(err, domain.ErrValidation) || domain.Retryable(err) {
		t.Fatalf("Expected fatal validation error, got %v", err)
	}
	got, _ := db.GetISRC(ctx, code.ID)
	if got.Status != domain.ISRCStatusDisputed {
		t.Errorf("Expected disputed, got %s", got.Status)
	}
	if len(client.requests) != 0 {
		t.Error("Invalid code must not be submitted")
	}
}

func TestRegisterInternational(t *testing.T) {
	client := &fakeClient{resp: Response{Success: true, Reference: "REF-1", Authority: "URSB"}}
	svc, db := setupService(t, client)
	ctx := context.Background()
	code := createISRC(t, db, "UGTES2600001", "UG", "KE")

	payload := domain.InternationalPayload{ISRCID: code.ID, Territories: []string{"KE"}}
	err := svc.RegisterInternational(ctx, payload)
	if !errors.Is(err, domain.ErrPrereqNotMet) || domain.Retryable(err) {
		t.Fatalf("Expected fatal ErrPrereqNotMet, got %v", err)
	}

	if err := svc.Register(ctx, code.ID); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := svc.RegisterInternational(ctx, payload); err != nil {
		t.Fatalf("RegisterInternational failed: %v", err)
	}

	got, _ := db.GetISRC(ctx, code.ID)
	if !got.InternationalRegistration || got.InternationalRegisteredAt == nil {
		t.Fatalf("Expected international registration, got %+v", got)
	}
	if !reflect.DeepEqual([]string(got.InternationalTerritories), []string{"KE"}) {
		t.Errorf("Unexpected territories %v", got.InternationalTerritories)
	}
	if len(client.intl) != 1 || client.intl[0].Reference != "REF-1" {
		t.Errorf("Unexpected international requests %+v", client.intl)
	}

	// Already extended: nothing more is sent.
	if err := svc.RegisterInternational(ctx, payload); err != nil {
		t.Fatalf("repeat RegisterInternational failed: %v", err)
	}
	if len(client.intl) != 1 {
		t.Errorf("Expected a single international request, got %d", len(client.intl))
	}
}

func TestSimulatedClient(t *testing.T) {
	c := NewSimulatedClient("")
	first, err := c.Register(context.Background(), Request{ISRC: "UGTES2600001"})
	if err != nil || !first.Success {
		t.Fatalf("Expected success, got %+v %v", first, err)
	}
	second, _ := c.Register(context.Background(), Request{ISRC: "UGTES2600001"})
	if first.Reference == second.Reference {
		t.Error("Expected distinct references")
	}
	if first.Authority != "simulated-registry" {
		t.Errorf("Unexpected authority %q", first.Authority)
	}
}
