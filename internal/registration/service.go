// Package registration submits generated ISRCs to the registration authority
// and tracks the resulting status.
package registration

import (
	"context"
	"errors"
	"fmt"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/constants"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/identifiers"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/logger"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/store"
)

// Service moves ISRCs through domestic and international registration.
type Service struct {
	db          *store.DB
	client      Client
	homeCountry string
	logger      *logger.Logger
}

func NewService(db *store.DB, client Client, homeCountry string, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		db:          db,
		client:      client,
		homeCountry: homeCountry,
		logger:      log.WithComponent("registration"),
	}
}

// Register submits one pending ISRC. Registered and disputed codes are left
// as they are, so redelivered tasks are harmless.
func (s *Service) Register(ctx context.Context, isrcID int64) error {
	code, err := s.db.GetISRC(ctx, isrcID)
	if err != nil {
		return err
	}
	log := s.logger.With("isrc", code.Code)

	if !identifiers.ValidISRC(code.Code) {
		if _, err := s.db.MarkISRCDisputed(ctx, code.ID, "invalid ISRC format"); err != nil {
			return err
		}
		return fmt.Errorf("%w: isrc %q has an invalid format", domain.ErrValidation, code.Code)
	}

	switch code.Status {
	case domain.ISRCStatusRegistered, domain.ISRCStatusDisputed:
		log.Debug("ISRC already settled", "status", code.Status)
		return nil
	}

	req, err := s.buildRequest(ctx, code)
	if err != nil {
		return err
	}

	resp, err := s.client.Register(ctx, req)
	if err != nil {
		if noteErr := s.db.SetISRCNotes(ctx, code.ID, err.Error()); noteErr != nil {
			log.Warn("Failed to store registration notes", "error", noteErr)
		}
		if errors.Is(err, domain.ErrTransientDependency) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrTransientDependency, err)
	}

	if resp.Success {
		return s.markRegistered(ctx, code, req.Territories, resp)
	}
	return s.handleRejection(ctx, code, resp)
}

func (s *Service) markRegistered(ctx context.Context, code *domain.ISRCCode, territories []string, resp Response) error {
	foreign := s.foreignTerritories(territories)

	err := s.db.RunInTx(ctx, func(tx *store.DB) error {
		moved, err := tx.MarkISRCRegistered(ctx, code.ID, resp.Reference, resp.Authority)
		if err != nil {
			return err
		}
		if !moved || len(foreign) == 0 {
			return nil
		}

		task, err := domain.NewTask(domain.TaskTypeRegisterInternational,
			domain.InternationalPayload{ISRCID: code.ID, Territories: foreign},
			domain.InternationalDedupeKey(code.Code),
			tx.Now())
		if err != nil {
			return err
		}
		_, err = tx.EnqueueTask(ctx, task)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to record registration of %s: %w", code.Code, err)
	}

	s.logger.Info("ISRC registered",
		"isrc", code.Code,
		"reference", resp.Reference,
		"authority", resp.Authority,
		"international", len(foreign) > 0,
	)
	return nil
}

func (s *Service) handleRejection(ctx context.Context, code *domain.ISRCCode, resp Response) error {
	notes := rejectionNotes(resp)

	if resp.ErrorCode == constants.RegistryCodeValidation {
		if err := s.db.SetISRCNotes(ctx, code.ID, notes); err != nil {
			return err
		}
		return fmt.Errorf("%w: registry rejected %s: %s", domain.ErrTransientDependency, code.Code, notes)
	}

	if _, err := s.db.MarkISRCDisputed(ctx, code.ID, notes); err != nil {
		return err
	}
	s.logger.Warn("ISRC disputed", "isrc", code.Code, "code", resp.ErrorCode, "notes", notes)
	return nil
}

// MarkDisputed is the terminal handler once registration retries run out.
func (s *Service) MarkDisputed(ctx context.Context, isrcID int64, reason string) error {
	_, err := s.db.MarkISRCDisputed(ctx, isrcID, reason)
	return err
}

// RegisterInternational extends a registered ISRC to the given territories.
func (s *Service) RegisterInternational(ctx context.Context, p domain.InternationalPayload) error {
	code, err := s.db.GetISRC(ctx, p.ISRCID)
	if err != nil {
		return err
	}
	if code.Status != domain.ISRCStatusRegistered {
		return fmt.Errorf("%w: isrc %s is %s, not registered", domain.ErrPrereqNotMet, code.Code, code.Status)
	}
	if code.InternationalRegistration {
		return nil
	}

	resp, err := s.client.RegisterInternational(ctx, InternationalRequest{
		ISRC:        code.Code,
		Reference:   deref(code.RegistrationReference),
		Territories: p.Territories,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransientDependency, err)
	}
	if !resp.Success {
		notes := rejectionNotes(resp)
		if err := s.db.SetISRCNotes(ctx, code.ID, notes); err != nil {
			return err
		}
		return fmt.Errorf("%w: international registration of %s rejected: %s", domain.ErrTransientDependency, code.Code, notes)
	}

	granted := resp.Territories
	if len(granted) == 0 {
		granted = p.Territories
	}
	if err := s.db.MarkISRCInternational(ctx, code.ID, granted, s.db.Now()); err != nil {
		return err
	}
	s.logger.Info("ISRC registered internationally", "isrc", code.Code, "territories", granted)
	return nil
}

func (s *Service) buildRequest(ctx context.Context, code *domain.ISRCCode) (Request, error) {
	song, err := s.db.GetSong(ctx, code.SongID)
	if err != nil {
		return Request{}, err
	}
	album, err := s.db.GetAlbum(ctx, song.AlbumID)
	if err != nil {
		return Request{}, err
	}

	artist := fmt.Sprintf("artist-%d", song.ArtistID)
	if upload, err := s.db.GetUpload(ctx, song.UploadID); err == nil && upload.DetectedArtist != "" {
		artist = upload.DetectedArtist
	}

	return Request{
		ISRC:            code.Code,
		Title:           song.Title,
		Artist:          artist,
		Album:           album.Title,
		DurationSeconds: song.DurationSeconds,
		Territories:     song.DistributionTerritories,
		RightsHolder:    code.RegistrantCode,
		Language:        song.PrimaryLanguage,
		Explicit:        song.ExplicitContent,
	}, nil
}

// foreignTerritories drops the home country, keeping order.
func (s *Service) foreignTerritories(territories []string) []string {
	var foreign []string
	for _, t := range territories {
		if t != s.homeCountry {
			foreign = append(foreign, t)
		}
	}
	return foreign
}

func rejectionNotes(resp Response) string {
	if resp.Message == "" {
		return resp.ErrorCode
	}
	if resp.ErrorCode == "" {
		return resp.Message
	}
	return resp.ErrorCode + ": " + resp.Message
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
