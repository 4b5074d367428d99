package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/anonto42/regional-voices/backend/internal/models"
	"github.com/anonto42/regional-voices/backend/internal/repositories"
	"github.com/anonto42/regional-voices/backend/pkg/media"
	"github.com/anonto42/regional-voices/backend/pkg/metrics"
	"github.com/anonto42/regional-voices/backend/validators"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ScriptTelugu restricts contribution text to the Telugu script
const ScriptTelugu = "telugu"

const sniffLen = 3072

// Upload is one optional media file of a contribution
type Upload struct {
	Filename string
	Content  io.Reader
}

// ContributionInput carries the create-post form. Tags name the form fields
// so validation messages land on the right inputs.
type ContributionInput struct {
	RegionID uint    `form:"state" validate:"required"`
	Category string  `form:"category" validate:"required,category"`
	Text     string  `form:"text_content" validate:"required"`
	Image    *Upload `validate:"-"`
	Audio    *Upload `validate:"-"`
	Video    *Upload `validate:"-"`
}

// ContentService accepts new contributions and stores their media
type ContentService struct {
	contributions repositories.ContributionRepository
	regions       repositories.RegionRepository
	store         media.Store
	validator     *validators.CustomValidator
	script        string
	log           *logrus.Logger
	now           func() time.Time
}

// NewContentService creates a ContentService. script is "" or ScriptTelugu.
func NewContentService(contributions repositories.ContributionRepository, regions repositories.RegionRepository, store media.Store, v *validators.CustomValidator, script string, log *logrus.Logger) *ContentService {
	return &ContentService{
		contributions: contributions,
		regions:       regions,
		store:         store,
		validator:     v,
		script:        script,
		log:           log,
		now:           time.Now,
	}
}

// Script returns the configured content script, "" when any script is accepted
func (s *ContentService) Script() string {
	return s.script
}

// ListRegions returns the regions offered on the create-post form
func (s *ContentService) ListRegions(ctx context.Context) ([]models.Region, error) {
	return s.regions.ListRegions(ctx)
}

// sniffedUpload is an upload whose type has been checked but not yet stored
type sniffedUpload struct {
	upload *Upload
	head   []byte
	mime   *mimetype.MIME
	folder string
	kind   string
	dst    **string
}

// CreateContribution validates the form and every upload before storing
// anything. Media already stored is removed again when a later step fails.
func (s *ContentService) CreateContribution(ctx context.Context, author *models.User, in ContributionInput) (*models.Contribution, error) {
	in.Text = strings.TrimSpace(in.Text)

	fields := validators.ToFields(s.validator.Validate(in))
	if fields == nil {
		fields = make(map[string]string)
	}
	if _, bad := fields["state"]; !bad {
		if _, err := s.regions.GetRegionByID(ctx, in.RegionID); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("load region: %w", err)
			}
			fields["state"] = "Select a valid choice. That choice is not one of the available choices."
		}
	}
	if _, bad := fields["text_content"]; !bad && s.script == ScriptTelugu {
		if err := s.validator.Var(in.Text, "telugu"); err != nil {
			fields["text_content"] = validators.TeluguMessage
		}
	}

	contribution := &models.Contribution{
		AuthorID: author.ID,
		RegionID: in.RegionID,
		Text:     in.Text,
	}

	var uploads []sniffedUpload
	for _, slot := range []struct {
		upload *Upload
		folder string
		kind   string
		field  string
		dst    **string
	}{
		{in.Image, media.FolderImages, "image", "image_content", &contribution.ImagePath},
		{in.Audio, media.FolderAudio, "audio", "audio_content", &contribution.AudioPath},
		{in.Video, media.FolderVideos, "video", "video_content", &contribution.VideoPath},
	} {
		if slot.upload == nil || slot.upload.Content == nil {
			continue
		}
		sniffed, msg, err := sniff(slot.upload, slot.kind)
		if err != nil {
			return nil, err
		}
		if msg != "" {
			fields[slot.field] = msg
			continue
		}
		sniffed.folder, sniffed.dst = slot.folder, slot.dst
		uploads = append(uploads, *sniffed)
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	category, _ := models.ParseCategory(in.Category)
	contribution.Category = category
	contribution.SubmittedAt = s.now()

	var saved []string
	for _, up := range uploads {
		ref, err := s.save(ctx, up)
		if err != nil {
			s.discard(ctx, saved)
			return nil, err
		}
		saved = append(saved, ref)
		*up.dst = &ref
	}

	if err := s.contributions.CreateContribution(ctx, contribution); err != nil {
		s.discard(ctx, saved)
		return nil, fmt.Errorf("create contribution: %w", err)
	}

	metrics.ContributionsCreated.WithLabelValues(string(category)).Inc()
	s.log.WithFields(logrus.Fields{
		"contribution_id": contribution.ID,
		"author_id":       author.ID,
		"category":        category,
	}).Info("Contribution created")
	return contribution, nil
}

// sniff reads the head of the upload and checks its media kind. A non-empty
// message is a field error for the form.
func sniff(up *Upload, kind string) (*sniffedUpload, string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(up.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", fmt.Errorf("read %s upload: %w", kind, err)
	}
	if n == 0 {
		return nil, "The submitted file is empty.", nil
	}
	head = head[:n]

	mt := mimetype.Detect(head)
	if !hasMediaPrefix(mt, kind+"/") {
		return nil, fmt.Sprintf("Upload a valid %s file. %s is not supported.", kind, mt.String()), nil
	}
	return &sniffedUpload{upload: up, head: head, mime: mt, kind: kind}, "", nil
}

func (s *ContentService) save(ctx context.Context, up sniffedUpload) (string, error) {
	ext := up.mime.Extension()
	if ext == "" {
		ext = filepath.Ext(up.upload.Filename)
	}
	ref, err := s.store.Save(ctx, up.folder, ext, up.mime.String(), io.MultiReader(bytes.NewReader(up.head), up.upload.Content))
	if err != nil {
		return "", fmt.Errorf("store %s: %w", up.kind, err)
	}
	return ref, nil
}

// discard deletes media stored for a contribution that was never created
func (s *ContentService) discard(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if err := s.store.Delete(ctx, ref); err != nil && !errors.Is(err, media.ErrNotFound) {
			s.log.WithError(err).WithField("ref", ref).Warn("Failed to delete orphaned media")
		}
	}
}

func hasMediaPrefix(mt *mimetype.MIME, prefix string) bool {
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), prefix) {
			return true
		}
	}
	return false
}
