package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"entrenafit/coaching-app/internal/storage"

	"github.com/google/uuid"
)

var ErrUnsupportedMedia = errors.New("tipo de archivo no permitido")

// UploadTicket carries a presigned PUT URL the browser uploads straight to
// object storage with, plus the GET URL that becomes the exercise video link.
type UploadTicket struct {
	UploadURL   string `json:"uploadUrl"`
	DownloadURL string `json:"downloadUrl"`
	ObjectKey   string `json:"objectKey"`
}

// MediaService hands out presigned URLs for exercise demo videos.
type MediaService interface {
	RequestVideoUpload(ctx context.Context, actorRef, contentType string) (*UploadTicket, error)
}

type mediaService struct {
	users       UserService
	fileStorage storage.FileStorage
}

// NewMediaService creates a new instance of mediaService.
func NewMediaService(users UserService, fileStorage storage.FileStorage) MediaService {
	return &mediaService{users: users, fileStorage: fileStorage}
}

// RequestVideoUpload issues a presigned upload for a coach or admin. The
// object key is random so uploads can never collide or be guessed.
func (s *mediaService) RequestVideoUpload(ctx context.Context, actorRef, contentType string) (*UploadTicket, error) {
	actor, err := s.users.ResolveActor(ctx, actorRef)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !actor.IsPrivileged() {
		return nil, ErrForbidden
	}

	ext, ok := videoExtension(contentType)
	if !ok {
		return nil, ErrUnsupportedMedia
	}

	objectKey := fmt.Sprintf("exercise-videos/%s/%s%s", actor.ID.Hex(), uuid.NewString(), ext)

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, err
	}
	downloadURL, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, objectKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, err
	}

	return &UploadTicket{
		UploadURL:   uploadURL,
		DownloadURL: downloadURL,
		ObjectKey:   objectKey,
	}, nil
}

func videoExtension(contentType string) (string, bool) {
	switch strings.ToLower(contentType) {
	case "video/mp4":
		return ".mp4", true
	case "video/quicktime":
		return ".mov", true
	case "video/webm":
		return ".webm", true
	}
	return "", false
}
