package application

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vplayer-account/internal/domain/entity"
	repo "github.com/oksasatya/vplayer-account/internal/domain/repository"
	"github.com/oksasatya/vplayer-account/internal/infrastructure/search"
	"github.com/oksasatya/vplayer-account/pkg/apperror"
	"github.com/oksasatya/vplayer-account/pkg/helpers"
	"github.com/oksasatya/vplayer-account/pkg/mailer"
	mailtpl "github.com/oksasatya/vplayer-account/pkg/mailer/templates"
)

const (
	defaultSearchSize = 10
	maxSearchSize     = 50
)

// Service implements the account lifecycle. Directory and Publisher are
// optional side channels: their failures are logged and never fail a request.
type Service struct {
	Repo      repo.UserRepository
	Issuer    *TokenIssuer
	Media     MediaStorage
	Directory UserDirectory
	Publisher JobPublisher
	Logger    *logrus.Logger
	AppName   string

	RevokeSessionsOnPasswordChange bool
}

func NewService(r repo.UserRepository, issuer *TokenIssuer, media MediaStorage, logger *logrus.Logger) *Service {
	return &Service{Repo: r, Issuer: issuer, Media: media, Logger: logger}
}

type RegisterInput struct {
	FullName string
	Email    string
	Username string
	Password string
	// Local temp files written by the upload middleware; empty when absent.
	AvatarPath string
	CoverPath  string
}

// Register creates an account. Temp files are always consumed: either uploaded
// (which removes them) or deleted here before returning an error.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := strings.TrimSpace(in.Email)
	username := strings.ToLower(strings.TrimSpace(in.Username))
	if fullName == "" || email == "" || username == "" || strings.TrimSpace(in.Password) == "" {
		discard(in.AvatarPath, in.CoverPath)
		return nil, apperror.BadRequest("all fields are required")
	}

	if _, err := s.Repo.FindByUsernameOrEmail(ctx, username, email); err == nil {
		discard(in.AvatarPath, in.CoverPath)
		return nil, apperror.Conflict("user with email or username already exists")
	} else if !errors.Is(err, repo.ErrNotFound) {
		discard(in.AvatarPath, in.CoverPath)
		return nil, apperror.Internal("something went wrong while registering the user", err)
	}

	if in.AvatarPath == "" {
		discard(in.CoverPath)
		return nil, apperror.BadRequest("avatar file is required")
	}
	avatar, err := s.Media.Upload(ctx, in.AvatarPath)
	if err != nil {
		discard(in.CoverPath)
		return nil, apperror.Internal("avatar upload failed", err)
	}
	uploaded := []*helpers.MediaObject{avatar}

	cover := &helpers.MediaObject{}
	if in.CoverPath != "" {
		if c, cerr := s.Media.Upload(ctx, in.CoverPath); cerr != nil {
			s.warn(cerr, "cover image upload failed", logrus.Fields{"username": username})
		} else {
			cover = c
			uploaded = append(uploaded, c)
		}
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		s.destroy(ctx, uploaded...)
		return nil, apperror.Internal("something went wrong while registering the user", err)
	}

	u := &entity.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		FullName:     fullName,
		Password:     hash,
		Avatar:       avatar.URL,
		AvatarID:     avatar.PublicID,
		CoverImage:   cover.URL,
		CoverImageID: cover.PublicID,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		s.destroy(ctx, uploaded...)
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, apperror.Conflict("user with email or username already exists")
		}
		return nil, apperror.Internal("something went wrong while registering the user", err)
	}

	created, err := s.Repo.GetProfileByID(ctx, u.ID)
	if err != nil {
		return nil, apperror.Internal("something went wrong while registering the user", err)
	}

	s.index(ctx, created)
	s.notify(ctx, mailer.EmailJob{
		To:       created.Email,
		Template: mailtpl.Welcome,
		Data:     mailtpl.NewWelcomeData(s.AppName, created.FullName, created.Username, created.Email),
	})
	return created, nil
}

type LoginInput struct {
	Username string
	Email    string
	Password string
}

// Login authenticates by username or email and issues a fresh token pair,
// replacing any previously stored refresh token.
func (s *Service) Login(ctx context.Context, in LoginInput) (*entity.User, TokenPair, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.TrimSpace(in.Email)
	if username == "" && email == "" {
		return nil, TokenPair{}, apperror.BadRequest("username or email is required")
	}

	u, err := s.Repo.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, TokenPair{}, apperror.NotFound("user does not exist")
		}
		return nil, TokenPair{}, apperror.Internal("something went wrong while logging in", err)
	}
	if !helpers.CompareHashAndPassword(u.Password, in.Password) {
		return nil, TokenPair{}, apperror.Unauthorized("invalid user credentials")
	}

	pair, err := s.Issuer.IssueTokenPair(ctx, u.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u.Sanitized(), pair, nil
}

// RefreshTokens trades a valid refresh token for a new pair. The presented
// token becomes unusable; a concurrent second use of it fails.
func (s *Service) RefreshTokens(ctx context.Context, presented string) (TokenPair, error) {
	if presented == "" {
		return TokenPair{}, apperror.Unauthorized("unauthorized request")
	}
	claims, err := s.Issuer.JWT.ParseRefreshToken(presented)
	if err != nil {
		return TokenPair{}, apperror.Unauthorized("invalid refresh token")
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return TokenPair{}, apperror.Unauthorized("invalid refresh token")
		}
		return TokenPair{}, apperror.Internal("something went wrong while refreshing tokens", err)
	}
	if !u.RefreshToken.Matches(presented) {
		return TokenPair{}, apperror.Unauthorized("refresh token is expired or used")
	}
	return s.Issuer.RotateTokenPair(ctx, u.ID, entity.RefreshToken(presented))
}

// Logout clears the stored refresh token. Access tokens stay valid until expiry.
func (s *Service) Logout(ctx context.Context, userID string) error {
	err := s.Repo.SetRefreshToken(ctx, userID, "")
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return apperror.Internal("something went wrong while logging out", err)
	}
	return nil
}

type ChangePasswordInput struct {
	OldPassword string
	NewPassword string
}

func (s *Service) ChangePassword(ctx context.Context, userID string, in ChangePasswordInput) error {
	if strings.TrimSpace(in.OldPassword) == "" || strings.TrimSpace(in.NewPassword) == "" {
		return apperror.BadRequest("old and new password are required")
	}
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return s.lookupErr(err)
	}
	if !helpers.CompareHashAndPassword(u.Password, in.OldPassword) {
		return apperror.Unauthorized("invalid old password")
	}

	hash, err := helpers.HashPassword(in.NewPassword)
	if err != nil {
		return apperror.Internal("something went wrong while changing password", err)
	}
	if err := s.Repo.UpdatePassword(ctx, userID, hash); err != nil {
		return apperror.Internal("something went wrong while changing password", err)
	}
	if s.RevokeSessionsOnPasswordChange {
		if err := s.Repo.SetRefreshToken(ctx, userID, ""); err != nil {
			return apperror.Internal("something went wrong while changing password", err)
		}
	}

	s.notify(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: mailtpl.PasswordChanged,
		Data:     mailtpl.NewPasswordChangedData(s.AppName, u.FullName, u.Username, u.Email, time.Now()),
	})
	return nil
}

// GetProfile returns the user without password and refresh token.
func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetProfileByID(ctx, userID)
	if err != nil {
		return nil, s.lookupErr(err)
	}
	return u, nil
}

type UpdateDetailsInput struct {
	FullName string
	Email    string
}

func (s *Service) UpdateDetails(ctx context.Context, userID string, in UpdateDetailsInput) (*entity.User, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := strings.TrimSpace(in.Email)
	if fullName == "" || email == "" {
		return nil, apperror.BadRequest("all fields are required")
	}
	if err := s.Repo.UpdateDetails(ctx, userID, fullName, email); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, apperror.Conflict("email is already in use")
		}
		return nil, s.lookupErr(err)
	}
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.index(ctx, u)
	return u, nil
}

// UpdateAvatar replaces the avatar; the previous remote object is removed best-effort.
func (s *Service) UpdateAvatar(ctx context.Context, userID, localPath string) (*entity.User, error) {
	if localPath == "" {
		return nil, apperror.BadRequest("avatar file is missing")
	}
	current, err := s.Repo.GetProfileByID(ctx, userID)
	if err != nil {
		discard(localPath)
		return nil, s.lookupErr(err)
	}

	obj, err := s.Media.Upload(ctx, localPath)
	if err != nil {
		return nil, apperror.Internal("error while uploading avatar", err)
	}
	if err := s.Repo.UpdateAvatar(ctx, userID, obj.URL, obj.PublicID); err != nil {
		s.destroy(ctx, obj)
		return nil, s.lookupErr(err)
	}
	if current.AvatarID != "" && current.AvatarID != obj.PublicID {
		s.destroy(ctx, &helpers.MediaObject{URL: current.Avatar, PublicID: current.AvatarID})
	}

	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.index(ctx, u)
	return u, nil
}

// SearchUsers queries the user directory. Without a directory it returns no results.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]search.UserDocument, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperror.BadRequest("query is required")
	}
	if s.Directory == nil {
		return []search.UserDocument{}, nil
	}
	if size <= 0 || size > maxSearchSize {
		size = defaultSearchSize
	}
	docs, err := s.Directory.Search(ctx, q, size)
	if err != nil {
		return nil, apperror.Internal("user search failed", err)
	}
	return docs, nil
}

func (s *Service) lookupErr(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return apperror.NotFound("user not found")
	}
	return apperror.Internal("database error", err)
}

func (s *Service) index(ctx context.Context, u *entity.User) {
	if s.Directory == nil {
		return
	}
	if err := s.Directory.Index(ctx, u); err != nil {
		s.warn(err, "es index failed", logrus.Fields{"user_id": u.ID})
	}
}

func (s *Service) notify(ctx context.Context, job mailer.EmailJob) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.PublishJSON(ctx, job); err != nil {
		s.warn(err, "enqueue email failed", logrus.Fields{"template": job.Template})
	}
}

func (s *Service) destroy(ctx context.Context, objs ...*helpers.MediaObject) {
	for _, o := range objs {
		if o == nil || o.PublicID == "" {
			continue
		}
		if err := s.Media.Destroy(ctx, o.PublicID); err != nil {
			s.warn(err, "media cleanup failed", logrus.Fields{"public_id": o.PublicID})
		}
	}
}

func (s *Service) warn(err error, msg string, fields logrus.Fields) {
	if s.Logger != nil {
		s.Logger.WithError(err).WithFields(fields).Warn(msg)
	}
}

// discard removes temp upload files that will not be uploaded.
func discard(paths ...string) {
	for _, p := range paths {
		if p != "" {
			_ = os.Remove(p)
		}
	}
}
