package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"socialfeed/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&UserModel{}, &PostModel{}, &ProfileModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveUser registers a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model, err := userToModel(u)
	if err != nil {
		return err
	}
	return s.db.Create(&model).Error
}

// HasUserEmail checks if email exists.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// SavePost stores a post record.
func (s *GormStore) SavePost(p domain.Post) error {
	model := PostModel{
		ID:        p.ID,
		UserID:    p.UserID,
		Text:      p.Text,
		ImageURL:  p.ImageURL,
		CreatedAt: p.CreatedAt,
	}
	return s.db.Create(&model).Error
}

// postRow is the flat scan target for post listings with the author join.
type postRow struct {
	ID                string
	UserID            string
	Text              string
	ImageURL          string
	CreatedAt         time.Time
	AuthorEmail       string
	AuthorDisplayName string
}

// ListPosts returns all posts newest-first with author info.
func (s *GormStore) ListPosts() ([]domain.Post, error) {
	return s.listPosts("")
}

// ListPostsByAuthor returns one author's posts newest-first.
func (s *GormStore) ListPostsByAuthor(authorID string) ([]domain.Post, error) {
	return s.listPosts(authorID)
}

func (s *GormStore) listPosts(authorID string) ([]domain.Post, error) {
	tx := s.db.Model(&PostModel{}).
		Select("post_models.id, post_models.user_id, post_models.text, post_models.image_url, post_models.created_at, " +
			"COALESCE(profile_models.email, '') AS author_email, " +
			"COALESCE(profile_models.display_name, '') AS author_display_name").
		Joins("LEFT JOIN profile_models ON profile_models.id = post_models.user_id").
		Order("post_models.created_at DESC")
	if authorID != "" {
		tx = tx.Where("post_models.user_id = ?", authorID)
	}
	var rows []postRow
	if err := tx.Scan(&rows).Error; err != nil {
		return nil, err
	}
	posts := make([]domain.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, domain.Post{
			ID:        row.ID,
			UserID:    row.UserID,
			Text:      row.Text,
			ImageURL:  row.ImageURL,
			CreatedAt: row.CreatedAt,
			Author: domain.Author{
				Email:       row.AuthorEmail,
				DisplayName: row.AuthorDisplayName,
			},
		})
	}
	return posts, nil
}

// GetProfile retrieves a profile.
func (s *GormStore) GetProfile(id string) (domain.Profile, bool, error) {
	var model ProfileModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Profile{}, false, nil
		}
		return domain.Profile{}, false, err
	}
	return profileFromModel(model), true, nil
}

// CreateProfile inserts a profile row. A primary-key collision maps to
// ErrProfileExists so callers can resolve the get-or-create race.
func (s *GormStore) CreateProfile(p domain.Profile) error {
	model := ProfileModel{
		ID:          p.ID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		CreatedAt:   p.CreatedAt,
	}
	if err := s.db.Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrProfileExists
		}
		return err
	}
	return nil
}

// SetProfileDisplayName updates the stored display name.
func (s *GormStore) SetProfileDisplayName(id, displayName string) error {
	return s.db.Model(&ProfileModel{}).
		Where("id = ?", id).
		Update("display_name", displayName).Error
}

func userToModel(u domain.User) (UserModel, error) {
	var raw []byte
	if len(u.Metadata) > 0 {
		var err error
		raw, err = json.Marshal(u.Metadata)
		if err != nil {
			return UserModel{}, fmt.Errorf("encode user metadata: %w", err)
		}
	}
	return UserModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Metadata:     raw,
		CreatedAt:    u.CreatedAt,
	}, nil
}

func userFromModel(m UserModel) domain.User {
	var meta map[string]string
	if len(m.Metadata) > 0 {
		_ = json.Unmarshal(m.Metadata, &meta)
	}
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Metadata:     meta,
		CreatedAt:    m.CreatedAt,
	}
}

func profileFromModel(m ProfileModel) domain.Profile {
	return domain.Profile{
		ID:          m.ID,
		Email:       m.Email,
		DisplayName: m.DisplayName,
		CreatedAt:   m.CreatedAt,
	}
}
