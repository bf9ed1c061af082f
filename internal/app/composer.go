package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"socialfeed/pkg/domain"
	"socialfeed/pkg/gateway"
)

// ImageAttachment is a locally selected image ready for upload.
type ImageAttachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Composer runs the post submission pipeline: validate, upload the optional
// image, create the post row, and echo the result into the feed.
type Composer struct {
	gw   gateway.Gateway
	auth *AuthContainer
	feed *FeedContainer
}

// NewComposer wires the submission flow to its collaborators.
func NewComposer(gw gateway.Gateway, auth *AuthContainer, feed *FeedContainer) *Composer {
	return &Composer{gw: gw, auth: auth, feed: feed}
}

// Submit publishes a post. Each step gates the next; any failure aborts the
// pipeline and leaves the feed untouched.
func (c *Composer) Submit(ctx context.Context, text string, image *ImageAttachment) (domain.Post, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Post{}, ErrTextRequired
	}
	session, ok := c.auth.Session()
	if !ok {
		return domain.Post{}, ErrNotLoggedIn
	}

	imageURL := ""
	if image != nil {
		url, err := c.uploadImage(ctx, session.UserID, image)
		if err != nil {
			// no post without its declared image
			return domain.Post{}, err
		}
		imageURL = url
	}

	post, err := c.gw.InsertPost(ctx, session.UserID, text, imageURL)
	if err != nil {
		return domain.Post{}, err
	}
	c.feed.AddPost(post)
	return post, nil
}

func (c *Composer) uploadImage(ctx context.Context, userID string, image *ImageAttachment) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(image.Name), "."))
	if ext == "" {
		ext = "jpg"
	}
	contentType := image.ContentType
	if contentType == "" {
		contentType = "image/" + ext
	}
	filename := fmt.Sprintf("%d.%s", time.Now().UnixMilli(), ext)
	return c.gw.UploadImage(ctx, userID, filename, image.Data, contentType)
}
