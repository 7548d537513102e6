// Package media turns uploaded attachments into data URLs that can live
// inside a complaint record.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	apperrors "complaintdesk/internal/errors"
)

var (
	// ErrUnsupportedType is returned for anything that is not an image or video.
	ErrUnsupportedType = errors.New("only image and video attachments are accepted")
	// ErrTooLarge is returned when an attachment exceeds the size limit.
	ErrTooLarge = errors.New("attachment exceeds size limit")
	// ErrEmpty is returned for zero-byte attachments.
	ErrEmpty = errors.New("attachment is empty")
	// ErrMalformedDataURL is returned by Decode.
	ErrMalformedDataURL = errors.New("malformed data URL")
)

// Attachment is one uploaded file.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Encoder converts attachments. The zero value accepts any size.
type Encoder struct {
	MaxBytes int
}

// NewEncoder returns an encoder that rejects files above maxBytes.
// maxBytes <= 0 disables the limit.
func NewEncoder(maxBytes int) *Encoder {
	return &Encoder{MaxBytes: maxBytes}
}

// Encode converts every attachment concurrently and returns the data URLs in
// input order. If any attachment fails the whole call fails with an
// *errors.EncodingError and no URLs are returned.
func (e *Encoder) Encode(ctx context.Context, attachments []Attachment) ([]string, error) {
	if len(attachments) == 0 {
		return nil, nil
	}

	urls := make([]string, len(attachments))
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range attachments {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return &apperrors.EncodingError{Index: i, Name: a.Name, Err: err}
			}
			url, err := e.encodeOne(a)
			if err != nil {
				return &apperrors.EncodingError{Index: i, Name: a.Name, Err: err}
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

func (e *Encoder) encodeOne(a Attachment) (string, error) {
	if len(a.Data) == 0 {
		return "", ErrEmpty
	}
	if e.MaxBytes > 0 && len(a.Data) > e.MaxBytes {
		return "", fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, len(a.Data), e.MaxBytes)
	}

	mediaType := contentType(a)
	if !strings.HasPrefix(mediaType, "image/") && !strings.HasPrefix(mediaType, "video/") {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mediaType)
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(a.Data), nil
}

// contentType prefers the declared type and falls back to sniffing the bytes.
func contentType(a Attachment) string {
	if a.ContentType != "" && a.ContentType != "application/octet-stream" {
		if mt, _, err := mime.ParseMediaType(a.ContentType); err == nil {
			return mt
		}
	}
	mt, _, _ := mime.ParseMediaType(mimetype.Detect(a.Data).String())
	return mt
}

// Decode splits a data URL produced by Encode back into its media type and
// bytes.
func Decode(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, ErrMalformedDataURL
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrMalformedDataURL
	}
	mediaType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("%w: only base64 payloads are supported", ErrMalformedDataURL)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformedDataURL, err)
	}
	if mediaType == "" {
		mediaType = "text/plain"
	}
	return mediaType, data, nil
}
