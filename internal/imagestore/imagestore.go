// Package imagestore uploads listing photos to Cloudinary.
//
// Every upload lands in the configured folder with a fixed delivery
// transformation (fit inside 600×600, automatic quality and format).  The
// uploader never returns an error: the outcome is a Result whose Failure
// tells the admin form why no URL came back, so a failed upload keeps the
// previous image instead of failing the whole save.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"github.com/servicii-ro/directory/internal/config"
	"github.com/servicii-ro/directory/internal/metrics"
)

// Transformation is applied to every upload.
const Transformation = "c_limit,w_600,h_600/q_auto,f_auto"

// Failure names why an upload produced no URL.
type Failure string

const (
	FailureNone          Failure = ""
	FailureNoFile        Failure = "no_file"
	FailureNotConfigured Failure = "not_configured"
	FailureUpload        Failure = "upload"
	FailureRejected      Failure = "rejected"
)

// Result is the outcome of one Upload.
type Result struct {
	URL     string
	Failure Failure
	Err     error
}

// OK reports whether a URL was produced.
func (r Result) OK() bool { return r.Failure == FailureNone }

// Empty reports whether there was nothing to upload.  Edits keep the
// previous image in that case.
func (r Result) Empty() bool { return r.Failure == FailureNoFile }

// Uploader is what the admin handlers need.
type Uploader interface {
	Upload(ctx context.Context, file multipart.File, header *multipart.FileHeader) Result
}

// api is the slice of the Cloudinary SDK in use.
type api interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

// Cloudinary uploads through the official SDK.  A nil api means
// credentials were missing; every upload then reports not_configured.
type Cloudinary struct {
	api    api
	folder string
}

// New builds an uploader from cfg.  Without credentials it still returns a
// usable value that reports FailureNotConfigured.
func New(cfg config.Cloudinary) (*Cloudinary, error) {
	c := &Cloudinary{folder: cfg.Folder}
	if !cfg.Enabled() {
		return c, nil
	}

	var (
		cld *cloudinary.Cloudinary
		err error
	)
	if cfg.URL != "" {
		cld, err = cloudinary.NewFromURL(cfg.URL)
	} else {
		cld, err = cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	}
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	c.api = &cld.Upload
	return c, nil
}

// Upload sends file.  A nil file or an empty filename yields FailureNoFile.
func (c *Cloudinary) Upload(ctx context.Context, file multipart.File, header *multipart.FileHeader) Result {
	res := c.upload(ctx, file, header)
	if res.Empty() {
		return res
	}

	outcome := "ok"
	if !res.OK() {
		outcome = string(res.Failure)
		zap.L().Warn("image upload failed",
			zap.String("reason", outcome),
			zap.Error(res.Err))
	}
	metrics.ImageUploadsTotal.WithLabelValues(outcome).Inc()
	return res
}

func (c *Cloudinary) upload(ctx context.Context, file multipart.File, header *multipart.FileHeader) Result {
	if file == nil || header == nil || header.Filename == "" || header.Size == 0 {
		return Result{Failure: FailureNoFile}
	}
	if c.api == nil {
		return Result{Failure: FailureNotConfigured}
	}

	resp, err := c.api.Upload(ctx, file, uploader.UploadParams{
		Folder:         c.folder,
		ResourceType:   "image",
		Transformation: Transformation,
	})
	switch {
	case err != nil:
		return Result{Failure: FailureUpload, Err: err}
	case resp == nil:
		return Result{Failure: FailureUpload, Err: errors.New("empty response")}
	case resp.Error.Message != "":
		return Result{Failure: FailureRejected, Err: errors.New(resp.Error.Message)}
	case resp.SecureURL == "":
		return Result{Failure: FailureRejected, Err: errors.New("no secure_url in response")}
	}
	return Result{URL: resp.SecureURL}
}
