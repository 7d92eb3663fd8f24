package device

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync/atomic"

	"device_console/internal/models"
)

const firmwareFormField = "file"

// ProgressFunc receives upload progress as the transport consumes the body.
type ProgressFunc func(models.UploadProgress)

// progressReader counts bytes handed to the transport.
type progressReader struct {
	r        io.Reader
	sent     atomic.Int64
	total    int64
	progress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.progress != nil {
		sent := p.sent.Add(int64(n))
		p.progress(models.UploadProgress{
			Sent:             sent,
			Total:            p.total,
			LengthComputable: p.total >= 0,
		})
	}
	return n, err
}

// multipartBody frames file as a single "file" form part without buffering it.
// total is -1 when the file size is unknown.
func multipartBody(file models.FirmwareFile) (body io.Reader, contentType string, total int64, err error) {
	var head bytes.Buffer
	mw := multipart.NewWriter(&head)
	if _, err := mw.CreateFormFile(firmwareFormField, file.Name); err != nil {
		return nil, "", 0, fmt.Errorf("create form file: %w", err)
	}
	prefix := append([]byte(nil), head.Bytes()...)
	head.Reset()
	if err := mw.Close(); err != nil {
		return nil, "", 0, fmt.Errorf("close multipart writer: %w", err)
	}
	suffix := append([]byte(nil), head.Bytes()...)

	total = -1
	if file.Size >= 0 {
		total = int64(len(prefix)) + file.Size + int64(len(suffix))
	}
	body = io.MultiReader(bytes.NewReader(prefix), file.Content, bytes.NewReader(suffix))
	return body, mw.FormDataContentType(), total, nil
}

// UploadFirmware posts the image to /OTAupdate as multipart form data.
func (c *Client) UploadFirmware(ctx context.Context, file models.FirmwareFile, progress ProgressFunc) error {
	if file.Content == nil {
		return fmt.Errorf("upload %s: no content", file.Name)
	}
	body, contentType, total, err := multipartBody(file)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	pr := &progressReader{r: body, total: total, progress: progress}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(pathOTAUpdate), pr)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", pathOTAUpdate, err)
	}
	defer resp.Body.Close()

	// The answer is an opaque blob; drain it so the connection can be reused.
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("read %s: %w", pathOTAUpdate, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Path: pathOTAUpdate, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return nil
}
