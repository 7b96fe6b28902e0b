// Package uploader submits a finalized batch artifact to the storage
// endpoint via a multipart form POST.
package uploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"

	"github.com/jonesrussell/blogvault/internal/errorsx"
	"github.com/jonesrussell/blogvault/internal/logger"
)

// Client posts batch artifacts to a single fixed base URL.
type Client struct {
	baseURL string
	http    *http.Client
	log     logger.Logger
}

// New builds a Client.
func New(baseURL string, httpClient *http.Client, log logger.Logger) *Client {
	return &Client{baseURL: baseURL, http: httpClient, log: log}
}

// SubmitBatchUnit uploads the file at filePath (named fileName in the
// form part) as the artifact for the given batch. It reports whether
// the upload succeeded (HTTP 200); transport errors are returned, not
// retried — the caller decides the status to report to the coordinator
// either way.
func (c *Client) SubmitBatchUnit(ctx context.Context, workerID string, batchID, randomKey int64, workerVersion int, filePath, fileName string) (bool, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return false, errorsx.Wrapf(err, "open batch artifact %q", filePath)
	}
	defer f.Close()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	fields := map[string]string{
		"workerID": workerID,
		"batchID":  strconv.FormatInt(batchID, 10),
		"batchKey": strconv.FormatInt(randomKey, 10),
		"version":  strconv.Itoa(workerVersion),
	}
	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			return false, fmt.Errorf("write form field %q: %w", k, err)
		}
	}

	part, err := form.CreatePart(map[string][]string{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="data"; filename=%q`, fileName)},
		"Content-Type":        {"application/x-gzip"},
	})
	if err != nil {
		return false, fmt.Errorf("create form file part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return false, fmt.Errorf("copy batch artifact into form: %w", err)
	}
	if err := form.Close(); err != nil {
		return false, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/submitBatchUnit", &body)
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return false, errorsx.Wrap(err, "upload batch unit")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	success := resp.StatusCode == http.StatusOK
	c.log.Info("batch upload complete",
		logger.String("worker_id", workerID),
		logger.Int64("batch_id", batchID),
		logger.Bool("success", success),
	)
	return success, nil
}
