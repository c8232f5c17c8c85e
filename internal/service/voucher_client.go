package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/fiatops/custody-backoffice/internal/domain"
	"github.com/fiatops/custody-backoffice/internal/logging"
)

// VoucherClient uploads payout and deposit vouchers to the voucher store and
// hands back the stored path for persistence on the claim or withdrawal.
type VoucherClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewVoucherClient(baseURL string) *VoucherClient {
	return &VoucherClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type voucherResponse struct {
	Path string `json:"path"`
}

func (c *VoucherClient) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	log := logging.FromContext(ctx)

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("voucher", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, content); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	url := c.baseURL + "/vouchers"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return "", fmt.Errorf("Upload: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("Upload: send: %w", domain.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	log.Info("voucher store response received",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Warn("voucher upload failed", "status", resp.StatusCode, "body", string(respBody))
		return "", fmt.Errorf("Upload: status %d: %w", resp.StatusCode, domain.ErrUpstreamUnavailable)
	}

	var vr voucherResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return "", fmt.Errorf("Upload: decode: %w", err)
	}
	if vr.Path == "" {
		return "", fmt.Errorf("Upload: empty path: %w", domain.ErrUpstreamUnavailable)
	}
	return vr.Path, nil
}
