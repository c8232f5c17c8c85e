package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/fiatops/custody-backoffice/internal/logging"
)

type voucherUploader interface {
	Upload(ctx context.Context, filename string, content io.Reader) (string, error)
}

type UploadHandler struct {
	vouchers voucherUploader
}

func NewUploadHandler(vouchers voucherUploader) *UploadHandler {
	return &UploadHandler{vouchers: vouchers}
}

const maxVoucherSize = 10 << 20

// UploadVoucher forwards the multipart file to the voucher store and returns
// the stored path. The path is what operators attach to a claim approval or
// withdrawal approval.
func (h *UploadHandler) UploadVoucher(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	if err := r.ParseMultipartForm(maxVoucherSize); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	file, header, err := r.FormFile("voucher")
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "voucher", Message: "file required"}})
		return
	}
	defer file.Close()

	path, err := h.vouchers.Upload(r.Context(), header.Filename, file)
	if err != nil {
		log.Warn("voucher upload failed", "filename", header.Filename, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, map[string]string{"path": path})
}
