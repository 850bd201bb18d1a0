package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"venue-manager/models"
	"venue-manager/ocr"
	"venue-manager/persistence"
	"venue-manager/receipts"
	"venue-manager/utils"
)

// uploadReceipt stores the image from the "file" form field and runs it
// through OCR and the receipt parser. Text recognised on the client can be
// sent in "ocr_text" to skip the OCR service. OCR failures leave the receipt
// pending instead of failing the upload.
func (a *API) uploadReceipt(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.opts.MaxUploadBytes+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		badRequest(c, "file is required")
		return
	}
	if fh.Size > a.opts.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	data, err := readUpload(fh)
	if err != nil {
		badRequest(c, "could not read file")
		return
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.Split(fh.Header.Get("Content-Type"), ";")[0]))
	if !utils.IsReceiptContentType(contentType) {
		contentType = http.DetectContentType(data)
	}
	if !utils.IsReceiptContentType(contentType) {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "unsupported file type " + contentType})
		return
	}

	filename := utils.SanitizePathComponent(filepath.Base(fh.Filename))
	key, err := a.images.Put(&persistence.Image{ContentType: contentType, Filename: filename, Data: data})
	if err != nil {
		a.fail(c, "Receipt", err)
		return
	}

	user := currentUser(c)
	size := int64(len(data))
	receipt := &models.Receipt{
		Filename:    filename,
		ContentType: &contentType,
		FileSize:    &size,
		ImageKey:    &key,
		Status:      models.ReceiptProcessing,
		UploadedBy:  &user.ID,
	}
	ctx := c.Request.Context()
	if err := a.store.CreateReceipt(ctx, receipt); err != nil {
		_ = a.images.Delete(key)
		a.fail(c, "Receipt", err)
		return
	}

	text := strings.TrimSpace(c.PostForm("ocr_text"))
	if text == "" {
		text, err = a.recognize(ctx, data, contentType)
		if err != nil {
			a.logger.Warn("receipt ocr failed", zap.Int64("receipt_id", receipt.ID), zap.Error(err))
		}
	}
	a.applyText(receipt, text)

	if err := a.store.UpdateReceipt(ctx, receipt); err != nil {
		a.fail(c, "Receipt", err)
		return
	}
	a.logger.Info("receipt uploaded",
		zap.Int64("receipt_id", receipt.ID),
		zap.String("status", string(receipt.Status)),
		zap.Int("items", len(receipt.Items)))
	c.JSON(http.StatusCreated, receipt)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (a *API) recognize(ctx context.Context, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.OCRTimeout)
	defer cancel()
	text, err := a.ocr.Recognize(ctx, data, contentType)
	if errors.Is(err, ocr.ErrDisabled) {
		return "", nil
	}
	return text, err
}

// applyText parses recognised text onto r. Without text the receipt waits
// for manual entry.
func (a *API) applyText(r *models.Receipt, text string) {
	if text == "" {
		r.Status = models.ReceiptPending
		return
	}
	now := time.Now().UTC()
	r.OCRText = &text
	r.ApplyParsed(receipts.Parse(text))
	r.Status = models.ReceiptProcessed
	r.ProcessedAt = &now
}

// scanText parses text without storing anything.
func (a *API) scanText(c *gin.Context) {
	var req models.ScanTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	parsed := receipts.Parse(req.Text)
	c.JSON(http.StatusOK, gin.H{
		"receipt":            parsed,
		"total_amount":       parsed.TotalFloat(),
		"suggested_category": receipts.DominantCategory(parsed.Items),
	})
}

func (a *API) listReceipts(c *gin.Context) {
	skip, limit, ok := page(c)
	if !ok {
		return
	}
	status := models.ReceiptStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		badRequest(c, "invalid status")
		return
	}
	list, total, err := a.store.ListReceipts(c.Request.Context(), status, skip, limit)
	if err != nil {
		a.fail(c, "Receipt", err)
		return
	}
	c.JSON(http.StatusOK, models.ReceiptList{Receipts: list, Total: total})
}

func (a *API) getReceipt(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	receipt, err := a.store.GetReceipt(c.Request.Context(), id)
	if err != nil {
		a.fail(c, "Receipt", err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (a *API) receiptImage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	receipt, err := a.store.GetReceipt(c.Request.Context(), id)
	if err != nil {
		a.fail(c, "Receipt", err)
		return
	}
	if receipt.ImageKey == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Receipt image not found"})
		return
	}
	img, err := a.images.Get(*receipt.ImageKey)
	if errors.Is(err, persistence.ErrImageNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Receipt image not found"})
		return
	}
	if err != nil {
		a.fail(c, "Receipt image", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", img.Filename))
	c.Data(http.StatusOK, img.ContentType, img.Data)
}

func (a *API) updateReceipt(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.ReceiptUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Status != nil && !req.Status.Valid() {
		badRequest(c, "invalid status")
		return
	}
	if req.TotalAmount != nil && *req.TotalAmount <= 0 {
		badRequest(c, "total_amount must be positive")
		return
	}

	ctx := c.Request.Context()
	receipt, err := a.store.GetReceipt(ctx, id)
	if err != nil {
		a.fail(c, "Receipt", err)
		return
	}
	req.Apply(receipt)
	if err := a.store.UpdateReceipt(ctx, receipt); err != nil {
		a.fail(c, "Receipt", err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// bookReceipt turns a receipt into a cost. The category defaults to the one
// holding most of the item value.
func (a *API) bookReceipt(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.ReceiptCostRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	receipt, err := a.store.GetReceipt(ctx, id)
	if err != nil {
		a.fail(c, "Receipt", err)
		return
	}
	if receipt.TotalAmount == nil || *receipt.TotalAmount <= 0 {
		badRequest(c, "receipt has no total amount")
		return
	}

	category := receipts.DominantCategory(receipt.Items)
	if req.Category != nil {
		category = *req.Category
	}
	if !models.ValidCostCategory(category) {
		badRequest(c, "invalid category")
		return
	}
	if !a.requireEvent(c, req.EventID) {
		return
	}

	user := currentUser(c)
	description := "Receipt " + receipt.Filename
	if receipt.StoreName != nil {
		description = "Receipt from " + *receipt.StoreName
	}
	cost := &models.Cost{
		EventID:     req.EventID,
		Category:    category,
		Amount:      *receipt.TotalAmount,
		Description: &description,
		Vendor:      receipt.StoreName,
		CreatedBy:   &user.ID,
	}
	if receipt.ReceiptDate != nil {
		if d, ok := receipts.ParseDate(*receipt.ReceiptDate); ok {
			cost.CostDate = &d
		}
	}

	if err := a.store.BookReceipt(ctx, id, cost); err != nil {
		a.fail(c, "Receipt", err)
		return
	}
	a.logger.Info("receipt booked", zap.Int64("receipt_id", id), zap.Int64("cost_id", cost.ID))
	c.JSON(http.StatusCreated, cost)
}

func (a *API) deleteReceipt(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	receipt, err := a.store.GetReceipt(ctx, id)
	if err != nil {
		a.fail(c, "Receipt", err)
		return
	}
	if err := a.store.DeleteReceipt(ctx, id); err != nil {
		a.fail(c, "Receipt", err)
		return
	}
	if receipt.ImageKey != nil {
		if err := a.images.Delete(*receipt.ImageKey); err != nil {
			a.logger.Warn("receipt image not deleted", zap.Int64("receipt_id", id), zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Receipt deleted"})
}
