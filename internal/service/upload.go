package service

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jask/recondesk/internal/database/repository"
	"github.com/jask/recondesk/internal/domain"
	"github.com/jask/recondesk/internal/view"
)

// PreviewPageSize is the number of data rows per CSV preview page.
const PreviewPageSize = 10

var (
	ErrInvalidFileType = errors.New("only .csv files can be uploaded")
	ErrNoFile          = errors.New("no file selected")
	ErrNoAccount       = errors.New("no account selected")
	ErrInvalidMode     = errors.New("processing mode must be CONFIRMATION or TRANSACTION")
)

// CheckFile accepts only names ending in .csv, case-insensitively.
func CheckFile(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNoFile
	}
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		return ErrInvalidFileType
	}
	return nil
}

// CSVPreview is a locally parsed copy of a file, shown before upload.
type CSVPreview struct {
	Header []string
	Rows   [][]string
	Errors []error
}

// Preview parses r as CSV. Malformed lines are collected in Errors and skipped.
func Preview(r io.Reader) (CSVPreview, error) {
	var p CSVPreview
	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1
	line := 0
	for {
		line++
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return p, fmt.Errorf("read csv: %w", err)
			}
			p.Errors = append(p.Errors, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if p.Header == nil {
			p.Header = rec
			continue
		}
		p.Rows = append(p.Rows, rec)
	}
	return p, nil
}

// PreviewFile opens path and parses it after checking the extension.
func PreviewFile(path string) (CSVPreview, error) {
	if err := CheckFile(path); err != nil {
		return CSVPreview{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return CSVPreview{}, err
	}
	defer f.Close()
	return Preview(f)
}

// Page returns one page of data rows; the header is never counted as a row.
func (p CSVPreview) Page(n int) view.Page[[]string] {
	return view.Paginate(p.Rows, n, PreviewPageSize)
}

// UploadBackend is the upload slice of the API.
type UploadBackend interface {
	UploadFile(ctx context.Context, accountID string, mode domain.ProcessingMode, fileName string, r io.Reader) (domain.UploadResponse, error)
}

// UploadHistory records outcomes locally. *repository.UploadRepo satisfies it.
type UploadHistory interface {
	Add(ctx context.Context, u repository.Upload) (string, error)
	ListRecent(ctx context.Context, merchantID string, limit int) ([]repository.Upload, error)
}

// Uploader sends files to an account's staging area.
type Uploader struct {
	Backend UploadBackend
	History UploadHistory // optional
	Log     zerolog.Logger
}

type UploadRequest struct {
	MerchantID  string
	AccountID   string
	AccountName string
	Mode        domain.ProcessingMode
	FileName    string
	File        io.Reader
}

// UploadOutcome is a completed upload. A response with failed rows is still
// an outcome, not an error.
type UploadOutcome struct {
	FileName string
	Response domain.UploadResponse
}

func (o UploadOutcome) Partial() bool { return o.Response.FailedIngestions > 0 }

// Notice is the notification for the outcome.
func (o UploadOutcome) Notice() Notice {
	r := o.Response
	if r.FailedIngestions == 0 {
		return Notice{
			Level:  Success,
			Title:  "File uploaded successfully",
			Detail: fmt.Sprintf("%d entries processed.", r.SuccessfulIngestions),
		}
	}
	return Notice{
		Level:  Warning,
		Title:  "File processed with some errors",
		Detail: fmt.Sprintf("%d successful, %d failed.", r.SuccessfulIngestions, r.FailedIngestions),
	}
}

// UploadFailedNotice is the notification for a rejected upload request.
func UploadFailedNotice(err error) Notice {
	return FailureNotice("Upload failed", err)
}

func (req UploadRequest) validate() error {
	if req.AccountID == "" {
		return ErrNoAccount
	}
	if !req.Mode.Valid() {
		return ErrInvalidMode
	}
	if err := CheckFile(req.FileName); err != nil {
		return err
	}
	if req.File == nil {
		return ErrNoFile
	}
	return nil
}

// Upload validates the request, sends the file and records the outcome.
func (u *Uploader) Upload(ctx context.Context, req UploadRequest) (UploadOutcome, error) {
	if err := req.validate(); err != nil {
		return UploadOutcome{}, err
	}
	name := filepath.Base(req.FileName)
	res, err := u.Backend.UploadFile(ctx, req.AccountID, req.Mode, name, req.File)
	u.record(ctx, req, name, res, err)
	if err != nil {
		return UploadOutcome{}, fmt.Errorf("upload %s: %w", name, err)
	}
	return UploadOutcome{FileName: name, Response: res}, nil
}

// UploadPath opens req.FileName from disk and uploads it.
func (u *Uploader) UploadPath(ctx context.Context, req UploadRequest) (UploadOutcome, error) {
	if err := CheckFile(req.FileName); err != nil {
		return UploadOutcome{}, err
	}
	f, err := os.Open(req.FileName)
	if err != nil {
		return UploadOutcome{}, fmt.Errorf("open %s: %w", req.FileName, err)
	}
	defer f.Close()
	req.File = f
	return u.Upload(ctx, req)
}

// Recent lists the local upload history of a merchant.
func (u *Uploader) Recent(ctx context.Context, merchantID string, limit int) ([]repository.Upload, error) {
	if u.History == nil {
		return nil, nil
	}
	return u.History.ListRecent(ctx, merchantID, limit)
}

func (u *Uploader) record(ctx context.Context, req UploadRequest, name string, res domain.UploadResponse, uploadErr error) {
	if u.History == nil {
		return
	}
	entry := repository.Upload{
		MerchantID:     req.MerchantID,
		AccountID:      req.AccountID,
		AccountName:    req.AccountName,
		FileName:       name,
		ProcessingMode: string(req.Mode),
		Successful:     res.SuccessfulIngestions,
		Failed:         res.FailedIngestions,
		Message:        res.Message,
	}
	if uploadErr != nil {
		entry.Error = UploadFailedNotice(uploadErr).Detail
	}
	if _, err := u.History.Add(ctx, entry); err != nil {
		u.Log.Warn().Err(err).Str("file", name).Msg("record upload history")
	}
}
