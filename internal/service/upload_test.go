package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jask/recondesk/internal/api"
	"github.com/jask/recondesk/internal/database"
	"github.com/jask/recondesk/internal/database/repository"
	"github.com/jask/recondesk/internal/domain"
)

type fakeUploads struct {
	calls int
	mode  domain.ProcessingMode
	name  string
	body  string
	resp  domain.UploadResponse
	err   error
}

func (f *fakeUploads) UploadFile(ctx context.Context, accountID string, mode domain.ProcessingMode, fileName string, r io.Reader) (domain.UploadResponse, error) {
	f.calls++
	f.mode, f.name = mode, fileName
	data, _ := io.ReadAll(r)
	f.body = string(data)
	return f.resp, f.err
}

func TestCheckFile(t *testing.T) {
	t.Parallel()

	require.NoError(t, CheckFile("bank.csv"))
	require.NoError(t, CheckFile("/tmp/BANK.CSV"))
	require.ErrorIs(t, CheckFile("bank.xlsx"), ErrInvalidFileType)
	require.ErrorIs(t, CheckFile("csv"), ErrInvalidFileType)
	require.ErrorIs(t, CheckFile(""), ErrNoFile)
}

func TestUploadRejectsNonCSVBeforeNetwork(t *testing.T) {
	t.Parallel()

	backend := &fakeUploads{}
	u := &Uploader{Backend: backend, Log: zerolog.Nop()}
	_, err := u.Upload(context.Background(), UploadRequest{
		AccountID: "a1", Mode: domain.ModeConfirmation, FileName: "report.txt", File: strings.NewReader("x"),
	})
	require.ErrorIs(t, err, ErrInvalidFileType)
	require.True(t, IsInline(err))
	require.Zero(t, backend.calls)
}

func TestUploadPartialFailureScenario(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	db, err := database.OpenMigrated(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	backend := &fakeUploads{resp: domain.UploadResponse{
		Message:              "processed",
		SuccessfulIngestions: 8,
		FailedIngestions:     2,
		Errors: []domain.UploadError{
			{RowNumber: 4, ErrorDetails: "invalid amount"},
			{RowNumber: 9, ErrorDetails: "missing effective_date"},
		},
	}}
	u := &Uploader{Backend: backend, History: repository.NewUploadRepo(db), Log: zerolog.Nop()}

	out, err := u.Upload(ctx, UploadRequest{
		MerchantID:  "m1",
		AccountID:   "a1",
		AccountName: "Checking",
		Mode:        domain.ModeConfirmation,
		FileName:    "/home/ops/bank.csv",
		File:        strings.NewReader("order_id,amount\n1,10\n"),
	})
	require.NoError(t, err)
	require.Equal(t, domain.ModeConfirmation, backend.mode)
	require.Equal(t, "bank.csv", backend.name)
	require.True(t, out.Partial())

	n := out.Notice()
	require.Equal(t, Warning, n.Level)
	require.Equal(t, "File processed with some errors", n.Title)
	require.Equal(t, "8 successful, 2 failed.", n.Detail)
	require.Len(t, out.Response.Errors, 2)
	require.Equal(t, 4, out.Response.Errors[0].RowNumber)
	require.Equal(t, 9, out.Response.Errors[1].RowNumber)

	recent, err := u.Recent(ctx, "m1", 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, 8, recent[0].Successful)
	require.Equal(t, 2, recent[0].Failed)
	require.Equal(t, "Checking", recent[0].AccountName)
}

func TestUploadSuccessAndFailureNotices(t *testing.T) {
	t.Parallel()

	ok := UploadOutcome{Response: domain.UploadResponse{SuccessfulIngestions: 12}}
	require.Equal(t, Notice{Level: Success, Title: "File uploaded successfully", Detail: "12 entries processed."}, ok.Notice())

	backend := &fakeUploads{err: &api.Error{StatusCode: 400, Message: "Invalid CSV header"}}
	u := &Uploader{Backend: backend, Log: zerolog.Nop()}
	_, err := u.Upload(context.Background(), UploadRequest{AccountID: "a1", Mode: domain.ModeTransaction, FileName: "x.csv", File: strings.NewReader("")})
	require.Error(t, err)
	n := UploadFailedNotice(err)
	require.Equal(t, "Upload failed", n.Title)
	require.Equal(t, "Invalid CSV header", n.Detail)
	require.False(t, IsInline(err))

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
}

func TestPreviewExcludesHeaderFromPages(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("order_id, amount ,currency\n")
	for i := 0; i < 23; i++ {
		b.WriteString("o1, 10.00 ,USD\n")
	}
	p, err := Preview(strings.NewReader(b.String()))
	require.NoError(t, err)
	require.Equal(t, []string{"order_id", "amount", "currency"}, p.Header)
	require.Len(t, p.Rows, 23)
	require.Equal(t, "10.00", p.Rows[0][1])

	page := p.Page(3)
	require.Equal(t, 3, page.Pages)
	require.Len(t, page.Rows, 3)

	empty, err := Preview(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, 1, empty.Page(1).Pages)
}
