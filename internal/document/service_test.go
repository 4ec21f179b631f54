package document_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/muniledger/internal/document"
	"github.com/MrJamesThe3rd/muniledger/internal/report"
)

var pdfData = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")

func xlsxData(t *testing.T) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Evolución de los recursos"))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	return buf.Bytes()
}

func TestService_Upload(t *testing.T) {
	type args struct {
		params document.UploadParams
	}

	type testCase struct {
		name       string
		args       args
		setupMock  func(repo *document.MockRepository, storage *document.MockStorage)
		wantErr    error
		wantFormat document.Format
	}

	valid := func(fileName string, data []byte) document.UploadParams {
		return document.UploadParams{
			Municipality: "General Pueyrredón",
			Type:         "SITECO",
			Period:       "1T",
			Year:         2024,
			FileName:     fileName,
			Data:         data,
		}
	}

	tests := []testCase{
		{
			name: "PDF",
			args: args{params: valid("informe.pdf", pdfData)},
			setupMock: func(repo *document.MockRepository, storage *document.MockStorage) {
				storage.EXPECT().
					Put(gomock.Any(), gomock.Any(), pdfData).
					DoAndReturn(func(_ context.Context, path string, _ []byte) error {
						assert.True(t, strings.HasPrefix(path, "documentos/general_pueyrredon/"))
						assert.True(t, strings.HasSuffix(path, ".pdf"))
						return nil
					})
				repo.EXPECT().
					CreateDocument(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, d *document.Document) error {
						assert.Equal(t, report.StatusPending, d.Status)
						assert.Equal(t, "informe.pdf", d.Name)
						assert.Len(t, d.Hash, 64)
						d.ID = uuid.New()
						return nil
					})
			},
			wantFormat: document.FormatPDF,
		},
		{
			name: "Text",
			args: args{params: valid("informe.txt", []byte("Evolución de los recursos\n\fMetas"))},
			setupMock: func(repo *document.MockRepository, storage *document.MockStorage) {
				storage.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				repo.EXPECT().CreateDocument(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantFormat: document.FormatText,
		},
		{
			name:    "MissingMunicipality",
			args:    args{params: document.UploadParams{Type: "SITECO", FileName: "a.pdf", Data: pdfData}},
			wantErr: document.ErrInvalidParams,
		},
		{
			name:    "Empty",
			args:    args{params: valid("a.pdf", nil)},
			wantErr: document.ErrInvalidFile,
		},
		{
			name:    "NotAPDF",
			args:    args{params: valid("a.pdf", []byte("hello"))},
			wantErr: document.ErrInvalidFile,
		},
		{
			name: "StorageError",
			args: args{params: valid("a.pdf", pdfData)},
			setupMock: func(_ *document.MockRepository, storage *document.MockStorage) {
				storage.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
			},
			wantErr: errors.New("storing file"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := document.NewMockRepository(ctrl)
			storage := document.NewMockStorage(ctrl)

			if tt.setupMock != nil {
				tt.setupMock(repo, storage)
			}

			svc := document.NewService(repo, storage, 0)
			got, err := svc.Upload(context.Background(), tt.args.params)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Nil(t, got)

				if errors.Is(tt.wantErr, document.ErrInvalidFile) || errors.Is(tt.wantErr, document.ErrInvalidParams) {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantFormat, got.Format)
		})
	}
}

func TestDetectFormat(t *testing.T) {
	format, err := document.DetectFormat("informe.xlsx", xlsxData(t), 0)
	require.NoError(t, err)
	assert.Equal(t, document.FormatXLSX, format)

	_, err = document.DetectFormat("informe.pdf", pdfData, 4)
	assert.ErrorIs(t, err, document.ErrInvalidFile)

	_, err = document.DetectFormat("informe.csv", []byte("a;b;c\n1;2;3\n"), 0)
	assert.ErrorIs(t, err, document.ErrInvalidFile)
}

func TestStoragePath(t *testing.T) {
	assert.Equal(t, "documentos/bahia_blanca/abc.pdf", document.StoragePath("Bahía Blanca", "abc", document.FormatPDF))
	assert.Equal(t, "documentos/sin_municipio/abc.xlsx", document.StoragePath("  ", "abc", document.FormatXLSX))
}

func TestDocument_IsSiteco(t *testing.T) {
	assert.True(t, (&document.Document{Type: "Sit-Eco"}).IsSiteco())
	assert.True(t, (&document.Document{Type: "Rendición", Name: "SITECO 1T 2024"}).IsSiteco())
	assert.False(t, (&document.Document{Type: "Presupuesto"}).IsSiteco())
}

func TestService_Content(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	storage := document.NewMockStorage(ctrl)
	svc := document.NewService(document.NewMockRepository(ctrl), storage, 0)

	storage.EXPECT().Get(gomock.Any(), "documentos/x/a.pdf").Return(pdfData, nil)

	got, err := svc.Content(context.Background(), &document.Document{StoragePath: "documentos/x/a.pdf"})
	require.NoError(t, err)
	assert.Equal(t, pdfData, got)

	_, err = svc.Content(context.Background(), &document.Document{})
	assert.Error(t, err)
}

func TestService_Delete(t *testing.T) {
	id := uuid.New()
	doc := &document.Document{ID: id, Municipality: "Tandil", StoragePath: "documentos/tandil/a.pdf"}

	t.Run("RemovesUnsharedFile", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := document.NewMockRepository(ctrl)
		storage := document.NewMockStorage(ctrl)

		repo.EXPECT().GetDocument(gomock.Any(), id).Return(doc, nil)
		repo.EXPECT().DeleteDocument(gomock.Any(), id).Return(nil)
		repo.EXPECT().ListDocuments(gomock.Any(), gomock.Any()).Return(nil, nil)
		storage.EXPECT().Delete(gomock.Any(), doc.StoragePath).Return(nil)

		require.NoError(t, document.NewService(repo, storage, 0).Delete(context.Background(), id))
	})

	t.Run("KeepsSharedFile", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := document.NewMockRepository(ctrl)
		storage := document.NewMockStorage(ctrl)

		repo.EXPECT().GetDocument(gomock.Any(), id).Return(doc, nil)
		repo.EXPECT().DeleteDocument(gomock.Any(), id).Return(nil)
		repo.EXPECT().ListDocuments(gomock.Any(), gomock.Any()).
			Return([]*document.Document{{ID: uuid.New(), StoragePath: doc.StoragePath}}, nil)

		require.NoError(t, document.NewService(repo, storage, 0).Delete(context.Background(), id))
	})

	t.Run("NotFound", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := document.NewMockRepository(ctrl)
		repo.EXPECT().GetDocument(gomock.Any(), id).Return(nil, document.ErrNotFound)

		err := document.NewService(repo, document.NewMockStorage(ctrl), 0).Delete(context.Background(), id)
		assert.ErrorIs(t, err, document.ErrNotFound)
	})
}
