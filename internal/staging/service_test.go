package staging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/muniledger/internal/report"
	"github.com/MrJamesThe3rd/muniledger/internal/staging"
)

func stagedGoal() *staging.StagedGoal {
	return &staging.StagedGoal{
		ID:         uuid.New(),
		DocumentID: uuid.New(),
		Goal: report.Goal{
			JurisdictionCode: "1110100000",
			ProgramCode:      "16",
			ProgramName:      "Atención primaria",
			Name:             "Consultas realizadas",
		},
	}
}

func TestService_Suggest(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := staging.NewMockRepository(ctrl)
	svc := staging.NewService(repo)

	g := stagedGoal()

	byCode := staging.Program{ID: uuid.New(), JurisdictionCode: "1110100000", Code: report.Ptr("16"), Name: "Salud"}
	byName := staging.Program{ID: uuid.New(), JurisdictionCode: "1110100000", Name: "Atención Primaria"}
	unrelated := staging.Program{ID: uuid.New(), JurisdictionCode: "1110300000", Code: report.Ptr("01"), Name: "Obras"}

	repo.EXPECT().GetStaged(gomock.Any(), g.ID).Return(g, nil)
	repo.EXPECT().ListPrograms(gomock.Any(), g.DocumentID).Return([]staging.Program{unrelated, byName, byCode}, nil)

	got, err := svc.Suggest(context.Background(), g.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, byCode.ID, got[0].Program.ID)
	assert.Equal(t, 5, got[0].Score)
	assert.Equal(t, byName.ID, got[1].Program.ID)
	assert.Equal(t, 4, got[1].Score)
}

func TestService_Assign(t *testing.T) {
	type args struct {
		programID uuid.UUID
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(repo *staging.MockRepository, g *staging.StagedGoal, program uuid.UUID)
		wantErr   error
	}

	program := uuid.New()
	boom := errors.New("boom")

	tests := []testCase{
		{
			name: "Success",
			args: args{programID: program},
			setupMock: func(repo *staging.MockRepository, g *staging.StagedGoal, program uuid.UUID) {
				repo.EXPECT().GetStaged(gomock.Any(), g.ID).Return(g, nil)
				repo.EXPECT().ListPrograms(gomock.Any(), g.DocumentID).Return([]staging.Program{{ID: program}}, nil)
				repo.EXPECT().Assign(gomock.Any(), g.ID, program).Return(nil)
			},
		},
		{
			name: "ProgramOfAnotherDocument",
			args: args{programID: uuid.New()},
			setupMock: func(repo *staging.MockRepository, g *staging.StagedGoal, program uuid.UUID) {
				repo.EXPECT().GetStaged(gomock.Any(), g.ID).Return(g, nil)
				repo.EXPECT().ListPrograms(gomock.Any(), g.DocumentID).Return([]staging.Program{{ID: program}}, nil)
			},
			wantErr: staging.ErrProgramNotFound,
		},
		{
			name: "NotFound",
			args: args{programID: program},
			setupMock: func(repo *staging.MockRepository, g *staging.StagedGoal, _ uuid.UUID) {
				repo.EXPECT().GetStaged(gomock.Any(), g.ID).Return(nil, staging.ErrNotFound)
			},
			wantErr: staging.ErrNotFound,
		},
		{
			name: "StoreError",
			args: args{programID: program},
			setupMock: func(repo *staging.MockRepository, g *staging.StagedGoal, program uuid.UUID) {
				repo.EXPECT().GetStaged(gomock.Any(), g.ID).Return(g, nil)
				repo.EXPECT().ListPrograms(gomock.Any(), g.DocumentID).Return([]staging.Program{{ID: program}}, nil)
				repo.EXPECT().Assign(gomock.Any(), g.ID, program).Return(boom)
			},
			wantErr: boom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := staging.NewMockRepository(ctrl)
			g := stagedGoal()

			tt.setupMock(repo, g, program)

			err := staging.NewService(repo).Assign(context.Background(), g.ID, tt.args.programID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
		})
	}
}

func TestService_Discard(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := staging.NewMockRepository(ctrl)
	id := uuid.New()

	repo.EXPECT().Discard(gomock.Any(), id).Return(staging.ErrNotFound)

	err := staging.NewService(repo).Discard(context.Background(), id)
	require.ErrorIs(t, err, staging.ErrNotFound)
}
