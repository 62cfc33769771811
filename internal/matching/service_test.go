package matching_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/grantledger/internal/budget"
	"github.com/MrJamesThe3rd/grantledger/internal/matching"
)

func TestService_Learn(t *testing.T) {
	type args struct {
		mapping matching.Mapping
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(m *matching.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Trimmed",
			args: args{mapping: matching.Mapping{Pattern: " RA stipend ", Description: " Research assistant stipend ", Category: " Personnel "}},
			setupMock: func(m *matching.MockRepository) {
				m.EXPECT().CreateMapping(gomock.Any(), matching.Mapping{
					Pattern:     "RA stipend",
					Description: "Research assistant stipend",
					Category:    "Personnel",
				}).Return(nil)
			},
		},
		{
			name:    "EmptyPattern",
			args:    args{mapping: matching.Mapping{Pattern: "  ", Description: "x"}},
			wantErr: matching.ErrEmptyPattern,
		},
		{
			name:    "EmptyDescription",
			args:    args{mapping: matching.Mapping{Pattern: "x"}},
			wantErr: matching.ErrEmptyPattern,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := matching.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			err := matching.NewService(repo).Learn(context.Background(), tt.args.mapping)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestService_Apply(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := matching.NewMockRepository(ctrl)
	repo.EXPECT().FindMatch(gomock.Any(), "RA stipend x2").Return(&matching.Mapping{
		Pattern:     "RA stipend",
		Description: "Research assistant stipend",
		Category:    "Personnel",
	}, nil)
	repo.EXPECT().FindMatch(gomock.Any(), "Laptop").Return(nil, nil)
	repo.EXPECT().FindMatch(gomock.Any(), "Hotel").Return(&matching.Mapping{Pattern: "Hotel", Description: "Hotel"}, nil)

	rows := []budget.ParsedRow{
		{Description: "RA stipend x2", Category: "1. Staff", Total: 100, SourceRow: 2},
		{Description: "Laptop", Category: "Equipment", Total: 200, SourceRow: 3},
		{Description: "Hotel", Category: "Travel", Total: 300, SourceRow: 4},
	}

	got, changed, err := matching.NewService(repo).Apply(context.Background(), rows)
	require.NoError(t, err)

	assert.Equal(t, 1, changed)
	assert.Equal(t, "Research assistant stipend", got[0].Description)
	assert.Equal(t, "Personnel", got[0].Category)
	assert.Equal(t, rows[1], got[1])
	assert.Equal(t, "Travel", got[2].Category)
	assert.Equal(t, "RA stipend x2", rows[0].Description)
}

func TestService_Apply_RepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := matching.NewMockRepository(ctrl)
	repo.EXPECT().FindMatch(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	_, _, err := matching.NewService(repo).Apply(context.Background(), []budget.ParsedRow{{Description: "x", SourceRow: 9}})
	assert.ErrorContains(t, err, "row 9")
}
