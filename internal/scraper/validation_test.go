package scraper

import (
	"errors"
	"testing"
)

func TestStartRequest_Validate(t *testing.T) {
	tests := []struct {
		name         string
		req          StartRequest
		wantErr      error
		wantDaysBack int
		wantLimit    int
	}{
		{
			name:         "empty request gets defaults",
			req:          StartRequest{},
			wantDaysBack: 3,
			wantLimit:    1000,
		},
		{
			name:         "explicit values kept",
			req:          StartRequest{DaysBack: 7, Limit: 50},
			wantDaysBack: 7,
			wantLimit:    50,
		},
		{
			name:    "negative days_back rejected",
			req:     StartRequest{DaysBack: -1},
			wantErr: ErrInvalidDaysBack,
		},
		{
			name:    "negative limit rejected",
			req:     StartRequest{Limit: -5},
			wantErr: ErrInvalidLimit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() unexpected error: %v", err)
			}
			if tt.req.DaysBack != tt.wantDaysBack {
				t.Errorf("DaysBack = %d, want %d", tt.req.DaysBack, tt.wantDaysBack)
			}
			if tt.req.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", tt.req.Limit, tt.wantLimit)
			}
		})
	}
}
