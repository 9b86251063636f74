package conflict

import (
	"reflect"
	"testing"

	"github.com/taskclaim/taskclaim/internal/errors"
)

func TestDetect(t *testing.T) {
	sessionA := ActiveClaim{
		SessionID:   "S-A",
		FocusTaskID: "T001",
		TaskIDs:     []string{"T001", "T002", "T003"},
	}
	sessionB := ActiveClaim{
		SessionID:   "S-B",
		FocusTaskID: "T020",
		TaskIDs:     []string{"T020"},
	}

	tests := []struct {
		name           string
		active         []ActiveClaim
		candidateIDs   []string
		candidateFocus string
		wantVerdict    Verdict
		wantOffender   string
		wantOverlap    []string
	}{
		{
			name:           "no active sessions",
			active:         nil,
			candidateIDs:   []string{"T001"},
			candidateFocus: "T001",
			wantVerdict:    None,
		},
		{
			name:           "disjoint scopes",
			active:         []ActiveClaim{sessionA},
			candidateIDs:   []string{"T010", "T011"},
			candidateFocus: "T010",
			wantVerdict:    None,
		},
		{
			name:           "hard conflict on focus",
			active:         []ActiveClaim{sessionB},
			candidateIDs:   []string{"T020"},
			candidateFocus: "T020",
			wantVerdict:    Hard,
			wantOffender:   "S-B",
			wantOverlap:    []string{"T020"},
		},
		{
			name:           "hard conflict wins over overlap size",
			active:         []ActiveClaim{sessionA},
			candidateIDs:   []string{"T001", "T050", "T051"},
			candidateFocus: "T001",
			wantVerdict:    Hard,
			wantOffender:   "S-A",
			wantOverlap:    []string{"T001"},
		},
		{
			name: "hard rule checked against all sessions before overlap",
			active: []ActiveClaim{
				sessionA,
				{SessionID: "S-C", FocusTaskID: "T099", TaskIDs: []string{"T099"}},
			},
			candidateIDs:   []string{"T002", "T099"},
			candidateFocus: "T099",
			wantVerdict:    Hard,
			wantOffender:   "S-C",
			wantOverlap:    []string{"T099"},
		},
		{
			name:           "identical scopes",
			active:         []ActiveClaim{sessionA},
			candidateIDs:   []string{"T001", "T002", "T003"},
			candidateFocus: "T002",
			wantVerdict:    Identical,
			wantOffender:   "S-A",
			wantOverlap:    []string{"T001", "T002", "T003"},
		},
		{
			name:           "candidate nested inside active",
			active:         []ActiveClaim{sessionA},
			candidateIDs:   []string{"T002"},
			candidateFocus: "T002",
			wantVerdict:    Nested,
			wantOffender:   "S-A",
			wantOverlap:    []string{"T002"},
		},
		{
			name:           "active nested inside candidate",
			active:         []ActiveClaim{sessionB},
			candidateIDs:   []string{"T020", "T021", "T022"},
			candidateFocus: "T021",
			wantVerdict:    Nested,
			wantOffender:   "S-B",
			wantOverlap:    []string{"T020"},
		},
		{
			name:           "partial overlap",
			active:         []ActiveClaim{{SessionID: "S-A", FocusTaskID: "T001", TaskIDs: []string{"T001", "T002"}}},
			candidateIDs:   []string{"T002", "T003"},
			candidateFocus: "T003",
			wantVerdict:    Partial,
			wantOffender:   "S-A",
			wantOverlap:    []string{"T002"},
		},
		{
			name: "first matching session wins",
			active: []ActiveClaim{
				{SessionID: "S-1", FocusTaskID: "T100", TaskIDs: []string{"T100", "T002"}},
				{SessionID: "S-2", FocusTaskID: "T200", TaskIDs: []string{"T002", "T003"}},
			},
			candidateIDs:   []string{"T002"},
			candidateFocus: "T002",
			wantVerdict:    Nested,
			wantOffender:   "S-1",
			wantOverlap:    []string{"T002"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.active, tt.candidateIDs, tt.candidateFocus)

			if got.Verdict != tt.wantVerdict {
				t.Fatalf("Verdict = %s, want %s", got.Verdict, tt.wantVerdict)
			}
			if got.OffendingSessionID != tt.wantOffender {
				t.Errorf("OffendingSessionID = %q, want %q", got.OffendingSessionID, tt.wantOffender)
			}
			if tt.wantOverlap != nil && !reflect.DeepEqual(got.Overlap, tt.wantOverlap) {
				t.Errorf("Overlap = %v, want %v", got.Overlap, tt.wantOverlap)
			}
		})
	}
}

func TestPolicyEvaluate(t *testing.T) {
	result := func(v Verdict) Result {
		return Result{Verdict: v, OffendingSessionID: "S-X", Overlap: []string{"T001"}}
	}

	tests := []struct {
		name        string
		policy      Policy
		result      Result
		wantErr     error
		wantWarning bool
	}{
		{"none passes silently", DefaultPolicy(), result(None), nil, false},
		{"hard always blocks", Policy{AllowNested: true, AllowPartial: true}, result(Hard), errors.ErrTaskAlreadyClaimed, false},
		{"identical always blocks", Policy{AllowNested: true, AllowPartial: true}, result(Identical), errors.ErrScopeConflict, false},
		{"nested allowed by default with warning", DefaultPolicy(), result(Nested), nil, true},
		{"nested blocked when disallowed", Policy{AllowNested: false}, result(Nested), errors.ErrScopeConflict, false},
		{"partial blocked by default", DefaultPolicy(), result(Partial), errors.ErrScopeConflict, false},
		{"partial allowed when configured", Policy{AllowPartial: true}, result(Partial), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning, err := tt.policy.Evaluate(tt.result)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Evaluate = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Evaluate = %v, want nil", err)
			}
			if tt.wantWarning && warning == "" {
				t.Error("expected a warning")
			}
			if !tt.wantWarning && warning != "" {
				t.Errorf("unexpected warning: %q", warning)
			}
		})
	}
}

func TestVerdictString(t *testing.T) {
	tests := []struct {
		v    Verdict
		want string
	}{
		{None, "none"},
		{Hard, "hard"},
		{Identical, "identical"},
		{Nested, "nested"},
		{Partial, "partial"},
		{Verdict(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("Verdict(%d).String() = %q, want %q", tt.v, got, tt.want)
		}
	}
}
