package domain_test

import (
	"clinicalsnap/pkg/domain"
	"reflect"
	"testing"
)

func TestEffectiveTreatmentTypeIDs(t *testing.T) {
	cases := []struct {
		name    string
		session domain.Session
		want    []string
	}{
		{
			name:    "multi valued wins",
			session: domain.Session{TreatmentTypeID: "legacy", TreatmentTypeIDs: []string{"t1", "t2"}},
			want:    []string{"t1", "t2"},
		},
		{
			name:    "legacy single value only",
			session: domain.Session{TreatmentTypeID: "t1"},
			want:    []string{"t1"},
		},
		{
			name:    "neither present",
			session: domain.Session{},
			want:    []string{},
		},
		{
			name:    "empty multi falls back to legacy",
			session: domain.Session{TreatmentTypeID: "t9", TreatmentTypeIDs: []string{}},
			want:    []string{"t9"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.EffectiveTreatmentTypeIDs(tc.session)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("effective ids = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNormalizeSessionIdempotent(t *testing.T) {
	inputs := []domain.Session{
		{TreatmentTypeIDs: []string{"a", "b"}},
		{TreatmentTypeID: "solo"},
		{},
	}
	for _, in := range inputs {
		once := domain.NormalizeSession(in)
		twice := domain.NormalizeSession(once)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("normalization not idempotent: %+v vs %+v", once, twice)
		}
	}
}

func TestNormalizeSessionKeepsLegacyField(t *testing.T) {
	s := domain.NormalizeSession(domain.Session{TreatmentTypeID: "t1"})
	if s.TreatmentTypeID != "t1" {
		t.Fatalf("legacy field mutated: %q", s.TreatmentTypeID)
	}
	if !reflect.DeepEqual(s.TreatmentTypeIDs, []string{"t1"}) {
		t.Fatalf("backfill = %v, want [t1]", s.TreatmentTypeIDs)
	}
}

func TestNormalizeSessionCopiesSlice(t *testing.T) {
	in := domain.Session{TreatmentTypeIDs: []string{"t1"}}
	out := domain.NormalizeSession(in)
	out.TreatmentTypeIDs[0] = "mutated"
	if in.TreatmentTypeIDs[0] != "t1" {
		t.Fatal("normalization aliases the input slice")
	}
}
