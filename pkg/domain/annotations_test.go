package domain_test

import (
	"clinicalsnap/pkg/domain"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestAnnotationRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		data domain.AnnotationData
	}{
		{"pen", domain.PenStroke{Points: []domain.Point{{X: 0.1, Y: 0.2}, {X: 0.3, Y: 0.4}}, Color: "#ff0000", Size: 3}},
		{"highlight", domain.HighlightStroke{Points: []domain.Point{{X: 0.5, Y: 0.5}}, Color: "#ffee00", Size: 12}},
		{"text", domain.TextLabel{Text: "lesion", X: 0.25, Y: 0.75, Color: "#ffffff", Size: 14}},
		{"stamp", domain.DirectionalStamp{X: 0.6, Y: 0.4, Angle: 90, Color: "#00ff00", Size: 5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := domain.Annotation{
				ID:        "a1",
				PhotoID:   "p1",
				Data:      tc.data,
				CreatedAt: 1000,
				UpdatedAt: 2000,
			}
			raw, err := json.Marshal(in)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var out domain.Annotation
			if err := json.Unmarshal(raw, &out); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !reflect.DeepEqual(in, out) {
				t.Fatalf("round trip mismatch:\n in: %+v\nout: %+v", in, out)
			}
			if out.Data.Kind() != tc.data.Kind() {
				t.Fatalf("kind = %q, want %q", out.Data.Kind(), tc.data.Kind())
			}
		})
	}
}

func TestAnnotationEnvelopeFormat(t *testing.T) {
	raw, err := json.Marshal(domain.Annotation{
		ID:      "a1",
		PhotoID: "p1",
		Data:    domain.TextLabel{Text: "note", X: 0.1, Y: 0.9, Color: "#000", Size: 10},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var envelope map[string]any
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope["type"] != "text" {
		t.Fatalf("discriminator = %v, want text", envelope["type"])
	}
	if _, ok := envelope["data"].(map[string]any); !ok {
		t.Fatalf("payload missing from envelope: %s", raw)
	}
}

func TestAnnotationUnknownKind(t *testing.T) {
	var a domain.Annotation
	err := json.Unmarshal([]byte(`{"id":"a1","photoId":"p1","type":"laser","data":{}}`), &a)
	if err == nil || !strings.Contains(err.Error(), "unknown annotation kind") {
		t.Fatalf("expected unknown kind error, got %v", err)
	}
}

func TestAnnotationMissingPayload(t *testing.T) {
	if _, err := json.Marshal(domain.Annotation{ID: "a1", PhotoID: "p1"}); err == nil {
		t.Fatal("expected error for annotation without payload")
	}
}
