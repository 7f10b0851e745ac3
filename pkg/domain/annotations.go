package domain

import (
	"encoding/json"
	"fmt"
)

// AnnotationKind discriminates the annotation payload variants.
type AnnotationKind string

// Annotation payload variants. Geometry is expressed in normalized [0,1]
// image-relative coordinates so annotations stay resolution independent.
const (
	AnnotationPen       AnnotationKind = "pen"
	AnnotationHighlight AnnotationKind = "highlight"
	AnnotationText      AnnotationKind = "text"
	AnnotationStamp     AnnotationKind = "stamp"
)

// Point is a normalized image-relative coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// AnnotationData is the tagged union over the four annotation payloads.
// Implementations are exhaustive: encoding or decoding an unknown kind fails.
type AnnotationData interface {
	Kind() AnnotationKind
}

// PenStroke is a freehand line.
type PenStroke struct {
	Points []Point `json:"points"`
	Color  string  `json:"color"`
	Size   float64 `json:"size"`
}

// Kind implements AnnotationData.
func (PenStroke) Kind() AnnotationKind { return AnnotationPen }

// HighlightStroke is a translucent marker line.
type HighlightStroke struct {
	Points []Point `json:"points"`
	Color  string  `json:"color"`
	Size   float64 `json:"size"`
}

// Kind implements AnnotationData.
func (HighlightStroke) Kind() AnnotationKind { return AnnotationHighlight }

// TextLabel is a positioned text note.
type TextLabel struct {
	Text  string  `json:"text"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color"`
	Size  float64 `json:"size"`
}

// Kind implements AnnotationData.
func (TextLabel) Kind() AnnotationKind { return AnnotationText }

// DirectionalStamp is an arrow-style marker with an orientation in degrees.
type DirectionalStamp struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
	Color string  `json:"color"`
	Size  float64 `json:"size"`
}

// Kind implements AnnotationData.
func (DirectionalStamp) Kind() AnnotationKind { return AnnotationStamp }

// Annotation attaches one drawn payload to a photo. The core stores and
// retrieves payloads opaquely; rendering is the UI's concern.
type Annotation struct {
	ID        string         `json:"id"`
	PhotoID   string         `json:"photoId"`
	Data      AnnotationData `json:"-"`
	CreatedAt Millis         `json:"createdAt"`
	UpdatedAt Millis         `json:"updatedAt"`
}

// RecordID implements Document.
func (a Annotation) RecordID() string { return a.ID }

// IndexValues implements Document.
func (a Annotation) IndexValues() map[Index]string {
	return map[Index]string{IndexPhotoID: a.PhotoID}
}

type annotationAlias Annotation

// MarshalJSON serializes the payload variant under a "type" discriminator,
// mirroring the persisted format of the original dataset.
func (a Annotation) MarshalJSON() ([]byte, error) {
	if a.Data == nil {
		return nil, fmt.Errorf("annotation %q has no payload", a.ID)
	}
	payload, err := marshalAnnotationData(a.Data)
	if err != nil {
		return nil, err
	}
	type envelope struct {
		annotationAlias
		Type AnnotationKind  `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	return json.Marshal(envelope{
		annotationAlias: annotationAlias(a),
		Type:            a.Data.Kind(),
		Data:            payload,
	})
}

// UnmarshalJSON hydrates the payload variant matching the "type"
// discriminator. Unknown kinds are an error so new variants can never be
// silently mishandled.
func (a *Annotation) UnmarshalJSON(data []byte) error {
	type envelope struct {
		annotationAlias
		Type AnnotationKind  `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	var aux envelope
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*a = Annotation(aux.annotationAlias)
	decoded, err := unmarshalAnnotationData(aux.Type, aux.Data)
	if err != nil {
		return err
	}
	a.Data = decoded
	return nil
}

func marshalAnnotationData(data AnnotationData) (json.RawMessage, error) {
	switch v := data.(type) {
	case PenStroke, HighlightStroke, TextLabel, DirectionalStamp:
		return json.Marshal(v)
	default:
		return nil, fmt.Errorf("unknown annotation payload %T", data)
	}
}

func unmarshalAnnotationData(kind AnnotationKind, raw json.RawMessage) (AnnotationData, error) {
	switch kind {
	case AnnotationPen:
		var v PenStroke
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case AnnotationHighlight:
		var v HighlightStroke
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case AnnotationText:
		var v TextLabel
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case AnnotationStamp:
		var v DirectionalStamp
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown annotation kind %q", kind)
	}
}
