// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package export writes radar samples as text lines, JSON lines or a CBOR
// sequence.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/Thermoquad/ld2410/pkg/ld2410"
)

// Formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCBOR = "cbor"
)

// Formats lists every supported output format.
var Formats = []string{FormatText, FormatJSON, FormatCBOR}

// Sample is one cyclic report with its receive time.
type Sample struct {
	Time        time.Time               `json:"time" cbor:"1,keyasint"`
	Report      ld2410.CyclicReport     `json:"report" cbor:"2,keyasint"`
	Engineering *ld2410.EngineeringData `json:"engineering,omitempty" cbor:"3,keyasint,omitempty"`
}

// NewSample builds a sample from the radar state. Engineering data is only
// attached while engineering mode is on.
func NewSample(t time.Time, r ld2410.CyclicReport, e ld2410.EngineeringData) Sample {
	s := Sample{Time: t, Report: r}
	if r.Engineering {
		s.Engineering = &e
	}
	return s
}

// Encoder writes samples to a stream.
type Encoder interface {
	Encode(Sample) error
}

// NewEncoder returns an encoder for format.
func NewEncoder(format string, w io.Writer) (Encoder, error) {
	switch format {
	case FormatText, "":
		return &textEncoder{w: w}, nil
	case FormatJSON:
		return &valueEncoder{enc: json.NewEncoder(w)}, nil
	case FormatCBOR:
		opts := cbor.CoreDetEncOptions()
		opts.Time = cbor.TimeRFC3339Nano
		opts.TimeTag = cbor.EncTagRequired
		em, err := opts.EncMode()
		if err != nil {
			return nil, fmt.Errorf("cbor encoder: %w", err)
		}
		return &valueEncoder{enc: em.NewEncoder(w)}, nil
	}
	return nil, fmt.Errorf("unknown format %q (want one of %v)", format, Formats)
}

// valueEncoder adapts a generic stream encoder such as json.Encoder.
type valueEncoder struct {
	enc interface{ Encode(any) error }
}

func (e *valueEncoder) Encode(s Sample) error {
	return e.enc.Encode(s)
}

type textEncoder struct {
	w io.Writer
}

func (e *textEncoder) Encode(s Sample) error {
	if _, err := fmt.Fprintf(e.w, "[%s] %s\n", s.Time.Format("15:04:05.000"), ld2410.FormatReport(s.Report)); err != nil {
		return err
	}
	if s.Engineering != nil {
		_, err := io.WriteString(e.w, ld2410.FormatEngineering(*s.Engineering))
		return err
	}
	return nil
}
